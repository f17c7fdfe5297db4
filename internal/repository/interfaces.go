package repository

import (
	"context"

	"github.com/rpattn/driverlog/internal/domain"
)

// LogRepository defines persistence for log headers and their stops.
type LogRepository interface {
	// Create inserts the header and then its stops in one transaction and
	// returns the new log id. Nothing is persisted when any insert fails.
	Create(ctx context.Context, entry domain.LogEntry, stops []domain.StopEntry) (int64, error)

	ListLogs(ctx context.Context, filter domain.LogFilter, order domain.LogOrder) ([]domain.LogEntry, error)
	EachLog(ctx context.Context, filter domain.LogFilter, order domain.LogOrder, fn func(domain.LogEntry) error) error

	// Stop reads filter on the parent log and sort by the parent order, then stop number.
	ListStops(ctx context.Context, filter domain.LogFilter, order domain.LogOrder) ([]domain.StopRow, error)
	EachStop(ctx context.Context, filter domain.LogFilter, order domain.LogOrder, fn func(domain.StopRow) error) error
}

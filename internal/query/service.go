package query

import (
	"context"

	"github.com/rpattn/driverlog/internal/domain"
	"github.com/rpattn/driverlog/internal/repository"
)

// Service answers filtered reads for the admin view and the exports.
type Service struct {
	repo repository.LogRepository
}

// NewService creates a query service.
func NewService(repo repository.LogRepository) *Service {
	return &Service{repo: repo}
}

// Result is the admin view: matching logs newest first plus their totals.
type Result struct {
	Filters domain.LogFilter  `json:"filters"`
	Stats   domain.Stats      `json:"stats"`
	Rows    []domain.LogEntry `json:"rows"`
}

// Query returns the filtered logs, newest first, and stats over exactly those rows.
func (s *Service) Query(ctx context.Context, filter domain.LogFilter) (Result, error) {
	filter = filter.Normalized()
	rows, err := s.repo.ListLogs(ctx, filter, domain.OrderNewestFirst)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Filters: filter,
		Stats:   domain.Summarize(rows),
		Rows:    rows,
	}, nil
}

// QueryStops returns the filtered stops joined to their logs, oldest first.
func (s *Service) QueryStops(ctx context.Context, filter domain.LogFilter) ([]domain.StopRow, error) {
	return s.repo.ListStops(ctx, filter.Normalized(), domain.OrderOldestFirst)
}

// EachLog streams filtered logs oldest first.
func (s *Service) EachLog(ctx context.Context, filter domain.LogFilter, fn func(domain.LogEntry) error) error {
	return s.repo.EachLog(ctx, filter.Normalized(), domain.OrderOldestFirst, fn)
}

// EachStop streams filtered stops oldest first, then by stop number.
func (s *Service) EachStop(ctx context.Context, filter domain.LogFilter, fn func(domain.StopRow) error) error {
	return s.repo.EachStop(ctx, filter.Normalized(), domain.OrderOldestFirst, fn)
}

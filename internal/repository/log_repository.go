package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpattn/driverlog/internal/db"
	"github.com/rpattn/driverlog/internal/domain"
)

const logColumns = `l.id, l.created_at, l.date, l.driver_name, l.driver_email, l.cc_email, l.truck,
	l.start_miles, l.end_miles, l.start_time, l.end_time, l.rate_per_mile, l.rate_per_hour,
	l.total_miles, l.total_time, l.total_detention, l.total_value_hours, l.gross_pay`

const stopColumns = `s.id, s.log_id, s.stop_num, s.type, s.location, s.arrive, s.depart,
	s.duration, s.detention, s.value_hours, s.grain_phase, l.date, l.driver_name, l.truck`

type logRepository struct {
	conn *db.Connection
}

// NewLogRepository creates a log repository over an open connection.
func NewLogRepository(conn *db.Connection) LogRepository {
	return &logRepository{conn: conn}
}

// Create inserts a log header and its stops atomically.
func (r *logRepository) Create(ctx context.Context, entry domain.LogEntry, stops []domain.StopEntry) (int64, error) {
	var logID int64
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := r.insertLog(ctx, tx, entry)
		if err != nil {
			return err
		}
		if err := r.insertStops(ctx, tx, id, stops); err != nil {
			return err
		}
		logID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return logID, nil
}

func (r *logRepository) insertLog(ctx context.Context, tx *sql.Tx, entry domain.LogEntry) (int64, error) {
	columns := []string{
		"created_at", "date", "driver_name", "driver_email", "cc_email", "truck",
		"start_miles", "end_miles", "start_time", "end_time", "rate_per_mile", "rate_per_hour",
		"total_miles", "total_time", "total_detention", "total_value_hours", "gross_pay",
	}
	query := fmt.Sprintf(
		"INSERT INTO logs (%s) VALUES (%s) RETURNING id",
		strings.Join(columns, ", "),
		r.placeholders(len(columns)),
	)

	var id int64
	err := tx.QueryRowContext(ctx, query,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		entry.Date,
		entry.DriverName,
		entry.DriverEmail,
		entry.CCEmail,
		entry.Truck,
		entry.StartMiles,
		entry.EndMiles,
		entry.StartTime,
		entry.EndTime,
		entry.RatePerMile,
		entry.RatePerHour,
		entry.TotalMiles,
		entry.TotalTime,
		entry.TotalDetention,
		entry.TotalValueHours,
		entry.GrossPay,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert log: %w", err)
	}
	return id, nil
}

func (r *logRepository) insertStops(ctx context.Context, tx *sql.Tx, logID int64, stops []domain.StopEntry) error {
	if len(stops) == 0 {
		return nil
	}

	columns := []string{
		"log_id", "stop_num", "type", "location", "arrive", "depart",
		"duration", "detention", "value_hours", "grain_phase",
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO stops (%s) VALUES (%s)",
		strings.Join(columns, ", "),
		r.placeholders(len(columns)),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for i, stop := range stops {
		valueHours := sql.NullFloat64{}
		if stop.ValueHours != nil {
			valueHours = sql.NullFloat64{Float64: *stop.ValueHours, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			logID,
			stop.StopNum,
			stop.Type,
			stop.Location,
			stop.Arrive,
			stop.Depart,
			stop.Duration,
			stop.Detention,
			valueHours,
			stop.GrainPhase,
		); err != nil {
			return fmt.Errorf("failed to insert stop %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *logRepository) ListLogs(ctx context.Context, filter domain.LogFilter, order domain.LogOrder) ([]domain.LogEntry, error) {
	logs := []domain.LogEntry{}
	err := r.EachLog(ctx, filter, order, func(entry domain.LogEntry) error {
		logs = append(logs, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepository) EachLog(ctx context.Context, filter domain.LogFilter, order domain.LogOrder, fn func(domain.LogEntry) error) error {
	predicate := buildLogPredicate(filter, r.conn.Dialect)
	query := "SELECT " + logColumns + " FROM logs l" + predicate.clause + logOrderClause(order)

	rows, err := r.conn.DB.QueryContext(ctx, query, predicate.args...)
	if err != nil {
		return fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry     domain.LogEntry
			createdAt string
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&createdAt,
			&entry.Date,
			&entry.DriverName,
			&entry.DriverEmail,
			&entry.CCEmail,
			&entry.Truck,
			&entry.StartMiles,
			&entry.EndMiles,
			&entry.StartTime,
			&entry.EndTime,
			&entry.RatePerMile,
			&entry.RatePerHour,
			&entry.TotalMiles,
			&entry.TotalTime,
			&entry.TotalDetention,
			&entry.TotalValueHours,
			&entry.GrossPay,
		); scanErr != nil {
			return fmt.Errorf("failed to scan log: %w", scanErr)
		}
		entry.CreatedAt = parseCreatedAt(createdAt)

		if err := fn(entry); err != nil {
			return err
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed to iterate logs: %w", rowsErr)
	}
	return nil
}

func (r *logRepository) ListStops(ctx context.Context, filter domain.LogFilter, order domain.LogOrder) ([]domain.StopRow, error) {
	stops := []domain.StopRow{}
	err := r.EachStop(ctx, filter, order, func(row domain.StopRow) error {
		stops = append(stops, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stops, nil
}

func (r *logRepository) EachStop(ctx context.Context, filter domain.LogFilter, order domain.LogOrder, fn func(domain.StopRow) error) error {
	predicate := buildLogPredicate(filter, r.conn.Dialect)
	query := "SELECT " + stopColumns + " FROM stops s JOIN logs l ON l.id = s.log_id" +
		predicate.clause + stopOrderClause(order)

	rows, err := r.conn.DB.QueryContext(ctx, query, predicate.args...)
	if err != nil {
		return fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row        domain.StopRow
			valueHours sql.NullFloat64
		)
		if scanErr := rows.Scan(
			&row.ID,
			&row.LogID,
			&row.StopNum,
			&row.Type,
			&row.Location,
			&row.Arrive,
			&row.Depart,
			&row.Duration,
			&row.Detention,
			&valueHours,
			&row.GrainPhase,
			&row.Date,
			&row.DriverName,
			&row.Truck,
		); scanErr != nil {
			return fmt.Errorf("failed to scan stop: %w", scanErr)
		}
		if valueHours.Valid {
			value := valueHours.Float64
			row.ValueHours = &value
		}

		if err := fn(row); err != nil {
			return err
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed to iterate stops: %w", rowsErr)
	}
	return nil
}

func (r *logRepository) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = r.conn.Dialect.Placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}

func parseCreatedAt(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

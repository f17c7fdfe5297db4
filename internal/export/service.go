package export

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rpattn/driverlog/internal/domain"
	"github.com/rpattn/driverlog/internal/query"
)

// Service streams filtered logs and stops into export files.
type Service struct {
	query      *query.Service
	flushEvery int
}

// Option customizes a Service.
type Option func(*Service)

// WithFlushEvery sets how many CSV rows are buffered between flushes.
func WithFlushEvery(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.flushEvery = rows
		}
	}
}

// NewService creates an export service on top of the query service.
func NewService(queries *query.Service, opts ...Option) *Service {
	service := &Service{
		query:      queries,
		flushEvery: 100,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ExportLogs writes the filtered logs, oldest first, to w and returns the
// number of data rows written.
func (s *Service) ExportLogs(ctx context.Context, filter domain.LogFilter, format Format, w io.Writer) (int, error) {
	return exportRows(ctx, KindLogs, format, w, s.flushEvery, LogColumns, func(fn func(domain.LogEntry) error) error {
		return s.query.EachLog(ctx, filter, fn)
	})
}

// ExportStops writes the filtered stops, oldest log first then by stop
// number, to w and returns the number of data rows written.
func (s *Service) ExportStops(ctx context.Context, filter domain.LogFilter, format Format, w io.Writer) (int, error) {
	return exportRows(ctx, KindStops, format, w, s.flushEvery, StopColumns, func(fn func(domain.StopRow) error) error {
		return s.query.EachStop(ctx, filter, fn)
	})
}

// FileName builds the attachment name for an export of kind.
func FileName(kind Kind, filter domain.LogFilter, format Format) string {
	filter = filter.Normalized()
	from, to := filter.From, filter.To
	if from == "" {
		from = "start"
	}
	if to == "" {
		to = "latest"
	}
	return fmt.Sprintf("driver-%s-%s-to-%s.%s", kind, from, to, format)
}

func exportRows[T any](
	ctx context.Context,
	kind Kind,
	format Format,
	w io.Writer,
	flushEvery int,
	projection Projection[T],
	each func(func(T) error) error,
) (int, error) {
	started := time.Now()
	counter := &countingWriter{writer: w}

	rw, err := NewRowWriter(format, counter, flushEvery)
	if err != nil {
		return 0, err
	}
	closed := false
	defer func() {
		if !closed {
			if d, ok := rw.(discarder); ok {
				d.discard()
			}
		}
	}()

	// Nothing reaches w until the cursor yields a row or finishes cleanly.
	headerWritten := false
	writeHeader := func() error {
		if headerWritten {
			return nil
		}
		headerWritten = true
		if err := rw.WriteRow(projection.Labels()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := rw.Flush(); err != nil {
			return fmt.Errorf("flush header: %w", err)
		}
		return nil
	}

	rowsExported := 0
	cells := make([]string, len(projection))
	err = each(func(row T) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := writeHeader(); err != nil {
			return err
		}
		if err := rw.WriteRow(projection.Cells(row, cells)); err != nil {
			return err
		}
		rowsExported++
		return nil
	})
	if err != nil {
		return rowsExported, fmt.Errorf("export %s: %w", kind, err)
	}
	if err := writeHeader(); err != nil {
		return 0, err
	}

	closed = true
	if err := rw.Close(); err != nil {
		return rowsExported, fmt.Errorf("finish %s export: %w", kind, err)
	}

	log.Printf("[export] %s export completed (rows=%d bytes=%d format=%s took=%s)",
		kind, rowsExported, counter.count, format, time.Since(started).Round(time.Millisecond))
	return rowsExported, nil
}

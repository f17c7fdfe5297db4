package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats other than csv and xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat maps a request value to a Format; empty means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// RowWriter receives a header and then data rows one at a time.
type RowWriter interface {
	WriteRow(cells []string) error
	// Flush pushes buffered rows to the underlying writer where the format allows it.
	Flush() error
	// Close finishes the document. It must be called once after the last row.
	Close() error
}

// NewRowWriter creates a writer for format on w. CSV output is flushed every
// flushEvery rows; values <= 0 flush after each row.
func NewRowWriter(format Format, w io.Writer, flushEvery int) (RowWriter, error) {
	switch format {
	case FormatCSV, "":
		return newCSVWriter(w, flushEvery), nil
	case FormatXLSX:
		return newXLSXWriter(w)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

type csvRowWriter struct {
	out        io.Writer
	writer     *csv.Writer
	flushEvery int
	pending    int
}

func newCSVWriter(w io.Writer, flushEvery int) *csvRowWriter {
	if flushEvery <= 0 {
		flushEvery = 1
	}
	return &csvRowWriter{out: w, writer: csv.NewWriter(w), flushEvery: flushEvery}
}

func (c *csvRowWriter) WriteRow(cells []string) error {
	if err := c.writer.Write(cells); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	c.pending++
	if c.pending >= c.flushEvery {
		return c.Flush()
	}
	return nil
}

func (c *csvRowWriter) Flush() error {
	c.pending = 0
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("flush csv rows: %w", err)
	}
	if flusher, ok := c.out.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

func (c *csvRowWriter) Close() error {
	return c.Flush()
}

type xlsxRowWriter struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

const xlsxSheet = "Sheet1"

func newXLSXWriter(w io.Writer) (*xlsxRowWriter, error) {
	file := excelize.NewFile()
	stream, err := file.NewStreamWriter(xlsxSheet)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create xlsx stream: %w", err)
	}
	return &xlsxRowWriter{out: w, file: file, stream: stream}, nil
}

func (x *xlsxRowWriter) WriteRow(cells []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return fmt.Errorf("xlsx cell name: %w", err)
	}
	values := make([]interface{}, len(cells))
	for i, value := range cells {
		values[i] = value
	}
	if err := x.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("write xlsx row %d: %w", x.row, err)
	}
	return nil
}

// Flush is a no-op: a workbook is only readable once complete.
func (x *xlsxRowWriter) Flush() error {
	return nil
}

func (x *xlsxRowWriter) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("flush xlsx stream: %w", err)
	}
	if _, err := x.file.WriteTo(x.out); err != nil {
		return fmt.Errorf("write xlsx workbook: %w", err)
	}
	return nil
}

// discarder releases resources of a writer abandoned before Close.
type discarder interface {
	discard()
}

func (x *xlsxRowWriter) discard() {
	_ = x.file.Close()
}

// countingWriter tracks bytes written for logging.
type countingWriter struct {
	writer io.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}

// Flush forwards to the wrapped writer so streaming responses still flush.
func (c *countingWriter) Flush() {
	if flusher, ok := c.writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

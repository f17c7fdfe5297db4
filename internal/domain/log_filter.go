package domain

import "strings"

// LogFilter is the filter set shared by the admin view and both exports.
// Empty fields contribute no condition.
type LogFilter struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Driver string `json:"driver,omitempty"`
}

// Normalized trims surrounding whitespace from every field.
func (f LogFilter) Normalized() LogFilter {
	return LogFilter{
		From:   strings.TrimSpace(f.From),
		To:     strings.TrimSpace(f.To),
		Driver: strings.TrimSpace(f.Driver),
	}
}

// IsEmpty reports whether the filter matches every row.
func (f LogFilter) IsEmpty() bool {
	n := f.Normalized()
	return n.From == "" && n.To == "" && n.Driver == ""
}

// LogOrder selects the sort order of a log read.
type LogOrder int

const (
	// OrderNewestFirst sorts by date then id, descending. Used by the admin view.
	OrderNewestFirst LogOrder = iota
	// OrderOldestFirst sorts by date then id, ascending. Used by exports.
	OrderOldestFirst
)

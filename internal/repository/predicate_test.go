package repository

import (
	"reflect"
	"testing"

	"github.com/rpattn/driverlog/internal/db"
	"github.com/rpattn/driverlog/internal/domain"
)

func TestBuildLogPredicate(t *testing.T) {
	tests := []struct {
		name    string
		filter  domain.LogFilter
		dialect db.Dialect
		clause  string
		args    []any
	}{
		{
			name:    "no filters matches all",
			filter:  domain.LogFilter{From: " ", Driver: ""},
			dialect: db.DialectSQLite,
		},
		{
			name:    "all filters sqlite",
			filter:  domain.LogFilter{From: "2024-01-01", To: "2024-01-31", Driver: " ann "},
			dialect: db.DialectSQLite,
			clause:  " WHERE l.date >= ? AND l.date <= ? AND l.driver_name LIKE ?",
			args:    []any{"2024-01-01", "2024-01-31", "%ann%"},
		},
		{
			name:    "postgres numbers placeholders",
			filter:  domain.LogFilter{To: "2024-01-31", Driver: "bo"},
			dialect: db.DialectPostgres,
			clause:  " WHERE l.date <= $1 AND l.driver_name LIKE $2",
			args:    []any{"2024-01-31", "%bo%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildLogPredicate(tt.filter, tt.dialect)
			if got.clause != tt.clause {
				t.Fatalf("clause = %q, want %q", got.clause, tt.clause)
			}
			if !reflect.DeepEqual(got.args, tt.args) {
				t.Fatalf("args = %#v, want %#v", got.args, tt.args)
			}
		})
	}
}

package repository

import (
	"strings"

	"github.com/rpattn/driverlog/internal/db"
	"github.com/rpattn/driverlog/internal/domain"
)

// logPredicate is a WHERE clause over the logs table aliased as "l".
type logPredicate struct {
	clause string
	args   []any
}

// buildLogPredicate is the only place filter conditions are produced; the
// admin view and both exports all read through it.
func buildLogPredicate(filter domain.LogFilter, dialect db.Dialect) logPredicate {
	filter = filter.Normalized()

	var (
		conditions []string
		args       []any
	)
	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, condition+" "+dialect.Placeholder(len(args)))
	}

	if filter.From != "" {
		add("l.date >=", filter.From)
	}
	if filter.To != "" {
		add("l.date <=", filter.To)
	}
	if filter.Driver != "" {
		add("l.driver_name LIKE", "%"+filter.Driver+"%")
	}

	if len(conditions) == 0 {
		return logPredicate{}
	}
	return logPredicate{
		clause: " WHERE " + strings.Join(conditions, " AND "),
		args:   args,
	}
}

func logOrderClause(order domain.LogOrder) string {
	if order == domain.OrderOldestFirst {
		return " ORDER BY l.date ASC, l.id ASC"
	}
	return " ORDER BY l.date DESC, l.id DESC"
}

func stopOrderClause(order domain.LogOrder) string {
	if order == domain.OrderOldestFirst {
		return " ORDER BY l.date ASC, l.id ASC, s.stop_num ASC, s.id ASC"
	}
	return " ORDER BY l.date DESC, l.id DESC, s.stop_num ASC, s.id ASC"
}

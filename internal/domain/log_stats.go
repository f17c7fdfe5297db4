package domain

// Stats aggregates a filtered set of log headers.
type Stats struct {
	Days  int     `json:"days"`
	Miles float64 `json:"miles"`
	Value float64 `json:"value"`
	Pay   float64 `json:"pay"`
}

// Summarize computes Stats over exactly the given rows.
func Summarize(rows []LogEntry) Stats {
	stats := Stats{}
	for _, row := range rows {
		stats.Add(row)
	}
	return stats
}

// Add folds one row into the running totals.
func (s *Stats) Add(row LogEntry) {
	s.Days++
	s.Miles += row.TotalMiles
	s.Value += row.TotalValueHours
	s.Pay += row.GrossPay
}

package export

import (
	"strconv"

	"github.com/rpattn/driverlog/internal/domain"
)

// Column maps one field of a row to a labelled output cell.
type Column[T any] struct {
	Label string
	Value func(T) string
}

// Projection is a fixed, ordered list of columns. The header comes from the
// projection itself, so an empty result set still has one.
type Projection[T any] []Column[T]

// Labels returns the header row.
func (p Projection[T]) Labels() []string {
	labels := make([]string, len(p))
	for i, column := range p {
		labels[i] = column.Label
	}
	return labels
}

// Cells fills buf with the projected values of row and returns it.
func (p Projection[T]) Cells(row T, buf []string) []string {
	if cap(buf) < len(p) {
		buf = make([]string, len(p))
	}
	buf = buf[:len(p)]
	for i, column := range p {
		buf[i] = column.Value(row)
	}
	return buf
}

// LogColumns is the log header export layout.
var LogColumns = Projection[domain.LogEntry]{
	{"Date", func(l domain.LogEntry) string { return l.Date }},
	{"Driver Name", func(l domain.LogEntry) string { return l.DriverName }},
	{"Driver Email", func(l domain.LogEntry) string { return l.DriverEmail }},
	{"Truck #", func(l domain.LogEntry) string { return l.Truck }},
	{"Start Miles", func(l domain.LogEntry) string { return formatNumber(l.StartMiles) }},
	{"End Miles", func(l domain.LogEntry) string { return formatNumber(l.EndMiles) }},
	{"Start Time", func(l domain.LogEntry) string { return l.StartTime }},
	{"End Time", func(l domain.LogEntry) string { return l.EndTime }},
	{"Rate/Mile", func(l domain.LogEntry) string { return formatNumber(l.RatePerMile) }},
	{"Hourly Rate", func(l domain.LogEntry) string { return formatNumber(l.RatePerHour) }},
	{"Total Miles", func(l domain.LogEntry) string { return formatNumber(l.TotalMiles) }},
	{"Total Time", func(l domain.LogEntry) string { return l.TotalTime }},
	{"Total Detention", func(l domain.LogEntry) string { return l.TotalDetention }},
	{"Total Value (hrs)", func(l domain.LogEntry) string { return formatNumber(l.TotalValueHours) }},
	{"Gross Pay", func(l domain.LogEntry) string { return formatNumber(l.GrossPay) }},
}

// StopColumns is the stop export layout.
var StopColumns = Projection[domain.StopRow]{
	{"Date", func(s domain.StopRow) string { return s.Date }},
	{"Driver Name", func(s domain.StopRow) string { return s.DriverName }},
	{"Truck #", func(s domain.StopRow) string { return s.Truck }},
	{"Stop #", func(s domain.StopRow) string { return strconv.Itoa(s.StopNum) }},
	{"Type", func(s domain.StopRow) string { return s.Type }},
	{"Location", func(s domain.StopRow) string { return s.Location }},
	{"Arrive", func(s domain.StopRow) string { return s.Arrive }},
	{"Depart", func(s domain.StopRow) string { return s.Depart }},
	{"Duration", func(s domain.StopRow) string { return s.Duration }},
	{"Detention", func(s domain.StopRow) string { return s.Detention }},
	{"Value (hrs)", func(s domain.StopRow) string { return formatOptionalNumber(s.ValueHours) }},
	{"Grain Phase", func(s domain.StopRow) string { return s.GrainPhase }},
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

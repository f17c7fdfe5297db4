package domain

import "time"

// DateLayout is the calendar date format stored in logs.date.
const DateLayout = "2006-01-02"

// LogEntry is the header of one driver-day submission.
type LogEntry struct {
	ID              int64     `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Date            string    `json:"date"`
	DriverName      string    `json:"driver_name"`
	DriverEmail     string    `json:"driver_email"`
	CCEmail         string    `json:"cc_email"`
	Truck           string    `json:"truck"`
	StartMiles      float64   `json:"start_miles"`
	EndMiles        float64   `json:"end_miles"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	RatePerMile     float64   `json:"rate_per_mile"`
	RatePerHour     float64   `json:"rate_per_hour"`
	TotalMiles      float64   `json:"total_miles"`
	TotalTime       string    `json:"total_time"`
	TotalDetention  string    `json:"total_detention"`
	TotalValueHours float64   `json:"total_value_hours"`
	GrossPay        float64   `json:"gross_pay"`
}

// StopEntry is one stop line item owned by a LogEntry.
// ValueHours is nil when the driver submitted an empty value.
type StopEntry struct {
	ID         int64    `json:"id"`
	LogID      int64    `json:"log_id"`
	StopNum    int      `json:"stop_num"`
	Type       string   `json:"type"`
	Location   string   `json:"location"`
	Arrive     string   `json:"arrive"`
	Depart     string   `json:"depart"`
	Duration   string   `json:"duration"`
	Detention  string   `json:"detention"`
	ValueHours *float64 `json:"value_hours"`
	GrainPhase string   `json:"grain_phase"`
}

// StopRow is a stop joined to the parent log fields used by the stop export.
type StopRow struct {
	StopEntry
	Date       string `json:"date"`
	DriverName string `json:"driver_name"`
	Truck      string `json:"truck"`
}

// NewLogEntry stamps a header with its creation time and fills the date
// from that time when the caller left it blank.
func NewLogEntry(entry LogEntry, now time.Time) LogEntry {
	entry.ID = 0
	entry.CreatedAt = now.UTC()
	if entry.Date == "" {
		entry.Date = now.Format(DateLayout)
	}
	return entry
}

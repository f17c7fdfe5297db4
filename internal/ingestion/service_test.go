package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpattn/driverlog/internal/db"
	"github.com/rpattn/driverlog/internal/domain"
	"github.com/rpattn/driverlog/internal/repository"
)

type stubLogRepo struct {
	entries []domain.LogEntry
	stops   [][]domain.StopEntry
	err     error
}

func (s *stubLogRepo) Create(_ context.Context, entry domain.LogEntry, stops []domain.StopEntry) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.entries = append(s.entries, entry)
	s.stops = append(s.stops, stops)
	return int64(len(s.entries)), nil
}

func (s *stubLogRepo) ListLogs(context.Context, domain.LogFilter, domain.LogOrder) ([]domain.LogEntry, error) {
	return s.entries, nil
}

func (s *stubLogRepo) EachLog(context.Context, domain.LogFilter, domain.LogOrder, func(domain.LogEntry) error) error {
	return nil
}

func (s *stubLogRepo) ListStops(context.Context, domain.LogFilter, domain.LogOrder) ([]domain.StopRow, error) {
	return nil, nil
}

func (s *stubLogRepo) EachStop(context.Context, domain.LogFilter, domain.LogOrder, func(domain.StopRow) error) error {
	return nil
}

var fixedNow = time.Date(2024, 7, 4, 9, 15, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return payload
}

func TestSubmitEmptyPayloadUsesDefaults(t *testing.T) {
	repo := &stubLogRepo{}
	service := NewService(repo, WithClock(fixedClock))

	receipt, err := service.Submit(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if receipt.ID != 1 {
		t.Fatalf("expected id 1, got %d", receipt.ID)
	}

	want := domain.LogEntry{CreatedAt: fixedNow, Date: "2024-07-04"}
	if repo.entries[0] != want {
		t.Fatalf("unexpected defaults:\n got %+v\nwant %+v", repo.entries[0], want)
	}
	if len(repo.stops[0]) != 0 {
		t.Fatalf("expected no stops, got %d", len(repo.stops[0]))
	}
}

func TestSubmitNilPayloadBehavesLikeEmpty(t *testing.T) {
	repo := &stubLogRepo{}
	service := NewService(repo, WithClock(fixedClock))

	if _, err := service.Submit(context.Background(), nil); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if repo.entries[0].Date != "2024-07-04" {
		t.Fatalf("expected default date, got %q", repo.entries[0].Date)
	}
}

func TestSubmitCoercesFields(t *testing.T) {
	repo := &stubLogRepo{}
	service := NewService(repo, WithClock(fixedClock))

	payload := decodePayload(t, `{
		"date": "2024-06-30",
		"driver_name": "Ann",
		"truck": 42,
		"start_miles": "1000.5",
		"end_miles": 1100,
		"rate_per_mile": "n/a",
		"total_miles": true,
		"total_time": 8.5,
		"gross_pay": null,
		"created_at": "1999-01-01T00:00:00Z",
		"stops": [
			{"stop_num": "2", "type": "pickup", "value_hours": ""},
			{"stop_num": 1, "location": "Elevator", "value_hours": "1.25", "grain_phase": "loaded"},
			{"type": "delivery"},
			"garbage"
		]
	}`)

	if _, err := service.Submit(context.Background(), payload); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	entry := repo.entries[0]
	if entry.Date != "2024-06-30" || entry.DriverName != "Ann" || entry.Truck != "42" {
		t.Fatalf("unexpected text coercion: %+v", entry)
	}
	if entry.StartMiles != 1000.5 || entry.EndMiles != 1100 {
		t.Fatalf("unexpected miles: %v/%v", entry.StartMiles, entry.EndMiles)
	}
	if entry.RatePerMile != 0 || entry.GrossPay != 0 {
		t.Fatalf("non-numeric values should coerce to 0: %+v", entry)
	}
	if entry.TotalMiles != 1 {
		t.Fatalf("expected boolean true to coerce to 1, got %v", entry.TotalMiles)
	}
	if entry.TotalTime != "8.5" {
		t.Fatalf("expected number to coerce to text, got %q", entry.TotalTime)
	}
	if !entry.CreatedAt.Equal(fixedNow) {
		t.Fatalf("created_at must be server assigned, got %v", entry.CreatedAt)
	}

	stops := repo.stops[0]
	if len(stops) != 4 {
		t.Fatalf("expected 4 stops, got %d", len(stops))
	}
	if stops[0].StopNum != 2 || stops[0].ValueHours != nil {
		t.Fatalf("expected stop 2 with null value hours, got %+v", stops[0])
	}
	if stops[1].ValueHours == nil || *stops[1].ValueHours != 1.25 || stops[1].GrainPhase != "loaded" {
		t.Fatalf("unexpected stop 1: %+v", stops[1])
	}
	if stops[2].ValueHours == nil || *stops[2].ValueHours != 0 {
		t.Fatalf("absent value hours should be 0, got %v", stops[2].ValueHours)
	}
	if stops[3] != (domain.StopEntry{ValueHours: stops[3].ValueHours}) || *stops[3].ValueHours != 0 {
		t.Fatalf("non-object stop should become an empty stop, got %+v", stops[3])
	}
}

func TestSubmitIgnoresNonListStops(t *testing.T) {
	repo := &stubLogRepo{}
	service := NewService(repo, WithClock(fixedClock))

	for _, stops := range []any{"nope", map[string]any{"type": "x"}, 3.0} {
		if _, err := service.Submit(context.Background(), map[string]any{"stops": stops}); err != nil {
			t.Fatalf("submit returned error: %v", err)
		}
	}
	for i, s := range repo.stops {
		if len(s) != 0 {
			t.Fatalf("submission %d: expected no stops, got %d", i, len(s))
		}
	}
}

func TestSubmitKeepsInconsistentValues(t *testing.T) {
	repo := &stubLogRepo{}
	service := NewService(repo, WithClock(fixedClock), WithMode(ModeStrict))

	payload := map[string]any{"start_miles": 500.0, "end_miles": 100.0, "total_miles": -400.0}
	if _, err := service.Submit(context.Background(), payload); err != nil {
		t.Fatalf("range checks are not performed, got %v", err)
	}
	if repo.entries[0].TotalMiles != -400 {
		t.Fatalf("expected value to be stored as-is, got %v", repo.entries[0].TotalMiles)
	}
}

func TestSubmitStrictRejectsWrongTypes(t *testing.T) {
	repo := &stubLogRepo{}
	service := NewService(repo, WithClock(fixedClock), WithMode(ModeStrict))

	payload := decodePayload(t, `{"total_miles": "lots", "stops": [{"value_hours": ""}, {"value_hours": "x"}]}`)
	_, err := service.Submit(context.Background(), payload)
	if !errors.Is(err, ErrInvalidSubmission) {
		t.Fatalf("expected ErrInvalidSubmission, got %v", err)
	}

	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(invalid.Result.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", invalid.Result.Errors)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("rejected submission must not be stored")
	}
}

func TestSubmitPropagatesStorageErrors(t *testing.T) {
	storageErr := errors.New("disk full")
	service := NewService(&stubLogRepo{err: storageErr}, WithClock(fixedClock))

	_, err := service.Submit(context.Background(), map[string]any{})
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeLenient, "Lenient": ModeLenient, " strict ": ModeStrict}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMode("paranoid"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestSubmitPersistsToDatabase(t *testing.T) {
	cfg := db.DefaultConfig()
	cfg.BaseDir = filepath.Join(t.TempDir(), "store")
	conn, err := db.NewConnection(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	repo := repository.NewLogRepository(conn)
	service := NewService(repo, WithClock(fixedClock))

	payload := decodePayload(t, `{"driver_name": "Ann", "stops": [{"stop_num": 1, "value_hours": ""}, {"stop_num": 2}]}`)
	receipt, err := service.Submit(context.Background(), payload)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows, err := repo.ListStops(context.Background(), domain.LogFilter{}, domain.OrderOldestFirst)
	if err != nil {
		t.Fatalf("list stops: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(rows))
	}
	if rows[0].LogID != receipt.ID || rows[0].ValueHours != nil {
		t.Fatalf("expected first stop null value hours for log %d, got %+v", receipt.ID, rows[0])
	}
	if rows[1].ValueHours == nil || *rows[1].ValueHours != 0 {
		t.Fatalf("expected second stop value hours 0, got %v", rows[1].ValueHours)
	}

	logs, err := repo.ListLogs(context.Background(), domain.LogFilter{}, domain.OrderNewestFirst)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Date != "2024-07-04" || logs[0].GrossPay != 0 || logs[0].CCEmail != "" {
		t.Fatalf("unexpected stored log: %+v", logs)
	}
}

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rpattn/driverlog/internal/domain"
	"github.com/rpattn/driverlog/internal/repository"
	"github.com/rpattn/driverlog/pkg/validator"
)

// Mode selects how much input checking Submit performs.
type Mode string

const (
	// ModeLenient coerces every field to a safe default and never rejects.
	ModeLenient Mode = "lenient"
	// ModeStrict rejects payloads whose fields have the wrong JSON shape.
	ModeStrict Mode = "strict"
)

// ParseMode maps a configuration value to a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeLenient, "":
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown ingestion mode %q", raw)
	}
}

// ErrInvalidSubmission is returned in strict mode when a payload fails validation.
var ErrInvalidSubmission = errors.New("invalid submission")

// ValidationError carries the field-level problems of a rejected submission.
type ValidationError struct {
	Result validator.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSubmission, e.Result.Error())
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSubmission }

// Payload field names.
const (
	fieldDate            = "date"
	fieldDriverName      = "driver_name"
	fieldDriverEmail     = "driver_email"
	fieldCCEmail         = "cc_email"
	fieldTruck           = "truck"
	fieldStartMiles      = "start_miles"
	fieldEndMiles        = "end_miles"
	fieldStartTime       = "start_time"
	fieldEndTime         = "end_time"
	fieldRatePerMile     = "rate_per_mile"
	fieldRatePerHour     = "rate_per_hour"
	fieldTotalMiles      = "total_miles"
	fieldTotalTime       = "total_time"
	fieldTotalDetention  = "total_detention"
	fieldTotalValueHours = "total_value_hours"
	fieldGrossPay        = "gross_pay"
	fieldStops           = "stops"

	fieldStopNum    = "stop_num"
	fieldType       = "type"
	fieldLocation   = "location"
	fieldArrive     = "arrive"
	fieldDepart     = "depart"
	fieldDuration   = "duration"
	fieldDetention  = "detention"
	fieldValueHours = "value_hours"
	fieldGrainPhase = "grain_phase"
)

var stopDefinitions = map[string]validator.FieldDefinition{
	fieldStopNum:    {Type: validator.FieldTypeNumber},
	fieldType:       {Type: validator.FieldTypeText},
	fieldLocation:   {Type: validator.FieldTypeText},
	fieldArrive:     {Type: validator.FieldTypeText},
	fieldDepart:     {Type: validator.FieldTypeText},
	fieldDuration:   {Type: validator.FieldTypeText},
	fieldDetention:  {Type: validator.FieldTypeText},
	fieldValueHours: {Type: validator.FieldTypeNumber, AllowEmpty: true},
	fieldGrainPhase: {Type: validator.FieldTypeText},
}

var logDefinitions = map[string]validator.FieldDefinition{
	fieldDate:            {Type: validator.FieldTypeText},
	fieldDriverName:      {Type: validator.FieldTypeText},
	fieldDriverEmail:     {Type: validator.FieldTypeText},
	fieldCCEmail:         {Type: validator.FieldTypeText},
	fieldTruck:           {Type: validator.FieldTypeText},
	fieldStartMiles:      {Type: validator.FieldTypeNumber},
	fieldEndMiles:        {Type: validator.FieldTypeNumber},
	fieldStartTime:       {Type: validator.FieldTypeText},
	fieldEndTime:         {Type: validator.FieldTypeText},
	fieldRatePerMile:     {Type: validator.FieldTypeNumber},
	fieldRatePerHour:     {Type: validator.FieldTypeNumber},
	fieldTotalMiles:      {Type: validator.FieldTypeNumber},
	fieldTotalTime:       {Type: validator.FieldTypeText},
	fieldTotalDetention:  {Type: validator.FieldTypeText},
	fieldTotalValueHours: {Type: validator.FieldTypeNumber},
	fieldGrossPay:        {Type: validator.FieldTypeNumber},
	fieldStops:           {Type: validator.FieldTypeList, Items: stopDefinitions},
}

// Service persists driver log submissions.
type Service struct {
	repo      repository.LogRepository
	validator *validator.PayloadValidator
	mode      Mode
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMode selects lenient or strict handling of malformed fields.
func WithMode(mode Mode) Option {
	return func(s *Service) {
		if mode != "" {
			s.mode = mode
		}
	}
}

// WithClock overrides the time source used for created_at and the default date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new ingestion service.
func NewService(repo repository.LogRepository, opts ...Option) *Service {
	service := &Service{
		repo:      repo,
		validator: validator.NewPayloadValidator(),
		mode:      ModeLenient,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Mode reports the validation mode in effect.
func (s *Service) Mode() Mode {
	return s.mode
}

// Receipt identifies a persisted submission.
type Receipt struct {
	ID int64 `json:"id"`
}

// Submit coerces the payload into a log header plus stops and stores them
// in one transaction. Storage errors are returned unchanged in meaning.
func (s *Service) Submit(ctx context.Context, payload map[string]any) (Receipt, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	if s.mode == ModeStrict {
		result := s.validator.ValidateProperties(payload, logDefinitions)
		if !result.IsValid {
			return Receipt{}, &ValidationError{Result: result}
		}
	}

	entry, stops := ParseSubmission(payload, s.now())

	id, err := s.repo.Create(ctx, entry, stops)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to store log: %w", err)
	}

	log.Printf("[ingest] stored log %d for %q on %s with %d stops", id, entry.DriverName, entry.Date, len(stops))
	return Receipt{ID: id}, nil
}

// ParseSubmission applies the permissive coercion rules to a decoded payload.
func ParseSubmission(payload map[string]any, now time.Time) (domain.LogEntry, []domain.StopEntry) {
	entry := domain.NewLogEntry(domain.LogEntry{
		Date:            coerceText(payload[fieldDate]),
		DriverName:      coerceText(payload[fieldDriverName]),
		DriverEmail:     coerceText(payload[fieldDriverEmail]),
		CCEmail:         coerceText(payload[fieldCCEmail]),
		Truck:           coerceText(payload[fieldTruck]),
		StartMiles:      coerceNumber(payload[fieldStartMiles]),
		EndMiles:        coerceNumber(payload[fieldEndMiles]),
		StartTime:       coerceText(payload[fieldStartTime]),
		EndTime:         coerceText(payload[fieldEndTime]),
		RatePerMile:     coerceNumber(payload[fieldRatePerMile]),
		RatePerHour:     coerceNumber(payload[fieldRatePerHour]),
		TotalMiles:      coerceNumber(payload[fieldTotalMiles]),
		TotalTime:       coerceText(payload[fieldTotalTime]),
		TotalDetention:  coerceText(payload[fieldTotalDetention]),
		TotalValueHours: coerceNumber(payload[fieldTotalValueHours]),
		GrossPay:        coerceNumber(payload[fieldGrossPay]),
	}, now)

	objects := coerceObjects(payload[fieldStops])
	stops := make([]domain.StopEntry, 0, len(objects))
	for _, object := range objects {
		valueHours, present := object[fieldValueHours]
		stops = append(stops, domain.StopEntry{
			StopNum:    coerceInt(object[fieldStopNum]),
			Type:       coerceText(object[fieldType]),
			Location:   coerceText(object[fieldLocation]),
			Arrive:     coerceText(object[fieldArrive]),
			Depart:     coerceText(object[fieldDepart]),
			Duration:   coerceText(object[fieldDuration]),
			Detention:  coerceText(object[fieldDetention]),
			ValueHours: coerceNullableNumber(valueHours, present),
			GrainPhase: coerceText(object[fieldGrainPhase]),
		})
	}

	return entry, stops
}

package validation

import (
	"math"
	"time"

	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/domain"
)

// MaxGlucoseValue is the sanity ceiling for a reading in mg/dL. Meters
// top out well below this; anything above is an entry mistake.
const MaxGlucoseValue = 1000

// ReadingInput is a candidate reading before normalization.
type ReadingInput struct {
	Value       float64
	Timestamp   time.Time
	MealContext domain.MealContext
	Notes       string
}

// ValidateReading checks a candidate reading and returns a normalized
// domain.Reading, or a validation error naming the first failing field.
// A timestamp in the future is clamped to now rather than rejected, so a
// device with a skewed clock can still record.
func ValidateReading(in ReadingInput, now time.Time) (*domain.Reading, error) {
	if math.IsNaN(in.Value) || math.IsInf(in.Value, 0) {
		return nil, apperrors.NewValidationError("value", "glucose value must be a number")
	}
	if in.Value <= 0 {
		return nil, apperrors.NewValidationError("value", "glucose value must be positive")
	}
	if in.Value > MaxGlucoseValue {
		return nil, apperrors.NewValidationError("value", "glucose value is implausibly high")
	}

	ts := in.Timestamp
	if ts.IsZero() {
		return nil, apperrors.NewValidationError("timestamp", "timestamp is required")
	}
	if ts.After(now) {
		ts = now
	}

	if in.MealContext == "" {
		return nil, apperrors.NewValidationError("mealContext", "meal context is required")
	}
	if !domain.ValidMealContext(in.MealContext) {
		return nil, apperrors.NewValidationError("mealContext", "unknown meal context")
	}

	return &domain.Reading{
		Value:       in.Value,
		Timestamp:   ts,
		MealContext: in.MealContext,
		Notes:       in.Notes,
	}, nil
}

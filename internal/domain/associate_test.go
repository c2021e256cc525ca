package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/glucolog/internal/apperrors"
)

func dayUTC(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestAttachReading(t *testing.T) {
	reading := &Reading{ID: 10, UserID: 1}
	run := &Run{ID: 20, UserID: 1}

	require.NoError(t, AttachReading(reading, run))
	require.NotNil(t, reading.RunID)
	assert.Equal(t, uint(20), *reading.RunID)
}

func TestAttachReadingOwnerMismatch(t *testing.T) {
	reading := &Reading{ID: 10, UserID: 1}
	run := &Run{ID: 20, UserID: 2}

	err := AttachReading(reading, run)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeAuthorization, appErr.Type)
	assert.Nil(t, reading.RunID)
}

func TestAttachReadingIdempotent(t *testing.T) {
	reading := &Reading{ID: 10, UserID: 1}
	run := &Run{ID: 20, UserID: 1}

	require.NoError(t, AttachReading(reading, run))
	require.NoError(t, AttachReading(reading, run))
	assert.Equal(t, uint(20), *reading.RunID)
}

func TestAttachReadingMovesBetweenRuns(t *testing.T) {
	reading := &Reading{ID: 10, UserID: 1}
	first := &Run{ID: 20, UserID: 1}
	second := &Run{ID: 21, UserID: 1}

	require.NoError(t, AttachReading(reading, first))
	require.NoError(t, AttachReading(reading, second))
	assert.Equal(t, uint(21), *reading.RunID, "last write wins")
}

func TestDetachReading(t *testing.T) {
	id := uint(20)
	reading := &Reading{ID: 10, UserID: 1, RunID: &id}

	DetachReading(reading)
	assert.Nil(t, reading.RunID)

	DetachReading(reading) // no-op on a detached reading
	assert.Nil(t, reading.RunID)
}

func TestAttachRun(t *testing.T) {
	run := &Run{ID: 20, UserID: 1}
	month := &Month{ID: 30, UserID: 1}

	require.NoError(t, AttachRun(run, month))
	require.NotNil(t, run.MonthID)
	assert.Equal(t, uint(30), *run.MonthID)

	other := &Month{ID: 31, UserID: 2}
	err := AttachRun(run, other)
	require.Error(t, err)
	assert.Equal(t, uint(30), *run.MonthID, "failed attach leaves the association untouched")
}

func TestValidMealContext(t *testing.T) {
	assert.True(t, ValidMealContext(MealFasting))
	assert.True(t, ValidMealContext(MealAfterDinner))
	assert.False(t, ValidMealContext("brunch"))
	assert.False(t, ValidMealContext(""))
}

func TestRunDurationDays(t *testing.T) {
	start := Run{StartDate: dayUTC(2024, 3, 1), EndDate: dayUTC(2024, 3, 6)}
	assert.InDelta(t, 5.0, start.DurationDays(), 1e-9)

	sameDay := Run{StartDate: dayUTC(2024, 3, 1), EndDate: dayUTC(2024, 3, 1)}
	assert.InDelta(t, 1.0, sameDay.DurationDays(), 1e-9)
}

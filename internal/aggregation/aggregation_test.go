package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/glucolog/internal/domain"
)

func readingsWithValues(values ...float64) []domain.Reading {
	readings := make([]domain.Reading, 0, len(values))
	for _, v := range values {
		readings = append(readings, domain.Reading{Value: v, Timestamp: time.Now()})
	}
	return readings
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Equal(t, 0, stats.ReadingCount)
	assert.Nil(t, stats.AverageGlucose)
	assert.Nil(t, stats.A1CEstimate)
	assert.Zero(t, stats.TimeInRangePct)
	assert.Zero(t, stats.Distribution.NormalPct)
}

func TestComputeStatsAverageAndA1C(t *testing.T) {
	stats := ComputeStats(readingsWithValues(100, 120, 140, 110, 130, 115, 125))

	require.NotNil(t, stats.AverageGlucose)
	assert.InDelta(t, 120.0, *stats.AverageGlucose, 1e-9)

	require.NotNil(t, stats.A1CEstimate)
	assert.InDelta(t, (120.0+46.7)/28.7, *stats.A1CEstimate, 1e-9)
	assert.InDelta(t, 5.81, *stats.A1CEstimate, 0.01)
}

func TestComputeStatsA1CThreshold(t *testing.T) {
	six := ComputeStats(readingsWithValues(100, 120, 140, 110, 130, 115))
	require.NotNil(t, six.AverageGlucose)
	assert.Nil(t, six.A1CEstimate, "six readings are below the sample threshold")

	seven := ComputeStats(readingsWithValues(100, 120, 140, 110, 130, 115, 125))
	assert.NotNil(t, seven.A1CEstimate)
}

func TestComputeStatsTimeInRange(t *testing.T) {
	stats := ComputeStats(readingsWithValues(60, 90, 150, 200))

	assert.InDelta(t, 25.0, stats.TimeInRangePct, 1e-9)
}

func TestDistributionBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		bucket func(Distribution) int
	}{
		{"69 is low", 69, func(d Distribution) int { return d.LowCount }},
		{"70 is normal", 70, func(d Distribution) int { return d.NormalCount }},
		{"140 is normal", 140, func(d Distribution) int { return d.NormalCount }},
		{"141 is high", 141, func(d Distribution) int { return d.HighCount }},
		{"180 is high", 180, func(d Distribution) int { return d.HighCount }},
		{"181 is very high", 181, func(d Distribution) int { return d.VeryHighCount }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := ComputeStats(readingsWithValues(tt.value))
			assert.Equal(t, 1, tt.bucket(stats.Distribution))
		})
	}
}

func TestDistributionPercentages(t *testing.T) {
	stats := ComputeStats(readingsWithValues(60, 90, 150, 200))

	assert.Equal(t, 1, stats.Distribution.LowCount)
	assert.Equal(t, 1, stats.Distribution.NormalCount)
	assert.Equal(t, 1, stats.Distribution.HighCount)
	assert.Equal(t, 1, stats.Distribution.VeryHighCount)
	assert.InDelta(t, 25.0, stats.Distribution.LowPct, 1e-9)
	assert.InDelta(t, 25.0, stats.Distribution.VeryHighPct, 1e-9)
}

func runWithAverage(avg float64, days int) domain.Run {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.Run{
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, days),
		AverageGlucose: &avg,
	}
}

func TestComputeMonthStatsWeighted(t *testing.T) {
	runs := []domain.Run{
		runWithAverage(100, 5),
		runWithAverage(140, 1),
	}

	weighted := ComputeMonthStats(runs, true)
	require.NotNil(t, weighted.AverageGlucose)
	assert.InDelta(t, (100*5.0+140*1.0)/6.0, *weighted.AverageGlucose, 1e-9)

	unweighted := ComputeMonthStats(runs, false)
	require.NotNil(t, unweighted.AverageGlucose)
	assert.InDelta(t, 120.0, *unweighted.AverageGlucose, 1e-9)
}

func TestComputeMonthStatsSkipsRunsWithoutAverage(t *testing.T) {
	runs := []domain.Run{
		runWithAverage(110, 3),
		{StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 10)}, // no cached average
	}

	stats := ComputeMonthStats(runs, true)
	require.NotNil(t, stats.AverageGlucose)
	assert.InDelta(t, 110.0, *stats.AverageGlucose, 1e-9)
	assert.Equal(t, 2, stats.RunCount)
}

func TestComputeMonthStatsEmpty(t *testing.T) {
	stats := ComputeMonthStats(nil, true)

	assert.Nil(t, stats.AverageGlucose)
	assert.Nil(t, stats.A1CEstimate)
}

// Package aggregation computes derived glucose statistics. Every
// function here is a pure function of its input collection; callers own
// fetching the readings and persisting any cached results.
package aggregation

import (
	"github.com/glucolog/glucolog/internal/domain"
)

// MinReadingsForA1C is the minimum sample size before an A1C estimate
// is reported. Below it the estimate is more misleading than useful.
const MinReadingsForA1C = 7

// Range boundaries in mg/dL.
const (
	lowThreshold    = 70
	normalThreshold = 140
	highThreshold   = 180
)

// Distribution holds per-bucket counts and percentages of a reading set.
type Distribution struct {
	LowCount      int
	NormalCount   int
	HighCount     int
	VeryHighCount int

	LowPct      float64
	NormalPct   float64
	HighPct     float64
	VeryHighPct float64
}

// Stats is the result of aggregating a set of readings. AverageGlucose
// and A1CEstimate are nil when there is no data or, for the A1C, when
// the sample is below MinReadingsForA1C.
type Stats struct {
	ReadingCount   int
	AverageGlucose *float64
	A1CEstimate    *float64
	TimeInRangePct float64
	Distribution   Distribution
}

// ComputeStats aggregates a collection of readings. An empty collection
// yields zero counts and nil averages, never a division by zero.
func ComputeStats(readings []domain.Reading) Stats {
	stats := Stats{ReadingCount: len(readings)}
	if len(readings) == 0 {
		return stats
	}

	var sum float64
	inRange := 0
	for _, r := range readings {
		sum += r.Value
		switch {
		case r.Value < lowThreshold:
			stats.Distribution.LowCount++
		case r.Value <= normalThreshold:
			stats.Distribution.NormalCount++
			inRange++
		case r.Value <= highThreshold:
			stats.Distribution.HighCount++
		default:
			stats.Distribution.VeryHighCount++
		}
	}

	avg := sum / float64(len(readings))
	stats.AverageGlucose = &avg
	stats.TimeInRangePct = float64(inRange) / float64(len(readings)) * 100

	total := float64(len(readings))
	stats.Distribution.LowPct = float64(stats.Distribution.LowCount) / total * 100
	stats.Distribution.NormalPct = float64(stats.Distribution.NormalCount) / total * 100
	stats.Distribution.HighPct = float64(stats.Distribution.HighCount) / total * 100
	stats.Distribution.VeryHighPct = float64(stats.Distribution.VeryHighCount) / total * 100

	if len(readings) >= MinReadingsForA1C {
		a1c := EstimateA1C(avg)
		stats.A1CEstimate = &a1c
	}

	return stats
}

// EstimateA1C converts an average glucose in mg/dL to an estimated A1C
// percentage using the ADAG linear approximation.
func EstimateA1C(averageGlucose float64) float64 {
	return (averageGlucose + 46.7) / 28.7
}

// MonthStats is the aggregate over a month's runs.
type MonthStats struct {
	RunCount       int
	AverageGlucose *float64
	A1CEstimate    *float64
}

// ComputeMonthStats averages the cached per-run averages of a month.
// Runs without a computed average are skipped. In weighted mode each
// run contributes proportionally to its duration in days; otherwise all
// runs count equally. The A1C estimate is derived from the combined
// average whenever at least one run contributed.
func ComputeMonthStats(runs []domain.Run, weighted bool) MonthStats {
	stats := MonthStats{RunCount: len(runs)}

	var sum, weightSum float64
	contributed := 0
	for _, run := range runs {
		if run.AverageGlucose == nil {
			continue
		}
		w := 1.0
		if weighted {
			w = run.DurationDays()
		}
		sum += *run.AverageGlucose * w
		weightSum += w
		contributed++
	}
	if contributed == 0 {
		return stats
	}

	avg := sum / weightSum
	a1c := EstimateA1C(avg)
	stats.AverageGlucose = &avg
	stats.A1CEstimate = &a1c
	return stats
}

package dataset

import (
	"cmp"
	"math"
	"slices"

	"github.com/nvandessel/photolab/internal/constants"
)

// sortedByVoltage returns a copy of points stably ordered by ascending voltage.
func sortedByVoltage(points []DataPoint) []DataPoint {
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b DataPoint) int {
		return cmp.Compare(a.VoltageV, b.VoltageV)
	})
	return sorted
}

// ThresholdVoltage returns the lowest voltage at which the current exceeds
// epsilon. It reports false when fewer than two points are given or no
// point carries current.
func ThresholdVoltage(points []DataPoint, epsilon float64) (float64, bool) {
	if len(points) < constants.MinThresholdPoints {
		return 0, false
	}
	for _, p := range sortedByVoltage(points) {
		if p.CurrentNa > epsilon {
			return p.VoltageV, true
		}
	}
	return 0, false
}

// Correlation returns the Pearson correlation of current against voltage.
// It reports false unless more than two points are given. A data set with no
// spread in either variable has correlation 0.
func Correlation(points []DataPoint) (float64, bool) {
	n := len(points)
	if n <= constants.MinCorrelationPoints {
		return 0, false
	}

	sorted := sortedByVoltage(points)
	var sumX, sumY float64
	constX, constY := true, true
	for _, p := range sorted {
		sumX += p.VoltageV
		sumY += p.CurrentNa
		constX = constX && p.VoltageV == sorted[0].VoltageV
		constY = constY && p.CurrentNa == sorted[0].CurrentNa
	}
	if constX || constY {
		return 0, true
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxy, sxx, syy float64
	for _, p := range sorted {
		dx := p.VoltageV - meanX
		dy := p.CurrentNa - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	denom := math.Sqrt(sxx * syy)
	if denom == 0 || math.IsNaN(denom) {
		return 0, true
	}
	r := sxy / denom
	return math.Max(-1, math.Min(1, r)), true
}

// Summary is the derived-statistics view of a data set snapshot.
type Summary struct {
	Points            int      `json:"points"`
	Groups            int      `json:"groups"`
	ThresholdVoltageV *float64 `json:"threshold_voltage,omitempty"`
	Correlation       *float64 `json:"correlation,omitempty"`
}

// Summarize computes the summary of points with the given current epsilon.
func Summarize(points []DataPoint, epsilon float64) Summary {
	s := Summary{
		Points: len(points),
		Groups: len(GroupPoints(points)),
	}
	if v, ok := ThresholdVoltage(points, epsilon); ok {
		s.ThresholdVoltageV = &v
	}
	if r, ok := Correlation(points); ok {
		s.Correlation = &r
	}
	return s
}

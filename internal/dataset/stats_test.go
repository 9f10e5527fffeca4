package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/photolab/internal/constants"
)

func vi(pairs ...[2]float64) []DataPoint {
	out := make([]DataPoint, len(pairs))
	for i, p := range pairs {
		out[i] = point("Cesium", 400, p[0], p[1])
	}
	return out
}

func TestThresholdVoltage(t *testing.T) {
	tests := []struct {
		name   string
		points []DataPoint
		want   float64
		wantOK bool
	}{
		{"first above epsilon", vi([2]float64{-1, 0}, [2]float64{0, 0.02}, [2]float64{1, 0.08}), 0, true},
		{"unsorted input", vi([2]float64{1, 0.08}, [2]float64{-1, 0}, [2]float64{0.5, 0.02}), 0.5, true},
		{"epsilon is exclusive", vi([2]float64{-1, 0.01}, [2]float64{0, 0.011}), 0, true},
		{"no current", vi([2]float64{-1, 0}, [2]float64{0, 0.005}), 0, false},
		{"single point", vi([2]float64{0, 1}), 0, false},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ThresholdVoltage(tt.points, constants.DefaultCurrentEpsilon)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThresholdVoltage_DoesNotReorderInput(t *testing.T) {
	points := vi([2]float64{1, 0.08}, [2]float64{-1, 0})
	_, _ = ThresholdVoltage(points, 0.01)
	assert.Equal(t, 1.0, points[0].VoltageV)
}

func TestCorrelation(t *testing.T) {
	linear := make([]DataPoint, 0, 10)
	anti := make([]DataPoint, 0, 10)
	flat := make([]DataPoint, 0, 10)
	for i := range 10 {
		v := float64(i)*0.1 - 0.5
		linear = append(linear, point("Cesium", 400, v, 0.2*v+1))
		anti = append(anti, point("Cesium", 400, v, 3-0.4*v))
		flat = append(flat, point("Cesium", 400, v, 0.1))
	}

	r, ok := Correlation(linear)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	r, ok = Correlation(anti)
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-9)

	r, ok = Correlation(flat)
	require.True(t, ok)
	assert.Equal(t, 0.0, r)

	sameV := vi([2]float64{1, 0.1}, [2]float64{1, 0.2}, [2]float64{1, 0.3})
	r, ok = Correlation(sameV)
	require.True(t, ok)
	assert.Equal(t, 0.0, r)
}

func TestCorrelation_NeedsMoreThanTwoPoints(t *testing.T) {
	_, ok := Correlation(vi([2]float64{0, 0}, [2]float64{1, 1}))
	assert.False(t, ok)
	_, ok = Correlation(nil)
	assert.False(t, ok)
}

func TestCorrelation_Bounded(t *testing.T) {
	points := vi([2]float64{-2, 0}, [2]float64{-1, 0.05}, [2]float64{0, 0.3}, [2]float64{1, 0.5}, [2]float64{2, 0.5})
	r, ok := Correlation(points)
	require.True(t, ok)
	assert.GreaterOrEqual(t, r, -1.0)
	assert.LessOrEqual(t, r, 1.0)
	assert.Greater(t, r, 0.0)
}

func TestSummarize(t *testing.T) {
	points := vi([2]float64{-1, 0}, [2]float64{0, 0.02}, [2]float64{1, 0.08})
	points = append(points, point("Sodium", 300, 0, 0.3))

	s := Summarize(points, constants.DefaultCurrentEpsilon)
	assert.Equal(t, 4, s.Points)
	assert.Equal(t, 2, s.Groups)
	require.NotNil(t, s.ThresholdVoltageV)
	assert.Equal(t, 0.0, *s.ThresholdVoltageV)
	require.NotNil(t, s.Correlation)

	empty := Summarize(nil, constants.DefaultCurrentEpsilon)
	assert.Zero(t, empty.Points)
	assert.Nil(t, empty.ThresholdVoltageV)
	assert.Nil(t, empty.Correlation)
}

package dataset

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(material string, wl, v, i float64) DataPoint {
	return DataPoint{
		VoltageV:        v,
		CurrentNa:       i,
		ErrorNa:         0.001,
		WavelengthNm:    wl,
		IntensityUwCm2:  5,
		Material:        material,
		Timestamp:       time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		RawMeasurements: []float64{i, i},
	}
}

func TestGroupKey_Format(t *testing.T) {
	tests := []struct {
		key       GroupKey
		wantKey   string
		wantLabel string
	}{
		{GroupKey{"Cesium", 400}, "Cesium_400nm", "Cesium (400nm)"},
		{GroupKey{"Sodium", 452.5}, "Sodium_452.5nm", "Sodium (452.5nm)"},
	}
	for _, tt := range tests {
		t.Run(tt.wantKey, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.key.String())
			assert.Equal(t, tt.wantLabel, tt.key.Label())
		})
	}
}

func TestDataPoint_TimestampISO(t *testing.T) {
	p := point("Cesium", 400, 0, 0.1)
	assert.Equal(t, "2026-03-14T09:26:53.589Z", p.TimestampISO())

	parsed, err := ParseTimestamp(p.TimestampISO())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(p.Timestamp))
}

func TestDataPoint_CloneIsDeep(t *testing.T) {
	p := point("Cesium", 400, 0, 0.1)
	c := p.Clone()
	c.RawMeasurements[0] = 42
	assert.Equal(t, 0.1, p.RawMeasurements[0])
}

func TestGroupPoints_FirstAppearanceOrder(t *testing.T) {
	points := []DataPoint{
		point("Sodium", 400, 0, 0.1),
		point("Cesium", 400, 0, 0.2),
		point("Sodium", 400, 1, 0.3),
		point("Sodium", 300, 1, 0.4),
		point("Cesium", 400, 1, 0.5),
	}

	groups := GroupPoints(points)
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key.String())
	}
	want := []string{"Sodium_400nm", "Cesium_400nm", "Sodium_300nm"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, groups[0].Points, 2)
	assert.Equal(t, 0.1, groups[0].Points[0].CurrentNa)
	assert.Equal(t, 0.3, groups[0].Points[1].CurrentNa)
	assert.Equal(t, "Cesium (400nm)", groups[1].Label)
}

func TestFilterGroup(t *testing.T) {
	points := []DataPoint{
		point("Sodium", 400, 0, 0.1),
		point("Cesium", 400, 0, 0.2),
		point("Sodium", 400, 1, 0.3),
	}
	got := FilterGroup(points, GroupKey{"Sodium", 400})
	require.Len(t, got, 2)
	assert.Equal(t, 0.3, got[1].CurrentNa)

	assert.Empty(t, FilterGroup(points, GroupKey{"Gold", 400}))
}

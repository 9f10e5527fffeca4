// Package dataset holds the ordered, append-only record of data points taken
// during a measurement session, and the statistics derived from it.
package dataset

import (
	"slices"
	"strconv"
	"time"
)

// isoLayout matches the millisecond ISO-8601 form used in exports.
const isoLayout = "2006-01-02T15:04:05.000Z"

// DataPoint is one recorded measurement. It is immutable once created:
// stores hand out copies, never the backing slice.
type DataPoint struct {
	ID              string    `json:"id"`
	VoltageV        float64   `json:"voltage"`
	CurrentNa       float64   `json:"current"`
	ErrorNa         float64   `json:"error"`
	WavelengthNm    float64   `json:"wavelength"`
	IntensityUwCm2  float64   `json:"intensity"`
	Material        string    `json:"material"`
	Timestamp       time.Time `json:"timestamp"`
	RawMeasurements []float64 `json:"raw_measurements"`
}

// TimestampISO returns the timestamp in UTC ISO-8601 with milliseconds.
func (p DataPoint) TimestampISO() string {
	return p.Timestamp.UTC().Format(isoLayout)
}

// Key returns the grouping key of the point.
func (p DataPoint) Key() GroupKey {
	return GroupKey{Material: p.Material, WavelengthNm: p.WavelengthNm}
}

// Clone returns a deep copy of p.
func (p DataPoint) Clone() DataPoint {
	p.RawMeasurements = slices.Clone(p.RawMeasurements)
	if p.RawMeasurements == nil {
		p.RawMeasurements = []float64{}
	}
	return p
}

// ParseTimestamp parses a timestamp written by TimestampISO. RFC 3339 with
// any fractional precision is also accepted.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// GroupKey is the composite (material, wavelength) key that identifies one
// curve of the I-V plot.
type GroupKey struct {
	Material     string  `json:"material"`
	WavelengthNm float64 `json:"wavelength"`
}

// String returns the key in "<material>_<wavelength>nm" form.
func (k GroupKey) String() string {
	return k.Material + "_" + formatWavelength(k.WavelengthNm) + "nm"
}

// Label returns the human readable series label, e.g. "Cesium (400nm)".
func (k GroupKey) Label() string {
	return k.Material + " (" + formatWavelength(k.WavelengthNm) + "nm)"
}

func formatWavelength(nm float64) string {
	return strconv.FormatFloat(nm, 'f', -1, 64)
}

// Group is the ordered subset of points sharing one key.
type Group struct {
	Key    GroupKey    `json:"key"`
	Label  string      `json:"label"`
	Points []DataPoint `json:"points"`
}

// GroupPoints partitions points by key. Groups appear in order of their
// first point, and points keep their relative order within a group.
func GroupPoints(points []DataPoint) []Group {
	index := make(map[GroupKey]int)
	var groups []Group
	for _, p := range points {
		k := p.Key()
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Label: k.Label()})
		}
		groups[i].Points = append(groups[i].Points, p)
	}
	return groups
}

// FilterGroup returns the points of points that carry key, in order.
func FilterGroup(points []DataPoint, key GroupKey) []DataPoint {
	out := make([]DataPoint, 0)
	for _, p := range points {
		if p.Key() == key {
			out = append(out, p)
		}
	}
	return out
}

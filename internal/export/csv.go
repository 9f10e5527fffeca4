// Package export writes the session data set in the documented CSV shape and
// reads such files back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/physics"
)

// ErrEmptyDataset is returned when there is nothing to export.
var ErrEmptyDataset = errors.New("no data to export")

// ErrMalformed is returned by Read for rows that do not match the header.
var ErrMalformed = errors.New("malformed export")

// Header is the column row of an export.
var Header = []string{
	"Timestamp",
	"Material",
	"Work_Function_eV",
	"Wavelength_nm",
	"Photon_Energy_eV",
	"Intensity_uW_per_cm2",
	"Applied_Voltage_V",
	"Photocurrent_nA",
	"Standard_Error_nA",
	"Measurement_Rounds",
	"Raw_Measurements",
}

// Decimal places written per column.
const (
	precWorkFunction = 6
	precWavelength   = 1
	precPhotonEnergy = 8
	precIntensity    = 3
	precVoltage      = 6
	precCurrent      = 8
	precError        = 8
	precRaw          = 8
)

const (
	rawSeparator = ";"
	isoLayout    = "2006-01-02T15:04:05.000Z"
)

// Metadata is written as a trailing comment block.
type Metadata struct {
	ExportedAt time.Time
	Constants  physics.Constants
	NoiseLevel float64
}

// Filename returns the default export file name for the date of t.
func Filename(t time.Time) string {
	return "photoelectric_data_" + t.UTC().Format("2006-01-02") + ".csv"
}

func ftoa(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// number formats v in shortest form, switching to exponent notation only
// below 1e-6 or from 1e21 up, with no zero padding in the exponent.
func number(v float64) string {
	if a := math.Abs(v); a != 0 && (a < 1e-6 || a >= 1e21) {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write writes header, one row per point and the metadata block to w.
func Write(w io.Writer, points []dataset.DataPoint, meta Metadata) error {
	if len(points) == 0 {
		return ErrEmptyDataset
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, p := range points {
		_, m, err := physics.LookupMaterial(p.Material)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}

		raw := make([]string, len(p.RawMeasurements))
		for j, v := range p.RawMeasurements {
			raw[j] = ftoa(v, precRaw)
		}

		row := []string{
			p.TimestampISO(),
			p.Material,
			ftoa(m.WorkFunctionEv, precWorkFunction),
			ftoa(p.WavelengthNm, precWavelength),
			ftoa(physics.PhotonEnergyEv(p.WavelengthNm), precPhotonEnergy),
			ftoa(p.IntensityUwCm2, precIntensity),
			ftoa(p.VoltageV, precVoltage),
			ftoa(p.CurrentNa, precCurrent),
			ftoa(p.ErrorNa, precError),
			strconv.Itoa(len(p.RawMeasurements)),
			strings.Join(raw, rawSeparator),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing rows: %w", err)
	}

	c := meta.Constants
	_, err := fmt.Fprintf(w, "\n# Metadata\n"+
		"# Export Date: %s\n"+
		"# Physics Constants Used:\n"+
		"# Planck constant: %s eV·s\n"+
		"# Speed of light: %s m/s\n"+
		"# Elementary charge: %s C\n"+
		"# hc product: %s eV·m\n"+
		"# Noise level: %s\n",
		meta.ExportedAt.UTC().Format(isoLayout),
		number(c.PlanckEvS), number(c.SpeedOfLightMps), number(c.ElementaryChargeC), number(c.HcEvM),
		number(meta.NoiseLevel))
	if err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// WriteFile writes the export to path, creating or truncating it. The file is
// not created when points is empty.
func WriteFile(path string, points []dataset.DataPoint, meta Metadata) error {
	if len(points) == 0 {
		return ErrEmptyDataset
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := Write(f, points, meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Record is one parsed export row.
type Record struct {
	Timestamp       time.Time
	Material        string
	WorkFunctionEv  float64
	WavelengthNm    float64
	PhotonEnergyEv  float64
	IntensityUwCm2  float64
	VoltageV        float64
	CurrentNa       float64
	ErrorNa         float64
	Rounds          int
	RawMeasurements []float64
}

// DataPoint converts r back into a data point. The ID is left empty.
func (r Record) DataPoint() dataset.DataPoint {
	return dataset.DataPoint{
		VoltageV:        r.VoltageV,
		CurrentNa:       r.CurrentNa,
		ErrorNa:         r.ErrorNa,
		WavelengthNm:    r.WavelengthNm,
		IntensityUwCm2:  r.IntensityUwCm2,
		Material:        r.Material,
		Timestamp:       r.Timestamp,
		RawMeasurements: r.RawMeasurements,
	}
}

// Read parses an export. Comment lines and blank lines are skipped.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformed, i+1, header[i], col)
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrMalformed, line-1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadPoints parses an export into data points.
func ReadPoints(r io.Reader) ([]dataset.DataPoint, error) {
	recs, err := Read(r)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.DataPoint, len(recs))
	for i, rec := range recs {
		out[i] = rec.DataPoint()
	}
	return out, nil
}

func parseRow(row []string) (Record, error) {
	var (
		rec Record
		err error
	)
	if rec.Timestamp, err = dataset.ParseTimestamp(row[0]); err != nil {
		return rec, fmt.Errorf("timestamp: %w", err)
	}
	rec.Material = row[1]

	floats := []struct {
		name string
		dst  *float64
		src  string
	}{
		{"work function", &rec.WorkFunctionEv, row[2]},
		{"wavelength", &rec.WavelengthNm, row[3]},
		{"photon energy", &rec.PhotonEnergyEv, row[4]},
		{"intensity", &rec.IntensityUwCm2, row[5]},
		{"voltage", &rec.VoltageV, row[6]},
		{"current", &rec.CurrentNa, row[7]},
		{"error", &rec.ErrorNa, row[8]},
	}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(f.src, 64); err != nil {
			return rec, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if rec.Rounds, err = strconv.Atoi(row[9]); err != nil {
		return rec, fmt.Errorf("rounds: %w", err)
	}

	rec.RawMeasurements = make([]float64, 0, rec.Rounds)
	if row[10] != "" {
		for _, s := range strings.Split(row[10], rawSeparator) {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return rec, fmt.Errorf("raw measurement: %w", err)
			}
			rec.RawMeasurements = append(rec.RawMeasurements, v)
		}
	}
	if len(rec.RawMeasurements) != rec.Rounds {
		return rec, fmt.Errorf("rounds column says %d, found %d raw measurements", rec.Rounds, len(rec.RawMeasurements))
	}
	return rec, nil
}

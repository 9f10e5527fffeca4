// Package experiment owns the mutable state of one measurement session:
// the experiment parameters, the data set and the busy guard that keeps at
// most one measurement in flight.
package experiment

import (
	"fmt"
	"math"

	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/measure"
	"github.com/nvandessel/photolab/internal/physics"
)

// NoMaterial is the material index of a session with nothing selected.
const NoMaterial = -1

// Parameters are the user-controlled settings of the bench.
type Parameters struct {
	MaterialIndex     int     `json:"material_index" yaml:"material_index"`
	WavelengthNm      float64 `json:"wavelength_nm" yaml:"wavelength_nm"`
	IntensityUwCm2    float64 `json:"intensity_uw_cm2" yaml:"intensity_uw_cm2"`
	VoltageV          float64 `json:"voltage_v" yaml:"voltage_v"`
	MeasurementRounds int     `json:"measurement_rounds" yaml:"measurement_rounds"`
	NoiseLevel        float64 `json:"noise_level" yaml:"noise_level"`
}

// DefaultParameters returns the state of a fresh bench.
func DefaultParameters() Parameters {
	return Parameters{
		MaterialIndex:     constants.DefaultMaterialIndex,
		WavelengthNm:      constants.DefaultWavelengthNm,
		IntensityUwCm2:    constants.DefaultIntensityUwCm2,
		VoltageV:          constants.DefaultVoltageV,
		MeasurementRounds: constants.DefaultMeasurementRounds,
		NoiseLevel:        constants.DefaultNoiseLevel,
	}
}

// Material returns the selected material, or false when none is selected.
func (p Parameters) Material() (physics.Material, bool) {
	if p.MaterialIndex == NoMaterial {
		return physics.Material{}, false
	}
	m, err := physics.MaterialAt(p.MaterialIndex)
	if err != nil {
		return physics.Material{}, false
	}
	return m, true
}

// Validate checks every parameter. A missing material is not a validation
// failure; it is reported by the operations that need one.
func (p Parameters) Validate() error {
	if p.MaterialIndex != NoMaterial && (p.MaterialIndex < 0 || p.MaterialIndex >= physics.CatalogSize()) {
		return &ParameterError{Field: "material_index", Value: p.MaterialIndex,
			Reason: "not in the material catalog"}
	}
	if !(p.WavelengthNm > 0) || math.IsInf(p.WavelengthNm, 0) {
		return &ParameterError{Field: "wavelength", Value: p.WavelengthNm, Reason: "must be positive"}
	}
	if !(p.IntensityUwCm2 > 0) || math.IsInf(p.IntensityUwCm2, 0) {
		return &ParameterError{Field: "intensity", Value: p.IntensityUwCm2, Reason: "must be positive"}
	}
	if math.IsNaN(p.VoltageV) || math.IsInf(p.VoltageV, 0) {
		return &ParameterError{Field: "voltage", Value: p.VoltageV, Reason: "must be finite"}
	}
	if p.MeasurementRounds < 1 {
		return &ParameterError{Field: "measurement_rounds", Value: p.MeasurementRounds, Reason: "must be at least 1"}
	}
	if p.MeasurementRounds > constants.MaxMeasurementRounds {
		return &ParameterError{Field: "measurement_rounds", Value: p.MeasurementRounds,
			Reason: fmt.Sprintf("must be at most %d", constants.MaxMeasurementRounds)}
	}
	if !(p.NoiseLevel >= 0 && p.NoiseLevel < 1) {
		return &ParameterError{Field: "noise_level", Value: p.NoiseLevel, Reason: "must be in [0, 1)"}
	}
	return nil
}

// conditions checks the precondition and the parameters, in that order, and
// returns the sampling conditions they describe.
func (p Parameters) conditions(op string) (measure.Conditions, error) {
	m, ok := p.Material()
	if !ok && p.MaterialIndex == NoMaterial {
		return measure.Conditions{}, noMaterial(op)
	}
	if err := p.Validate(); err != nil {
		return measure.Conditions{}, err
	}
	return measure.Conditions{
		Material:       m,
		WavelengthNm:   p.WavelengthNm,
		IntensityUwCm2: p.IntensityUwCm2,
		NoiseLevel:     p.NoiseLevel,
	}, nil
}

// Readout is the set of quantities recomputed from the parameters on demand.
type Readout struct {
	Material              string  `json:"material,omitempty"`
	Symbol                string  `json:"symbol,omitempty"`
	ThresholdWavelengthNm float64 `json:"threshold_wavelength_nm,omitempty"`
	IntensityUwCm2        float64 `json:"intensity_uw_cm2"`
	VoltageV              float64 `json:"voltage_v"`
	Emits                 bool    `json:"emits"`
	physics.Emission
}

// Readout computes the current parameter readout. With no material selected
// the photon energy is still reported and the material quantities are zero.
func (p Parameters) Readout() (Readout, error) {
	if err := p.Validate(); err != nil {
		return Readout{}, err
	}
	r := Readout{
		IntensityUwCm2: p.IntensityUwCm2,
		VoltageV:       p.VoltageV,
	}
	m, ok := p.Material()
	if !ok {
		r.Emission = physics.Emission{
			WavelengthNm:   p.WavelengthNm,
			PhotonEnergyEv: physics.PhotonEnergyEv(p.WavelengthNm),
			Band:           physics.BandOf(p.WavelengthNm),
		}
		return r, nil
	}
	r.Material = m.Name
	r.Symbol = m.Symbol
	r.ThresholdWavelengthNm = m.ThresholdWavelengthNm()
	r.Emission = physics.NewEmission(p.WavelengthNm, m.WorkFunctionEv)
	r.Emits = r.Emission.Emits()
	return r, nil
}

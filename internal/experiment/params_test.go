package experiment

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/physics"
)

func TestParameters_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Parameters)
		wantField string
	}{
		{"defaults", func(*Parameters) {}, ""},
		{"no material is valid", func(p *Parameters) { p.MaterialIndex = NoMaterial }, ""},
		{"unknown material", func(p *Parameters) { p.MaterialIndex = 7 }, "material_index"},
		{"negative material", func(p *Parameters) { p.MaterialIndex = -2 }, "material_index"},
		{"zero wavelength", func(p *Parameters) { p.WavelengthNm = 0 }, "wavelength"},
		{"negative wavelength", func(p *Parameters) { p.WavelengthNm = -400 }, "wavelength"},
		{"nan wavelength", func(p *Parameters) { p.WavelengthNm = math.NaN() }, "wavelength"},
		{"wavelength outside slider range", func(p *Parameters) { p.WavelengthNm = 1500 }, ""},
		{"zero intensity", func(p *Parameters) { p.IntensityUwCm2 = 0 }, "intensity"},
		{"infinite voltage", func(p *Parameters) { p.VoltageV = math.Inf(-1) }, "voltage"},
		{"zero rounds", func(p *Parameters) { p.MeasurementRounds = 0 }, "measurement_rounds"},
		{"single round", func(p *Parameters) { p.MeasurementRounds = 1 }, ""},
		{"maximum rounds", func(p *Parameters) { p.MeasurementRounds = constants.MaxMeasurementRounds }, ""},
		{"too many rounds", func(p *Parameters) { p.MeasurementRounds = constants.MaxMeasurementRounds + 1 }, "measurement_rounds"},
		{"max int rounds", func(p *Parameters) { p.MeasurementRounds = math.MaxInt }, "measurement_rounds"},
		{"noise of one", func(p *Parameters) { p.NoiseLevel = 1 }, "noise_level"},
		{"negative noise", func(p *Parameters) { p.NoiseLevel = -0.1 }, "noise_level"},
		{"zero noise", func(p *Parameters) { p.NoiseLevel = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			var pe *ParameterError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantField, pe.Field)
		})
	}
}

func TestParameters_Readout(t *testing.T) {
	p := DefaultParameters()

	r, err := p.Readout()
	require.NoError(t, err)
	assert.Equal(t, "Cesium (Cs)", r.Material)
	assert.Equal(t, "Cs", r.Symbol)
	assert.InDelta(t, 3.10, r.PhotonEnergyEv, 1e-9)
	assert.InDelta(t, 1.00, r.MaxKineticEnergyEv, 1e-9)
	assert.Equal(t, r.MaxKineticEnergyEv, r.StoppingPotentialV)
	assert.True(t, r.Emits)
	assert.Equal(t, physics.BandBlue, r.Band)

	p.WavelengthNm = 700
	r, err = p.Readout()
	require.NoError(t, err)
	assert.False(t, r.Emits)
	assert.Zero(t, r.MaxKineticEnergyEv)
}

func TestParameters_ReadoutWithoutMaterial(t *testing.T) {
	p := DefaultParameters()
	p.MaterialIndex = NoMaterial

	r, err := p.Readout()
	require.NoError(t, err)
	assert.Empty(t, r.Material)
	assert.InDelta(t, 3.10, r.PhotonEnergyEv, 1e-9)
	assert.False(t, r.Emits)
	assert.Zero(t, r.StoppingPotentialV)
}

func TestParameters_ReadoutRejectsInvalid(t *testing.T) {
	p := DefaultParameters()
	p.WavelengthNm = 0
	_, err := p.Readout()
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestErrorMessages(t *testing.T) {
	pe := &PreconditionError{Op: "sweep", Reason: "no material selected"}
	assert.Equal(t, "sweep: no material selected", pe.Error())
	assert.True(t, errors.Is(pe, ErrPrecondition))
	assert.False(t, errors.Is(pe, ErrInvalidParameter))

	var ipe error = &InvalidParameterError{Field: "wavelength", Value: -1.0, Reason: "must be positive"}
	assert.Equal(t, "invalid wavelength -1: must be positive", ipe.Error())
}

package physics

import (
	"math"

	"github.com/nvandessel/photolab/internal/constants"
)

// PhotonEnergyEv returns E = hc/λ for a wavelength in nanometres.
// Non-positive wavelengths have no physical meaning and yield NaN; callers
// validate before calling.
func PhotonEnergyEv(wavelengthNm float64) float64 {
	if wavelengthNm <= 0 {
		return math.NaN()
	}
	return HcEvM * 1e9 / wavelengthNm
}

// MaxKineticEnergyEv returns hf − φ, floored at zero when the photon is below
// the emission threshold.
func MaxKineticEnergyEv(photonEnergyEv, workFunctionEv float64) float64 {
	return math.Max(0, photonEnergyEv-workFunctionEv)
}

// StoppingPotentialV converts the maximum kinetic energy in eV into the
// stopping potential in volts. The mapping is the identity.
func StoppingPotentialV(maxKineticEnergyEv float64) float64 {
	return maxKineticEnergyEv
}

// IdealCurrentNa returns the noiseless photocurrent in nA at the applied
// voltage. It assumes emission is possible; use Emission.CurrentNa to get the
// below-threshold short circuit.
func IdealCurrentNa(voltageV, stoppingPotentialV, intensityUwCm2 float64) float64 {
	if voltageV <= -stoppingPotentialV {
		return 0
	}
	saturation := intensityUwCm2 * constants.SaturationCurrentPerIntensity
	normalized := (voltageV + stoppingPotentialV) / (stoppingPotentialV + constants.TransitionSpanOffsetV)
	return saturation * clamp(normalized, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Emission captures the derived quantities for one material under light of
// one wavelength. It doubles as the parameter readout shown to users.
type Emission struct {
	WavelengthNm       float64 `json:"wavelength_nm"`
	WorkFunctionEv     float64 `json:"work_function_ev"`
	PhotonEnergyEv     float64 `json:"photon_energy_ev"`
	MaxKineticEnergyEv float64 `json:"max_kinetic_energy_ev"`
	StoppingPotentialV float64 `json:"stopping_potential_v"`
	Band               Band    `json:"band"`
}

// NewEmission derives photon energy, maximum kinetic energy and stopping
// potential for the given wavelength and work function.
func NewEmission(wavelengthNm, workFunctionEv float64) Emission {
	photon := PhotonEnergyEv(wavelengthNm)
	ke := MaxKineticEnergyEv(photon, workFunctionEv)
	return Emission{
		WavelengthNm:       wavelengthNm,
		WorkFunctionEv:     workFunctionEv,
		PhotonEnergyEv:     photon,
		MaxKineticEnergyEv: ke,
		StoppingPotentialV: StoppingPotentialV(ke),
		Band:               BandOf(wavelengthNm),
	}
}

// Emits reports whether photons carry more energy than the work function.
func (e Emission) Emits() bool {
	return e.PhotonEnergyEv > e.WorkFunctionEv
}

// CurrentNa returns the ideal current at voltageV, or exactly zero when no
// emission is possible regardless of voltage.
func (e Emission) CurrentNa(voltageV, intensityUwCm2 float64) float64 {
	if !e.Emits() {
		return 0
	}
	return IdealCurrentNa(voltageV, e.StoppingPotentialV, intensityUwCm2)
}

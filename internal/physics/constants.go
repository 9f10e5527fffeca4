package physics

// Physical constants in the units the model works with. They are fixed and
// deliberately not configurable.
const (
	// PlanckEvS is Planck's constant in eV·s.
	PlanckEvS = 4.136e-15

	// SpeedOfLightMps is the speed of light in m/s.
	SpeedOfLightMps = 2.998e8

	// ElementaryChargeC is the elementary charge in coulombs.
	ElementaryChargeC = 1.602e-19

	// HcEvM is the product h·c in eV·m.
	HcEvM = 1.240e-6
)

// Constants groups the physical constants for reporting collaborators such as
// the CSV exporter's metadata block.
type Constants struct {
	PlanckEvS         float64 `json:"planck_ev_s"`
	SpeedOfLightMps   float64 `json:"speed_of_light_mps"`
	ElementaryChargeC float64 `json:"elementary_charge_c"`
	HcEvM             float64 `json:"hc_ev_m"`
}

// StandardConstants returns the constants used by every calculation in this package.
func StandardConstants() Constants {
	return Constants{
		PlanckEvS:         PlanckEvS,
		SpeedOfLightMps:   SpeedOfLightMps,
		ElementaryChargeC: ElementaryChargeC,
		HcEvM:             HcEvM,
	}
}

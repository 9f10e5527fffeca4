package mcp

import (
	"github.com/nvandessel/photolab/internal/sweep"
)

// MaterialsInput defines the input for the photolab_materials tool.
type MaterialsInput struct{}

// MaterialsOutput defines the output for the photolab_materials tool.
type MaterialsOutput struct {
	Materials []MaterialItem `json:"materials" jsonschema:"Catalog entries in fixed order"`
	Count     int            `json:"count" jsonschema:"Number of catalog entries"`
}

// MaterialItem is one catalog entry.
type MaterialItem struct {
	Index                 int     `json:"index"`
	Name                  string  `json:"name"`
	Symbol                string  `json:"symbol"`
	WorkFunctionEv        float64 `json:"work_function_ev"`
	ThresholdWavelengthNm float64 `json:"threshold_wavelength_nm"`
	Selected              bool    `json:"selected"`
}

// ConfigureInput defines the input for the photolab_configure tool. Omitted
// fields keep their current value.
type ConfigureInput struct {
	Material          *string  `json:"material,omitempty" jsonschema:"Material symbol or name (e.g. 'Cs' or 'Cesium'), or 'none' to deselect"`
	WavelengthNm      *float64 `json:"wavelength_nm,omitempty" jsonschema:"Light wavelength in nanometres, must be positive"`
	IntensityUwCm2    *float64 `json:"intensity_uw_cm2,omitempty" jsonschema:"Light intensity in microwatts per square centimetre"`
	VoltageV          *float64 `json:"voltage_v,omitempty" jsonschema:"Applied voltage in volts"`
	MeasurementRounds *int     `json:"measurement_rounds,omitempty" jsonschema:"Samples averaged per reading, 1 to 1000"`
	NoiseLevel        *float64 `json:"noise_level,omitempty" jsonschema:"Relative noise amplitude in [0, 1)"`
	MinV              *float64 `json:"min_v,omitempty" jsonschema:"Sweep start voltage, within ±1000 V"`
	MaxV              *float64 `json:"max_v,omitempty" jsonschema:"Sweep end voltage, within ±1000 V"`
	StepV             *float64 `json:"step_v,omitempty" jsonschema:"Sweep step in volts, at least 0.1"`
}

// ConfigureOutput defines the output for the photolab_configure tool.
type ConfigureOutput struct {
	Parameters ParametersView `json:"parameters" jsonschema:"Parameters after the update"`
	Plan       sweep.Plan     `json:"plan" jsonschema:"Sweep plan after the update"`
	Readout    *ReadoutOutput `json:"readout,omitempty" jsonschema:"Derived readout, absent when no material is selected"`
	Message    string         `json:"message" jsonschema:"Human-readable result message"`
}

// ParametersView is the experiment parameter set with the material resolved.
type ParametersView struct {
	Material          string  `json:"material,omitempty"`
	MaterialIndex     int     `json:"material_index"`
	WavelengthNm      float64 `json:"wavelength_nm"`
	IntensityUwCm2    float64 `json:"intensity_uw_cm2"`
	VoltageV          float64 `json:"voltage_v"`
	MeasurementRounds int     `json:"measurement_rounds"`
	NoiseLevel        float64 `json:"noise_level"`
}

// ReadoutInput defines the input for the photolab_readout tool.
type ReadoutInput struct{}

// ReadoutOutput defines the output for the photolab_readout tool.
type ReadoutOutput struct {
	Material              string  `json:"material"`
	Symbol                string  `json:"symbol"`
	WorkFunctionEv        float64 `json:"work_function_ev"`
	ThresholdWavelengthNm float64 `json:"threshold_wavelength_nm"`
	WavelengthNm          float64 `json:"wavelength_nm"`
	Band                  string  `json:"band" jsonschema:"Spectral band of the light (uv, blue, green, yellow, red, infrared)"`
	PhotonEnergyEv        float64 `json:"photon_energy_ev"`
	MaxKineticEnergyEv    float64 `json:"max_kinetic_energy_ev"`
	StoppingPotentialV    float64 `json:"stopping_potential_v"`
	IntensityUwCm2        float64 `json:"intensity_uw_cm2"`
	VoltageV              float64 `json:"voltage_v"`
	IdealCurrentNa        float64 `json:"ideal_current_na" jsonschema:"Noise-free current at the current voltage"`
	Emits                 bool    `json:"emits" jsonschema:"Whether the photon energy exceeds the work function"`
}

// MeasureInput defines the input for the photolab_measure tool.
type MeasureInput struct {
	VoltageV *float64 `json:"voltage_v,omitempty" jsonschema:"Set the applied voltage before measuring"`
}

// MeasureOutput defines the output for the photolab_measure tool.
type MeasureOutput struct {
	Point   PointItem `json:"point" jsonschema:"The recorded data point"`
	Dataset int       `json:"dataset_size" jsonschema:"Number of points in the data set after recording"`
}

// PointItem is a data point as reported to MCP clients.
type PointItem struct {
	ID              string    `json:"id"`
	VoltageV        float64   `json:"voltage"`
	CurrentNa       float64   `json:"current"`
	ErrorNa         float64   `json:"error"`
	WavelengthNm    float64   `json:"wavelength"`
	IntensityUwCm2  float64   `json:"intensity"`
	Material        string    `json:"material"`
	Timestamp       string    `json:"timestamp"`
	RawMeasurements []float64 `json:"raw_measurements,omitempty"`
}

// SweepInput defines the input for the photolab_sweep tool. Omitted bounds
// fall back to the session's sweep plan.
type SweepInput struct {
	MinV          *float64 `json:"min_v,omitempty" jsonschema:"Sweep start voltage, within ±1000 V"`
	MaxV          *float64 `json:"max_v,omitempty" jsonschema:"Sweep end voltage, within ±1000 V"`
	StepV         *float64 `json:"step_v,omitempty" jsonschema:"Sweep step in volts, at least 0.1"`
	IncludePoints bool     `json:"include_points,omitempty" jsonschema:"Return every recorded point (default: false)"`
}

// SweepOutput defines the output for the photolab_sweep tool.
type SweepOutput struct {
	Plan      sweep.Plan  `json:"plan"`
	Total     int         `json:"total" jsonschema:"Planned number of steps"`
	Completed int         `json:"completed" jsonschema:"Steps recorded before the sweep ended"`
	Cancelled bool        `json:"cancelled"`
	ElapsedMs int64       `json:"elapsed_ms"`
	Points    []PointItem `json:"points,omitempty"`
	Message   string      `json:"message"`
}

// StatsInput defines the input for the photolab_stats tool.
type StatsInput struct{}

// StatsOutput defines the output for the photolab_stats tool.
type StatsOutput struct {
	Points            int         `json:"points"`
	Groups            []GroupItem `json:"groups"`
	ThresholdVoltageV *float64    `json:"threshold_voltage,omitempty" jsonschema:"Lowest voltage with current above the detection epsilon"`
	Correlation       *float64    `json:"correlation,omitempty" jsonschema:"Pearson correlation of voltage and current"`
	NoiseLevel        float64     `json:"noise_level"`
}

// GroupItem summarizes one (material, wavelength) group.
type GroupItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// ClearInput defines the input for the photolab_clear tool.
type ClearInput struct{}

// ClearOutput defines the output for the photolab_clear tool.
type ClearOutput struct {
	Cleared int    `json:"cleared" jsonschema:"Number of points removed"`
	Message string `json:"message"`
}

// ExportInput defines the input for the photolab_export tool.
type ExportInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Output file path (default: dated file name in the export directory)"`
	Format string `json:"format,omitempty" jsonschema:"Output format: 'csv', 'png' or 'svg' (default: 'csv', or taken from the path extension)"`
}

// ExportOutput defines the output for the photolab_export tool.
type ExportOutput struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

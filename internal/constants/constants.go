// Package constants provides named constants used throughout the photolab codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

import "time"

// Experiment parameter defaults. These mirror the initial state of a fresh
// measurement session before the user touches any control.
const (
	// DefaultMaterialIndex selects the first catalog entry (Cesium).
	DefaultMaterialIndex = 0

	// DefaultWavelengthNm is the initial light wavelength in nanometres.
	DefaultWavelengthNm = 400.0

	// DefaultIntensityUwCm2 is the initial light intensity in μW/cm².
	DefaultIntensityUwCm2 = 5.0

	// DefaultVoltageV is the initial applied voltage.
	DefaultVoltageV = 0.0

	// DefaultMeasurementRounds is the number of noisy samples averaged per reading.
	DefaultMeasurementRounds = 10

	// DefaultNoiseLevel is the relative noise amplitude in [0, 1).
	DefaultNoiseLevel = 0.05
)

// Control bounds exposed to presentation surfaces. The engine itself only
// requires positivity; these ranges match the slider limits of the bench.
const (
	MinWavelengthNm = 100.0
	MaxWavelengthNm = 1000.0

	MinIntensityUwCm2 = 0.1
	MaxIntensityUwCm2 = 10.0

	MinVoltageV = -5.0
	MaxVoltageV = 5.0

	MaxMeasurementRounds = 1000
)

// Sweep defaults.
const (
	// DefaultSweepMinV is the most retarding voltage of the default sweep.
	DefaultSweepMinV = -3.0

	// DefaultSweepMaxV is the most accelerating voltage of the default sweep.
	DefaultSweepMaxV = 2.0

	// DefaultSweepStepV is the voltage increment between sweep steps.
	DefaultSweepStepV = 0.1

	// SweepResolutionV is the rounding quantum applied to every sweep voltage.
	// Steps finer than this would collapse onto the same rounded value.
	SweepResolutionV = 0.1

	// MaxSweepAbsVoltageV bounds both ends of a sweep plan.
	MaxSweepAbsVoltageV = 1000.0

	// MaxSweepSteps caps the number of voltages a single plan may visit.
	MaxSweepSteps = 5001
)

// Sampling constants.
const (
	// DefaultSampleDelay simulates instrument settling time between samples.
	DefaultSampleDelay = 50 * time.Millisecond

	// NoiseMagnitudeFloor keeps noise non-vanishing at zero ideal current (nA).
	NoiseMagnitudeFloor = 0.01

	// SaturationCurrentPerIntensity converts μW/cm² into saturation current (nA).
	SaturationCurrentPerIntensity = 0.1

	// TransitionSpanOffsetV is added to the stopping potential to obtain the
	// voltage span over which current rises from cutoff to saturation.
	TransitionSpanOffsetV = 2.0
)

// Derived statistics constants.
const (
	// DefaultCurrentEpsilon is the current (nA) above which a point counts as
	// carrying photocurrent when locating the threshold voltage.
	DefaultCurrentEpsilon = 0.01

	// MinThresholdPoints is the minimum dataset size for threshold detection.
	MinThresholdPoints = 2

	// MinCorrelationPoints is the dataset size that must be exceeded before a
	// correlation coefficient is computed.
	MinCorrelationPoints = 2
)

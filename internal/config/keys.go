package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/logging"
)

// Keys lists every dot-notation key accepted by Get and Set, in display order.
var Keys = []string{
	"experiment.material",
	"experiment.wavelength_nm",
	"experiment.intensity_uw_cm2",
	"experiment.voltage_v",
	"experiment.measurement_rounds",
	"experiment.noise_level",
	"sweep.min_v",
	"sweep.max_v",
	"sweep.step_v",
	"sampling.seed",
	"sampling.delay",
	"dataset.backend",
	"logging.level",
	"telemetry.enabled",
	"telemetry.endpoint",
	"telemetry.insecure",
	"telemetry.interval",
}

// Get retrieves a configuration value by dot-notation key.
func (c *PhotolabConfig) Get(key string) (any, bool) {
	switch key {
	case "experiment.material":
		return c.Experiment.Material, true
	case "experiment.wavelength_nm":
		return c.Experiment.WavelengthNm, true
	case "experiment.intensity_uw_cm2":
		return c.Experiment.IntensityUwCm2, true
	case "experiment.voltage_v":
		return c.Experiment.VoltageV, true
	case "experiment.measurement_rounds":
		return c.Experiment.MeasurementRounds, true
	case "experiment.noise_level":
		return c.Experiment.NoiseLevel, true
	case "sweep.min_v":
		return c.Sweep.MinV, true
	case "sweep.max_v":
		return c.Sweep.MaxV, true
	case "sweep.step_v":
		return c.Sweep.StepV, true
	case "sampling.seed":
		return c.Sampling.Seed, true
	case "sampling.delay":
		return c.Sampling.Delay.String(), true
	case "dataset.backend":
		return string(c.Dataset.Backend), true
	case "logging.level":
		return c.Logging.Level, true
	case "telemetry.enabled":
		return c.Telemetry.Enabled, true
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, true
	case "telemetry.insecure":
		return c.Telemetry.Insecure, true
	case "telemetry.interval":
		return c.Telemetry.Interval.String(), true
	default:
		return nil, false
	}
}

// Set sets a configuration value by dot-notation key. The whole config is
// validated afterwards; on error c is left unchanged.
func (c *PhotolabConfig) Set(key, value string) error {
	next := *c
	if err := next.set(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *PhotolabConfig) set(key, value string) error {
	parseFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		*dst = f
		return nil
	}
	parseDuration := func(dst *time.Duration) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		*dst = d
		return nil
	}
	parseBool := func(dst *bool) {
		*dst = value == "true" || value == "1"
	}

	switch key {
	case "experiment.material":
		c.Experiment.Material = value
	case "experiment.wavelength_nm":
		return parseFloat(&c.Experiment.WavelengthNm)
	case "experiment.intensity_uw_cm2":
		return parseFloat(&c.Experiment.IntensityUwCm2)
	case "experiment.voltage_v":
		return parseFloat(&c.Experiment.VoltageV)
	case "experiment.measurement_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		c.Experiment.MeasurementRounds = n
	case "experiment.noise_level":
		return parseFloat(&c.Experiment.NoiseLevel)
	case "sweep.min_v":
		return parseFloat(&c.Sweep.MinV)
	case "sweep.max_v":
		return parseFloat(&c.Sweep.MaxV)
	case "sweep.step_v":
		return parseFloat(&c.Sweep.StepV)
	case "sampling.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		c.Sampling.Seed = n
	case "sampling.delay":
		return parseDuration(&c.Sampling.Delay)
	case "dataset.backend":
		c.Dataset.Backend = constants.Backend(value)
	case "logging.level":
		if !logging.ValidLevel(value) {
			return fmt.Errorf("invalid log level: %s", value)
		}
		c.Logging.Level = value
	case "telemetry.enabled":
		parseBool(&c.Telemetry.Enabled)
	case "telemetry.endpoint":
		c.Telemetry.Endpoint = value
	case "telemetry.insecure":
		parseBool(&c.Telemetry.Insecure)
	case "telemetry.interval":
		return parseDuration(&c.Telemetry.Interval)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// Package config provides unified configuration loading for photolab.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/logging"
	"github.com/nvandessel/photolab/internal/physics"
	"github.com/nvandessel/photolab/internal/sweep"
)

// DirName is the per-user directory holding config and traces.
const DirName = ".photolab"

// FileName is the config file inside DirName.
const FileName = "config.yaml"

// PhotolabConfig contains all photolab configuration settings.
type PhotolabConfig struct {
	// Experiment holds the initial bench parameters of a new session.
	Experiment ExperimentConfig `json:"experiment" yaml:"experiment"`

	// Sweep is the default voltage sweep.
	Sweep sweep.Plan `json:"sweep" yaml:"sweep"`

	// Sampling controls randomness and simulated settling time.
	Sampling SamplingConfig `json:"sampling" yaml:"sampling"`

	// Dataset selects the session data set backend.
	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Telemetry configures OTLP metric export.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// ExperimentConfig holds the initial experiment parameters.
type ExperimentConfig struct {
	// Material is a catalog symbol or name ("Cs", "cesium"). Empty or
	// "none" starts the session with no material selected.
	Material          string  `json:"material" yaml:"material"`
	WavelengthNm      float64 `json:"wavelength_nm" yaml:"wavelength_nm"`
	IntensityUwCm2    float64 `json:"intensity_uw_cm2" yaml:"intensity_uw_cm2"`
	VoltageV          float64 `json:"voltage_v" yaml:"voltage_v"`
	MeasurementRounds int     `json:"measurement_rounds" yaml:"measurement_rounds"`
	NoiseLevel        float64 `json:"noise_level" yaml:"noise_level"`
}

// MaterialIndex resolves Material to a catalog index, or -1 for none.
func (e ExperimentConfig) MaterialIndex() (int, error) {
	m := strings.TrimSpace(e.Material)
	if m == "" || strings.EqualFold(m, "none") {
		return -1, nil
	}
	i, _, err := physics.LookupMaterial(m)
	return i, err
}

// SamplingConfig controls the noise source and the inter-sample delay.
type SamplingConfig struct {
	// Seed seeds the noise source. Zero picks a random seed per run.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Delay is the simulated settling time between samples.
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// DatasetConfig selects where session data points are held.
type DatasetConfig struct {
	// Backend is "memory" (default) or "sqlite" (in-memory database).
	Backend constants.Backend `json:"backend" yaml:"backend"`
}

// LoggingConfig configures photolab's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" enables measurement tracing to ~/.photolab/trace.jsonl.
	// "trace" additionally logs every individual sample.
	Level string `json:"level" yaml:"level"`
}

// TelemetryConfig configures OTLP metric export.
type TelemetryConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Endpoint string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure bool          `json:"insecure" yaml:"insecure"`
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// Default returns a PhotolabConfig with sensible defaults.
func Default() *PhotolabConfig {
	return &PhotolabConfig{
		Experiment: ExperimentConfig{
			Material:          physics.Catalog()[constants.DefaultMaterialIndex].Symbol,
			WavelengthNm:      constants.DefaultWavelengthNm,
			IntensityUwCm2:    constants.DefaultIntensityUwCm2,
			VoltageV:          constants.DefaultVoltageV,
			MeasurementRounds: constants.DefaultMeasurementRounds,
			NoiseLevel:        constants.DefaultNoiseLevel,
		},
		Sweep: sweep.DefaultPlan(),
		Sampling: SamplingConfig{
			Seed:  0,
			Delay: constants.DefaultSampleDelay,
		},
		Dataset: DatasetConfig{
			Backend: constants.BackendMemory,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Insecure: true,
			Interval: 10 * time.Second,
		},
	}
}

// Dir returns the per-user photolab directory (~/.photolab).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// DefaultPath returns ~/.photolab/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.photolab/config.yaml -> environment variables
func Load() (*PhotolabConfig, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit config file. An empty path means the
// default location, which may be absent; an explicit path must exist.
func LoadPath(path string) (*PhotolabConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	} else if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*PhotolabConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in the collector endpoint
	config.Telemetry.Endpoint = expandEnvVars(config.Telemetry.Endpoint)

	return config, nil
}

// Save writes the configuration to path as YAML, creating its directory.
func (c *PhotolabConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *PhotolabConfig) Validate() error {
	e := c.Experiment
	if _, err := e.MaterialIndex(); err != nil {
		return fmt.Errorf("invalid material: %w", err)
	}
	if !(e.WavelengthNm > 0) {
		return fmt.Errorf("wavelength_nm must be positive, got %g", e.WavelengthNm)
	}
	if !(e.IntensityUwCm2 > 0) {
		return fmt.Errorf("intensity_uw_cm2 must be positive, got %g", e.IntensityUwCm2)
	}
	if e.MeasurementRounds < 1 || e.MeasurementRounds > constants.MaxMeasurementRounds {
		return fmt.Errorf("measurement_rounds must be between 1 and %d, got %d",
			constants.MaxMeasurementRounds, e.MeasurementRounds)
	}
	if !(e.NoiseLevel >= 0 && e.NoiseLevel < 1) {
		return fmt.Errorf("noise_level must be in [0, 1), got %g", e.NoiseLevel)
	}

	if err := c.Sweep.Validate(); err != nil {
		return err
	}

	if c.Sampling.Delay < 0 {
		return fmt.Errorf("sampling delay must be non-negative, got %v", c.Sampling.Delay)
	}

	if !c.Dataset.Backend.Valid() {
		return fmt.Errorf("invalid dataset backend: %s (valid: memory, sqlite)", c.Dataset.Backend)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is set")
	}
	if c.Telemetry.Interval < 0 {
		return fmt.Errorf("telemetry interval must be non-negative, got %v", c.Telemetry.Interval)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numeric values are ignored.
func applyEnvOverrides(config *PhotolabConfig) {
	if v := os.Getenv("PHOTOLAB_MATERIAL"); v != "" {
		config.Experiment.Material = v
	}

	if v := os.Getenv("PHOTOLAB_NOISE_LEVEL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Experiment.NoiseLevel = f
		}
	}

	if v := os.Getenv("PHOTOLAB_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Experiment.MeasurementRounds = n
		}
	}

	if v := os.Getenv("PHOTOLAB_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Sampling.Seed = n
		}
	}

	if v := os.Getenv("PHOTOLAB_SAMPLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Sampling.Delay = d
		}
	}

	if v := os.Getenv("PHOTOLAB_DATASET_BACKEND"); v != "" {
		config.Dataset.Backend = constants.Backend(v)
	}

	if v := os.Getenv("PHOTOLAB_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	// An endpoint in the environment switches export on.
	if v := os.Getenv("PHOTOLAB_OTEL_ENDPOINT"); v != "" {
		config.Telemetry.Endpoint = v
		config.Telemetry.Enabled = true
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

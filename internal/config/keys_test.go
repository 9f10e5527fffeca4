package config

import (
	"testing"
	"time"
)

func TestGet_AllKeys(t *testing.T) {
	config := Default()
	for _, key := range Keys {
		if _, ok := config.Get(key); !ok {
			t.Errorf("Get(%q) not found", key)
		}
	}
	if _, ok := config.Get("llm.provider"); ok {
		t.Error("expected unknown key to be reported")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(*PhotolabConfig) bool
	}{
		{"experiment.material", "Ag", func(c *PhotolabConfig) bool { return c.Experiment.Material == "Ag" }},
		{"experiment.wavelength_nm", "254", func(c *PhotolabConfig) bool { return c.Experiment.WavelengthNm == 254 }},
		{"experiment.measurement_rounds", "50", func(c *PhotolabConfig) bool { return c.Experiment.MeasurementRounds == 50 }},
		{"sweep.step_v", "0.5", func(c *PhotolabConfig) bool { return c.Sweep.StepV == 0.5 }},
		{"sampling.seed", "7", func(c *PhotolabConfig) bool { return c.Sampling.Seed == 7 }},
		{"sampling.delay", "1ms", func(c *PhotolabConfig) bool { return c.Sampling.Delay == time.Millisecond }},
		{"dataset.backend", "sqlite", func(c *PhotolabConfig) bool { return c.Dataset.Backend == "sqlite" }},
		{"logging.level", "trace", func(c *PhotolabConfig) bool { return c.Logging.Level == "trace" }},
		{"telemetry.insecure", "false", func(c *PhotolabConfig) bool { return !c.Telemetry.Insecure }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			config := Default()
			if err := config.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) failed: %v", tt.key, tt.value, err)
			}
			if !tt.check(config) {
				t.Errorf("Set(%q, %q) did not apply", tt.key, tt.value)
			}
			got, _ := config.Get(tt.key)
			if got == nil {
				t.Errorf("Get(%q) returned nil after Set", tt.key)
			}
		})
	}
}

func TestSet_RejectsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"experiment.wavelength_nm", "blue"},
		{"experiment.wavelength_nm", "-1"},
		{"experiment.material", "Kryptonite"},
		{"experiment.measurement_rounds", "0"},
		{"sweep.step_v", "0.01"},
		{"sampling.delay", "fast"},
		{"dataset.backend", "mongo"},
		{"logging.level", "loud"},
		{"telemetry.enabled", "true"},
		{"no.such.key", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			config := Default()
			before := *config
			if err := config.Set(tt.key, tt.value); err == nil {
				t.Fatalf("Set(%q, %q) expected error", tt.key, tt.value)
			}
			if *config != before {
				t.Errorf("config changed after rejected Set: %+v", *config)
			}
		})
	}
}

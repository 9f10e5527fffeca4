package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nvandessel/photolab/internal/config"
	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/nvandessel/photolab/internal/logging"
	"github.com/nvandessel/photolab/internal/measure"
	"github.com/nvandessel/photolab/internal/noise"
	"github.com/nvandessel/photolab/internal/telemetry"
	"github.com/spf13/cobra"
)

// app bundles the session and its supporting services for one command run.
type app struct {
	cfg      *config.PhotolabConfig
	logger   *slog.Logger
	session  *experiment.Session
	seed     uint64
	shutdown telemetry.ShutdownFunc
}

// loadConfig loads the configuration and applies global and experiment
// flag overrides, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.PhotolabConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("seed") {
		cfg.Sampling.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("backend") {
		b, _ := flags.GetString("backend")
		cfg.Dataset.Backend = constants.Backend(b)
	}
	if flags.Changed("sample-delay") {
		cfg.Sampling.Delay, _ = flags.GetDuration("sample-delay")
	}
	applyExperimentFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// addExperimentFlags registers per-run overrides of the experiment parameters.
func addExperimentFlags(cmd *cobra.Command) {
	cmd.Flags().String("material", "", "Material symbol or name (e.g. Cs, sodium), or none")
	cmd.Flags().Float64("wavelength", 0, "Light wavelength in nm")
	cmd.Flags().Float64("intensity", 0, "Light intensity in μW/cm²")
	cmd.Flags().Float64("voltage", 0, "Applied voltage in V")
	cmd.Flags().Int("rounds", 0, "Samples averaged per reading (1 to 1000)")
	cmd.Flags().Float64("noise", 0, "Relative noise level in [0, 1)")
}

func applyExperimentFlags(cmd *cobra.Command, cfg *config.PhotolabConfig) {
	flags := cmd.Flags()
	e := &cfg.Experiment
	if flags.Lookup("material") == nil {
		return
	}
	if flags.Changed("material") {
		e.Material, _ = flags.GetString("material")
	}
	if flags.Changed("wavelength") {
		e.WavelengthNm, _ = flags.GetFloat64("wavelength")
	}
	if flags.Changed("intensity") {
		e.IntensityUwCm2, _ = flags.GetFloat64("intensity")
	}
	if flags.Changed("voltage") {
		e.VoltageV, _ = flags.GetFloat64("voltage")
	}
	if flags.Changed("rounds") {
		e.MeasurementRounds, _ = flags.GetInt("rounds")
	}
	if flags.Changed("noise") {
		e.NoiseLevel, _ = flags.GetFloat64("noise")
	}
}

// experimentParameters converts the experiment section of cfg.
func experimentParameters(cfg *config.PhotolabConfig) (experiment.Parameters, error) {
	idx, err := cfg.Experiment.MaterialIndex()
	if err != nil {
		return experiment.Parameters{}, err
	}
	p := experiment.Parameters{
		MaterialIndex:     idx,
		WavelengthNm:      cfg.Experiment.WavelengthNm,
		IntensityUwCm2:    cfg.Experiment.IntensityUwCm2,
		VoltageV:          cfg.Experiment.VoltageV,
		MeasurementRounds: cfg.Experiment.MeasurementRounds,
		NoiseLevel:        cfg.Experiment.NoiseLevel,
	}
	return p, p.Validate()
}

// openApp builds a session from cfg. Logs go to the command's stderr.
func openApp(cmd *cobra.Command, cfg *config.PhotolabConfig) (*app, error) {
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	params, err := experimentParameters(cfg)
	if err != nil {
		return nil, err
	}

	rec, shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
		Interval: cfg.Telemetry.Interval,
	}, version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	store, err := dataset.Open(cfg.Dataset.Backend)
	if err != nil {
		shutdown(context.Background())
		return nil, fmt.Errorf("failed to open data set: %w", err)
	}

	seed := cfg.Sampling.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	delay := measure.NoDelay
	if cfg.Sampling.Delay > 0 {
		delay = measure.Sleep(cfg.Sampling.Delay)
	}
	sampler := measure.NewSampler(
		noise.NewLocked(noise.NewSource(seed)),
		measure.WithDelay(delay),
		measure.WithRecorder(rec),
		measure.WithLogger(logger),
	)

	var trace *logging.TraceLogger
	if dir, err := config.Dir(); err == nil {
		trace = logging.NewTraceLogger(dir, cfg.Logging.Level)
	}

	session := experiment.NewSession(store, sampler,
		experiment.WithParameters(params),
		experiment.WithPlan(cfg.Sweep),
		experiment.WithLogger(logger),
		experiment.WithTraceLogger(trace),
		experiment.WithRecorder(rec),
	)
	logger.Debug("session opened",
		"session", session.ID(), "backend", cfg.Dataset.Backend, "seed", seed)

	return &app{
		cfg:      cfg,
		logger:   logger,
		session:  session,
		seed:     seed,
		shutdown: shutdown,
	}, nil
}

// setup is loadConfig followed by openApp.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openApp(cmd, cfg)
}

// Close releases the session and flushes telemetry.
func (a *app) Close() error {
	err := a.session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := a.shutdown(ctx); serr != nil {
		a.logger.Warn("telemetry shutdown failed", "error", serr)
	}
	return err
}

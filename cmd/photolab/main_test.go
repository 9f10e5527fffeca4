package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points HOME at a temp directory so tests never touch the real
// ~/.photolab/. MUST be called by any test that opens a session or config.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", home)
	for _, key := range []string{
		"PHOTOLAB_MATERIAL", "PHOTOLAB_NOISE_LEVEL", "PHOTOLAB_ROUNDS", "PHOTOLAB_SEED",
		"PHOTOLAB_SAMPLE_DELAY", "PHOTOLAB_DATASET_BACKEND", "PHOTOLAB_LOG_LEVEL", "PHOTOLAB_OTEL_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
	return home
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	rootCmd := newRootCmd()
	want := []string{"version", "materials", "readout", "measure", "sweep", "plot", "stats", "serve", "mcp-server", "config"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil {
				t.Fatalf("Find(%q) error = %v", name, err)
			}
			if cmd.Name() != name {
				t.Errorf("Find(%q) = %q", name, cmd.Name())
			}
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	rootCmd := newRootCmd()
	for _, name := range []string{"json", "config", "log-level", "seed", "backend", "sample-delay"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "photolab "), "output = %q", out)
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, "7 photocathode materials")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var got versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.Version)
	assert.NotEmpty(t, got.Commit)
	assert.Equal(t, runtime.Version(), got.Go)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, got.Platform)
	assert.Equal(t, 7, got.Materials)
}

func TestCurrentVersion_PrefersLdflags(t *testing.T) {
	oldVersion, oldCommit, oldDate := version, commit, date
	t.Cleanup(func() { version, commit, date = oldVersion, oldCommit, oldDate })
	version, commit, date = "1.2.3", "abc1234", "2026-10-17"

	v := currentVersion()
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, "abc1234", v.Commit)
	assert.Equal(t, "2026-10-17", v.Date)
}

func TestInterruptContext_StopCancels(t *testing.T) {
	ctx, stop := interruptContext(context.Background())
	require.NoError(t, ctx.Err())
	stop()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestMaterialsCmd(t *testing.T) {
	out, err := execute(t, "materials")
	require.NoError(t, err)
	assert.Contains(t, out, "Sodium (Na)")
	assert.Contains(t, out, "2.28")

	out, err = execute(t, "materials", "--json")
	require.NoError(t, err)
	var got struct {
		Materials []struct {
			Symbol                string  `json:"symbol"`
			ThresholdWavelengthNm float64 `json:"threshold_wavelength_nm"`
		} `json:"materials"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, len(got.Materials), got.Count)
	assert.Positive(t, got.Count)
	for _, m := range got.Materials {
		assert.NotEmpty(t, m.Symbol)
		assert.Positive(t, m.ThresholdWavelengthNm)
	}
}

func TestReadoutCmd(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "readout", "--json", "--material", "Na", "--wavelength", "350")
	require.NoError(t, err)

	var r experiment.Readout
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "Na", r.Symbol)
	assert.True(t, r.Emits)
	assert.InDelta(t, 3.542, r.PhotonEnergyEv, 0.01)
	assert.InDelta(t, 1.262, r.StoppingPotentialV, 0.01)

	out, err = execute(t, "readout", "--material", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "(none selected)")
}

func TestReadoutCmd_InvalidMaterial(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "readout", "--material", "unobtainium")
	assert.Error(t, err)
}

func TestMeasureCmd(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "measure", "--json", "--seed", "1", "--sample-delay", "0s",
		"--rounds", "5", "--count", "3", "--voltage", "0.5")
	require.NoError(t, err)

	var got struct {
		Points []dataset.DataPoint `json:"points"`
		Count  int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Count)
	require.Len(t, got.Points, 3)
	for _, p := range got.Points {
		assert.Equal(t, 0.5, p.VoltageV)
		assert.Len(t, p.RawMeasurements, 5)
		assert.GreaterOrEqual(t, p.CurrentNa, 0.0)
	}
}

func TestMeasureCmd_SeedIsReproducible(t *testing.T) {
	isolateHome(t)

	args := []string{"measure", "--json", "--seed", "42", "--sample-delay", "0s", "--rounds", "4"}
	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)

	current := func(out string) float64 {
		var got struct {
			Points []dataset.DataPoint `json:"points"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got.Points, 1)
		return got.Points[0].CurrentNa
	}
	assert.Equal(t, current(first), current(second))
}

func TestMeasureCmd_NoMaterial(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "measure", "--material", "none", "--sample-delay", "0s")
	require.Error(t, err)
	assert.True(t, errors.Is(err, experiment.ErrPrecondition), "error = %v", err)
}

func TestMeasureCmd_InvalidCount(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "measure", "--count", "0")
	assert.ErrorContains(t, err, "--count")
}

func TestSweepCmd_ExportPlotAndStats(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "iv.csv")
	svgPath := filepath.Join(dir, "iv.svg")

	out, err := execute(t, "sweep", "--json", "--seed", "7", "--sample-delay", "0s", "--rounds", "3",
		"--material", "K", "--wavelength", "450",
		"--min", "0", "--max", "0.5", "--step", "0.1",
		"--export", csvPath, "--plot", svgPath)
	require.NoError(t, err)

	var report struct {
		Total     int                 `json:"total"`
		Points    []dataset.DataPoint `json:"points"`
		Cancelled bool                `json:"cancelled"`
		Stats     dataset.Summary     `json:"stats"`
		Seed      uint64              `json:"seed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 6, report.Total)
	assert.Len(t, report.Points, 6)
	assert.False(t, report.Cancelled)
	assert.Equal(t, uint64(7), report.Seed)
	assert.Equal(t, 6, report.Stats.Points)
	for i, p := range report.Points {
		assert.InDelta(t, float64(i)*0.1, p.VoltageV, 1e-9)
	}

	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	points, err := readCSV(csvPath)
	require.NoError(t, err)
	assert.Len(t, points, 6)

	t.Run("plot", func(t *testing.T) {
		pngPath := filepath.Join(dir, "out.png")
		out, err := execute(t, "plot", csvPath, "--out", pngPath, "--title", "Potassium")
		require.NoError(t, err)
		assert.Contains(t, out, "Plot written to "+pngPath)

		data, err := os.ReadFile(pngPath)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "not a PNG file")
	})

	t.Run("plot default output", func(t *testing.T) {
		_, err := execute(t, "plot", csvPath)
		require.NoError(t, err)
		_, err = os.Stat(strings.TrimSuffix(csvPath, ".csv") + ".png")
		assert.NoError(t, err)
	})

	t.Run("stats", func(t *testing.T) {
		out, err := execute(t, "stats", csvPath, "--json")
		require.NoError(t, err)
		var got struct {
			Summary dataset.Summary `json:"summary"`
			Groups  []struct {
				Label  string `json:"label"`
				Points int    `json:"points"`
			} `json:"groups"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 6, got.Summary.Points)
		assert.Equal(t, 1, got.Summary.Groups)
		require.Len(t, got.Groups, 1)
		assert.Equal(t, 6, got.Groups[0].Points)
	})

	t.Run("stats text", func(t *testing.T) {
		out, err := execute(t, "stats", csvPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Points:            6 in 1 group(s)")
	})
}

func TestSweepCmd_TableOutput(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "sweep", "--quiet", "--seed", "3", "--sample-delay", "0s", "--rounds", "2",
		"--min=-0.2", "--max", "0", "--step", "0.1")
	require.NoError(t, err)
	assert.Contains(t, out, "-0.20")
	assert.Contains(t, out, "Threshold voltage:")
	assert.NotContains(t, out, "cancelled")
}

func TestSweepCmd_Rejects(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"step too fine", []string{"--step", "0.05"}, "step"},
		{"reversed range", []string{"--min", "1", "--max=-1"}, ""},
		{"bad plot format", []string{"--plot", filepath.Join(dir, "iv.gif")}, "unsupported plot format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"sweep", "--quiet", "--sample-delay", "0s"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestStatsCmd_MissingFile(t *testing.T) {
	_, err := execute(t, "stats", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "failed to open")
}

func TestStatsCmd_NegativeEpsilon(t *testing.T) {
	_, err := execute(t, "stats", "whatever.csv", "--epsilon=-1")
	assert.ErrorContains(t, err, "--epsilon")
}

func TestConfigCmd(t *testing.T) {
	home := isolateHome(t)

	out, err := execute(t, "config", "set", "experiment.material", "Na")
	require.NoError(t, err)
	assert.Equal(t, "Set experiment.material = Na\n", out)

	_, err = os.Stat(filepath.Join(home, ".photolab", "config.yaml"))
	require.NoError(t, err)

	out, err = execute(t, "config", "get", "experiment.material")
	require.NoError(t, err)
	assert.Equal(t, "experiment.material = Na\n", out)

	out, err = execute(t, "config", "get", "experiment.material", "--json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Na", got["value"])

	out, err = execute(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "experiment:")
	assert.Contains(t, out, "sweep.step_v:")
	assert.Contains(t, out, "telemetry:")

	// The saved material is picked up by later commands.
	out, err = execute(t, "readout", "--json")
	require.NoError(t, err)
	var r experiment.Readout
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "Na", r.Symbol)
}

func TestConfigCmd_ExplicitPath(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")

	out, err := execute(t, "config", "set", "sweep.step_v", "0.5", "--config", path, "--json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "updated", got["status"])
	assert.Equal(t, path, got["path"])

	out, err = execute(t, "config", "get", "sweep.step_v", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "sweep.step_v = 0.5\n", out)
}

func TestConfigCmd_Errors(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "config", "get", "no.such.key")
	assert.ErrorContains(t, err, "unknown configuration key")

	_, err = execute(t, "config", "set", "experiment.wavelength_nm", "blue")
	assert.ErrorContains(t, err, "invalid number")

	_, err = execute(t, "config", "get")
	assert.Error(t, err)
}

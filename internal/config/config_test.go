package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bearwave/internal/dataset"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bearwave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.SpaceWeather.Enabled)
	assert.Len(t, cfg.Analyses, 8)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := writeConfig(t, `
paths:
  data_dir: /srv/field/data
logging:
  level: debug
analyses:
  - name: custom
    kind: snr
    input: custom.xlsx
    station: DGFC
    period:
      label: April 15-16
      month: 4
      from_day: 15
      to_day: 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/field/data", cfg.Paths.DataDir)
	// Keys the file does not mention keep their defaults.
	assert.Equal(t, "output", cfg.Paths.OutputDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.Len(t, cfg.Analyses, 1)
	assert.Equal(t, "custom", cfg.Analyses[0].Name)
	assert.Equal(t, "April 15-16", cfg.Analyses[0].Period.Label)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("BEARWAVE_LOGGING_FORMAT", "text")
	t.Setenv("BEARWAVE_CHARTS_SNR_THRESHOLD", "12.5")
	t.Setenv("BEARWAVE_SPACE_WEATHER_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Logging.Format)
	assert.InDelta(t, 12.5, cfg.Charts.SNRThreshold, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.SpaceWeather.Timeout)
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := writeConfig(t, `
analyses:
  - name: bad
    kind: sonar
    input: x.xlsx
    station: DGFC
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadRejectsNonIonosondeStation(t *testing.T) {
	path := writeConfig(t, `
analyses:
  - name: bad
    kind: fof2
    input: x.xlsx
    station: DGFC
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ionosonde")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, ":\n  - not yaml")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidateDefaultsSpaceWeatherTimeout(t *testing.T) {
	cfg := Default()
	cfg.SpaceWeather.Timeout = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.SpaceWeather.Timeout)
}

func TestPeriodConfig(t *testing.T) {
	tests := []struct {
		name string
		in   PeriodConfig
		want dataset.Period
	}{
		{
			"empty defaults to campaign month",
			PeriodConfig{},
			dataset.WholeMonth("April", time.April),
		},
		{
			"month only",
			PeriodConfig{Month: 3},
			dataset.WholeMonth("March", time.March),
		},
		{
			"single day from missing to",
			PeriodConfig{Month: 4, FromDay: 15},
			dataset.DayRange("April", time.April, 15, 15),
		},
		{
			"range from first day",
			PeriodConfig{Month: 4, ToDay: 10},
			dataset.DayRange("April", time.April, 1, 10),
		},
		{
			"label passes through",
			PeriodConfig{Label: "campaign", Month: 4, FromDay: 15, ToDay: 28},
			dataset.DayRange("campaign", time.April, 15, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Period())
		})
	}
}

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths(PathsConfig{DataDir: "data", OutputDir: "out"})
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.DataDir))
	assert.True(t, filepath.IsAbs(paths.OutputDir))
	assert.Equal(t, filepath.Join(paths.OutputDir, "charts"), paths.ChartsDir)
	assert.Equal(t, filepath.Join(paths.OutputDir, "tables"), paths.TablesDir)
}

func TestPathsInput(t *testing.T) {
	paths, err := NewPaths(PathsConfig{DataDir: "/srv/data", OutputDir: "/srv/out"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/data", "log.xlsx"), paths.Input("log.xlsx"))
	assert.Equal(t, "/abs/log.xlsx", paths.Input("/abs/log.xlsx"))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(PathsConfig{
		DataDir:   filepath.Join(base, "data"),
		OutputDir: filepath.Join(base, "out"),
	})
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.ChartsDir)
	assert.DirExists(t, paths.TablesDir)
	// The data directory belongs to the operator and is never created.
	assert.NoDirExists(t, paths.DataDir)
}

func TestEnsureDirectoriesFailure(t *testing.T) {
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	paths, err := NewPaths(PathsConfig{
		DataDir:   filepath.Join(base, "data"),
		OutputDir: filepath.Join(blocked, "out"),
	})
	require.NoError(t, err)
	assert.Error(t, paths.EnsureDirectories())
}

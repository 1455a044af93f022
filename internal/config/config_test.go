package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuffmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
level:
  path: maps/cave.tuff
generate:
  seed: 7
render:
  borders: false
  view:
    width: 20
    height: 12
telemetry:
  verbosity: 2
  metrics_addr: ":2112"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "maps/cave.tuff", cfg.Level.Path)
	assert.Equal(t, int64(7), cfg.Generate.Seed)
	assert.Equal(t, 1, cfg.Render.Scale, "unset fields keep defaults")
	assert.False(t, cfg.Render.Borders)
	assert.Equal(t, ViewConfig{Width: 20, Height: 12}, cfg.Render.View)
	assert.Equal(t, "tuffmap.png", cfg.Render.Output)
	assert.Equal(t, 2, cfg.Telemetry.Verbosity)
	assert.Equal(t, ":2112", cfg.Telemetry.MetricsAddr)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "generate:\n  width: 32\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Generate.Width)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "generate: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "render:\n  scale: -1\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "telemetry:\n  sample_ratio: 1.5\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGetSeed(t *testing.T) {
	tests := []struct {
		name string
		cfg  int64
		env  string
		want int64
	}{
		{"config wins", 5, "9", 5},
		{"env fallback", 0, "9", 9},
		{"bad env", 0, "nine", 0},
		{"unset", 0, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvSeed, tt.env)
			assert.Equal(t, tt.want, GenerateConfig{Seed: tt.cfg}.GetSeed())
		})
	}
}

func TestGetMetricsAddr(t *testing.T) {
	t.Setenv(EnvMetricsAddr, ":9100")
	assert.Equal(t, ":2112", TelemetryConfig{MetricsAddr: ":2112"}.GetMetricsAddr())
	assert.Equal(t, ":9100", TelemetryConfig{}.GetMetricsAddr())

	t.Setenv(EnvMetricsAddr, "")
	assert.Empty(t, TelemetryConfig{}.GetMetricsAddr())
}

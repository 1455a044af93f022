package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/tuffmap/internal/config"
	"github.com/samdwyer/tuffmap/internal/level"
	"github.com/samdwyer/tuffmap/internal/sprite"
	"github.com/samdwyer/tuffmap/internal/world"
)

func TestRunGeneratesExportsAndRenders(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Generate = config.GenerateConfig{Seed: 3, Width: 24, Height: 18}
	cfg.Render.Output = filepath.Join(dir, "frame.png")
	cfg.Render.Reveal = true
	export := filepath.Join(dir, "map.tuff")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, export, &out, logr.Discard(), prometheus.NewRegistry()))
	assert.Contains(t, out.String(), "map")
	assert.Contains(t, out.String(), "24x18")
	assert.Contains(t, out.String(), "fingerprint")

	file, err := os.Open(cfg.Render.Output)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 24*sprite.TileSize, img.Bounds().Dx())
	assert.Equal(t, 18*sprite.TileSize, img.Bounds().Dy())

	// The exported level loads back into the same map.
	cfg.Level.Path = export
	cfg.Render.Output = ""
	var again bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, "", &again, logr.Discard(), prometheus.NewRegistry()))
	assert.Equal(t, fingerprintLine(t, out.String()), fingerprintLine(t, again.String()))
}

func TestRunExportKeepsLevelObjects(t *testing.T) {
	dir := t.TempDir()
	src := &level.Level{
		Map: world.MustParseMap(
			"#.#",
			"...",
			".~.",
		),
		StartX: 1,
		StartY: 1,
		Objects: []level.Object{
			{Type: 0, X: 1, Y: 1, Extra: 7},
			{Tree: true, Type: 2, X: 2, Y: 0},
		},
	}
	in := filepath.Join(dir, "in.tuff")
	writeFile(t, in, src)

	cfg := config.Default()
	cfg.Level.Path = in
	cfg.Render.Output = ""
	export := filepath.Join(dir, "out.tuff")
	require.NoError(t, run(context.Background(), cfg, export, &bytes.Buffer{}, logr.Discard(), prometheus.NewRegistry()))

	file, err := os.Open(export)
	require.NoError(t, err)
	defer file.Close()
	got, err := level.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, src.Objects, got.Objects)
	assert.Equal(t, 1, got.StartX)
	assert.Equal(t, 1, got.StartY)
	assert.Equal(t, src.Map.String(), got.Map.String())
}

func writeFile(t *testing.T, path string, lv *level.Level) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, level.Encode(file, lv))
	require.NoError(t, file.Close())
}

func TestRunViewAndScale(t *testing.T) {
	cfg := config.Default()
	cfg.Generate = config.GenerateConfig{Seed: 11, Width: 30, Height: 20}
	cfg.Render.Output = filepath.Join(t.TempDir(), "view.png")
	cfg.Render.View = config.ViewConfig{Width: 8, Height: 6}
	cfg.Render.Scale = 2

	require.NoError(t, run(context.Background(), cfg, "", &bytes.Buffer{}, logr.Discard(), prometheus.NewRegistry()))

	file, err := os.Open(cfg.Render.Output)
	require.NoError(t, err)
	defer file.Close()
	pc, err := png.DecodeConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 8*sprite.TileSize*2, pc.Width)
	assert.Equal(t, 6*sprite.TileSize*2, pc.Height)
}

func TestRunMissingLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Level.Path = filepath.Join(t.TempDir(), "missing.tuff")
	err := run(context.Background(), cfg, "", &bytes.Buffer{}, logr.Discard(), prometheus.NewRegistry())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFlagsApply(t *testing.T) {
	cfg := config.Default()
	flags{level: "a.tuff", output: "b.png", seed: 4, reveal: true}.apply(&cfg)
	assert.Equal(t, "a.tuff", cfg.Level.Path)
	assert.Equal(t, "b.png", cfg.Render.Output)
	assert.Equal(t, int64(4), cfg.Generate.Seed)
	assert.True(t, cfg.Render.Reveal)

	cfg = config.Default()
	flags{}.apply(&cfg)
	assert.Equal(t, config.Default(), cfg)
}

func fingerprintLine(t *testing.T, s string) string {
	t.Helper()
	for _, line := range bytes.Split([]byte(s), []byte("\n")) {
		if bytes.HasPrefix(line, []byte("fingerprint")) {
			return string(line)
		}
	}
	t.Fatalf("no fingerprint in %q", s)
	return ""
}

func TestRunMissingPalette(t *testing.T) {
	cfg := config.Default()
	cfg.Generate = config.GenerateConfig{Seed: 1, Width: 20, Height: 16}
	cfg.Render.Palette = filepath.Join(t.TempDir(), "palette.json")
	err := run(context.Background(), cfg, "", &bytes.Buffer{}, logr.Discard(), prometheus.NewRegistry())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRealMainExitCodes(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvMetricsAddr, "")
	dir := t.TempDir()
	out := filepath.Join(dir, "frame.png")

	assert.Equal(t, 0, realMain([]string{"-seed", "5", "-out", out}))
	_, err := os.Stat(out)
	assert.NoError(t, err)

	assert.Equal(t, 1, realMain([]string{"-level", filepath.Join(dir, "missing.tuff"), "-out", out}))
	assert.Equal(t, 1, realMain([]string{"-config", filepath.Join(dir, "missing.yaml")}))
	assert.Equal(t, 2, realMain([]string{"-no-such-flag"}))
}

// Package main is the entry point for tuffmap: it loads or generates a map,
// runs the classification passes, prints a summary and writes a PNG frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samdwyer/tuffmap/internal/config"
	"github.com/samdwyer/tuffmap/internal/game"
	"github.com/samdwyer/tuffmap/internal/gamedata"
	"github.com/samdwyer/tuffmap/internal/level"
	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/telemetry"
	"github.com/samdwyer/tuffmap/internal/ui"
	"github.com/samdwyer/tuffmap/internal/world"
)

type flags struct {
	config string
	level  string
	output string
	export string
	seed   int64
	reveal bool
}

func main() {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}
	os.Exit(realMain(os.Args[1:]))
}

// realMain runs the command and returns its exit code. Deferred cleanup,
// including the tracing flush, runs before the process exits.
func realMain(args []string) int {
	fs := flag.NewFlagSet("tuffmap", flag.ContinueOnError)
	var f flags
	fs.StringVar(&f.config, "config", "", "YAML config file (default $"+config.EnvConfig+")")
	fs.StringVar(&f.level, "level", "", "TUFF2 level file, overrides level.path")
	fs.StringVar(&f.output, "out", "", "PNG output path, overrides render.output")
	fs.StringVar(&f.export, "export", "", "write the loaded or generated map as a TUFF2 level")
	fs.Int64Var(&f.seed, "seed", 0, "generator seed, overrides generate.seed")
	fs.BoolVar(&f.reveal, "reveal", false, "start a visibility episode under the actor before rendering")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	f.apply(&cfg)

	logger := telemetry.NewLogger(os.Stderr, cfg.Telemetry.Verbosity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Telemetry.Tracing {
		// Set up OTEL environment variables from our .env variables
		setupOTelEnv()
		shutdown, err := telemetry.Setup(ctx, telemetry.TracingOptions{
			SampleRatio: cfg.Telemetry.SampleRatio,
			Logger:      logger,
		})
		if err != nil {
			logger.Error(err, "telemetry setup failed, running without tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error(err, "telemetry shutdown")
				}
			}()
		}
	}

	reg := telemetry.NewRegistry()
	addr := cfg.Telemetry.GetMetricsAddr()
	if addr != "" {
		telemetry.ServeMetrics(ctx, addr, reg, logger)
	}

	if err := run(ctx, cfg, f.export, os.Stdout, logger, reg); err != nil {
		logger.Error(err, "tuffmap failed")
		return 1
	}

	if addr != "" {
		logger.Info("serving metrics until interrupted", "addr", addr)
		<-ctx.Done()
	}
	return 0
}

// apply lets command-line flags override the config file.
func (f flags) apply(cfg *config.Config) {
	if f.level != "" {
		cfg.Level.Path = f.level
	}
	if f.output != "" {
		cfg.Render.Output = f.output
	}
	if f.seed != 0 {
		cfg.Generate.Seed = f.seed
	}
	if f.reveal {
		cfg.Render.Reveal = true
	}
}

func run(ctx context.Context, cfg config.Config, export string, out io.Writer, logger logr.Logger, reg prometheus.Registerer) error {
	gcfg := game.Config{
		Seed:      cfg.Generate.GetSeed(),
		Width:     cfg.Generate.Width,
		Height:    cfg.Generate.Height,
		Borders:   cfg.Render.Borders,
		FadeSteps: cfg.Render.FadeSteps,
	}
	if cfg.Level.Path != "" {
		lv, err := readLevel(cfg.Level.Path)
		if err != nil {
			return err
		}
		gcfg.Level = lv
	}
	if cfg.Render.Palette != "" {
		palette, err := gamedata.LoadPaletteFS(os.DirFS(filepath.Dir(cfg.Render.Palette)), filepath.Base(cfg.Render.Palette))
		if err != nil {
			return fmt.Errorf("palette: %w", err)
		}
		gcfg.Palette = palette
	}

	s, err := game.New(ctx, gcfg, game.WithLogger(logger), game.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	pipe := s.Pipeline()

	cover := 1.0
	if cfg.Render.Reveal {
		x, y := s.Actor().Position()
		n, err := pipe.BeginEpisode(ctx, x, y)
		if err != nil {
			return err
		}
		if n > 0 {
			cover = 0
		}
		logger.Info("reveal", "x", x, "y", y, "cells", n)
	}

	if export != "" {
		if err := writeLevel(export, s, gcfg.Level); err != nil {
			return err
		}
		logger.Info("level exported", "path", export)
	}

	printStats(out, s)

	if cfg.Render.Output == "" {
		return nil
	}
	w, h := pipe.Size()
	view := world.Rect{X1: w, Y1: h}
	if cfg.Render.View.Width > 0 && cfg.Render.View.Height > 0 {
		x, y := s.Actor().Position()
		view = ui.Camera(x, y, w, h, cfg.Render.View.Width, cfg.Render.View.Height)
	}
	frame, err := ui.NewRenderer(pipe, s.Atlas(), ui.WithScale(cfg.Render.Scale)).Render(view, s.Actor(), cover)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	file, err := os.Create(cfg.Render.Output)
	if err != nil {
		return err
	}
	if err := png.Encode(file, frame); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", cfg.Render.Output, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	logger.Info("frame written", "path", cfg.Render.Output,
		"width", frame.Bounds().Dx(), "height", frame.Bounds().Dy())
	return nil
}

func readLevel(path string) (*level.Level, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lv, err := level.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return lv, nil
}

// writeLevel saves the session's current map. When the session was loaded
// from src, its start position and objects are carried over; otherwise the
// actor's position becomes the start.
func writeLevel(path string, s *game.Session, src *level.Level) error {
	lv := &level.Level{Map: s.Pipeline().MapCopy()}
	if src != nil {
		lv.StartX, lv.StartY = src.StartX, src.StartY
		lv.Objects = src.Objects
	} else {
		lv.StartX, lv.StartY = s.Actor().Position()
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := level.Encode(file, lv); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func printStats(out io.Writer, s *game.Session) {
	pipe := s.Pipeline()
	st := pipe.Stats()
	w, h := pipe.Size()
	x, y := s.Actor().Position()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "map\t%dx%d\n", w, h)
	fmt.Fprintf(tw, "cells\t%d (%d non-empty)\n", st.Cells, st.NonEmpty)
	for d, n := range st.Density {
		fmt.Fprintf(tw, "density %d\t%d\n", d, n)
	}
	for _, z := range []region.ZoneClass{region.ZoneInactive, region.ZoneActiveLiquid, region.ZoneActiveRaisedEdge, region.ZoneNone} {
		fmt.Fprintf(tw, "zone %s\t%d\n", z, st.Zones[z])
	}
	fmt.Fprintf(tw, "see-through\t%d\n", st.SeeThrough)
	fmt.Fprintf(tw, "actor\t(%d,%d) zone %s\n", x, y, s.Ambient())
	fmt.Fprintf(tw, "fingerprint\t%016x\n", pipe.Fingerprint())
	tw.Flush()
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	apiKey := os.Getenv("HONEYCOMB_TUFFMAP_API_KEY")
	if apiKey == "" {
		return
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")
	}
	dataset := os.Getenv("HONEYCOMB_TUFFMAP_DATASET")
	if dataset == "" {
		dataset = "tuffmap" // default dataset name
	}
	os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
		fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
}

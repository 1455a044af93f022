package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/tuffmap/internal/entity"
	"github.com/samdwyer/tuffmap/internal/gamedata"
	"github.com/samdwyer/tuffmap/internal/pipeline"
	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/sprite"
	"github.com/samdwyer/tuffmap/internal/telemetry"
	"github.com/samdwyer/tuffmap/internal/tilecache"
	"github.com/samdwyer/tuffmap/internal/world"
)

// Session holds a loaded map with its pipeline, tile cache and actor.
type Session struct {
	pipe  *pipeline.Pipeline
	cache *tilecache.Cache
	atlas *sprite.Atlas
	actor *entity.Actor
	state State

	fadeSteps int
	cover     int // fade steps of the covering terrain still drawn, 0..fadeSteps

	logger logr.Logger
	tracer trace.Tracer
	reg    prometheus.Registerer
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger handed to the pipeline.
func WithLogger(logger logr.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithTracer sets the tracer handed to the pipeline.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = tracer
	}
}

// WithRegisterer registers pipeline and tile cache metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Session) {
		s.reg = reg
	}
}

// New builds a session: it loads or generates the map, runs the first full
// pass and places the actor.
func New(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		state:     StateExplore,
		fadeSteps: cfg.FadeSteps,
		logger:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = telemetry.Tracer("game")
	}
	if s.fadeSteps <= 0 {
		s.fadeSteps = DefaultFadeSteps
	}
	s.cover = s.fadeSteps

	ctx, span := s.tracer.Start(ctx, "game.init")
	defer span.End()

	m, startX, startY, err := s.loadMap(ctx, cfg)
	if err != nil {
		return nil, err
	}

	palette := cfg.Palette
	if palette == nil {
		if palette, err = gamedata.LoadPalette(); err != nil {
			return nil, err
		}
	}
	s.atlas = sprite.NewAtlas(palette)
	s.cache = tilecache.New(s.atlas, tilecache.WithMetrics(tilecache.NewMetrics(s.reg)))
	s.cache.SetBorders(cfg.Borders)

	s.pipe, err = pipeline.New(m,
		pipeline.WithLogger(s.logger),
		pipeline.WithTracer(s.tracer),
		pipeline.WithCache(s.cache),
		pipeline.WithMetrics(pipeline.NewMetrics(s.reg)),
	)
	if err != nil {
		return nil, err
	}
	if err := s.pipe.FullPass(ctx); err != nil {
		return nil, err
	}

	s.actor = entity.NewActor(startX, startY)
	span.SetAttributes(
		attribute.Int("map.width", m.Width),
		attribute.Int("map.height", m.Height),
		attribute.Int("actor.start_x", startX),
		attribute.Int("actor.start_y", startY),
	)
	return s, nil
}

func (s *Session) loadMap(ctx context.Context, cfg Config) (*world.Map, int, int, error) {
	if cfg.Level != nil {
		if cfg.Level.Map == nil {
			return nil, 0, 0, fmt.Errorf("level without map: %w", world.ErrInvalidDimensions)
		}
		return cfg.Level.Map, cfg.Level.StartX, cfg.Level.StartY, nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	width, height := cfg.Width, cfg.Height
	if width == 0 {
		width = world.DefaultWidth
	}
	if height == 0 {
		height = world.DefaultHeight
	}

	gen := world.NewGenerator(width, height, rand.New(rand.NewSource(seed)))
	m, err := gen.Generate(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	s.logger.V(1).Info("map generated", "seed", seed, "width", width, "height", height, "caves", len(gen.Caves()))

	// Place the actor in the first cave, falling back to the map center.
	if caves := gen.Caves(); len(caves) > 0 {
		x, y := caves[0].Center()
		return m, x, y, nil
	}
	return m, width / 2, height / 2, nil
}

// Pipeline returns the session's pipeline.
func (s *Session) Pipeline() *pipeline.Pipeline {
	return s.pipe
}

// Atlas returns the image store tiles are drawn from.
func (s *Session) Atlas() *sprite.Atlas {
	return s.atlas
}

// Actor returns the actor.
func (s *Session) Actor() *entity.Actor {
	return s.actor
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Cover returns the opacity of terrain over see-through cells, from 0
// (fully revealed) to 1 (fully covered).
func (s *Session) Cover() float64 {
	return float64(s.cover) / float64(s.fadeSteps)
}

// Move shifts the actor by the given delta if the target cell is on the map.
func (s *Session) Move(dx, dy int) bool {
	w, h := s.pipe.Size()
	return s.actor.MoveWithin(dx, dy, world.Rect{X1: w, Y1: h})
}

// Update advances the session by one tick. Standing on a collidable cell
// that is not yet see-through starts a visibility episode there. Leaving
// hidden terrain fades the cover back in and ends the episode once it is
// fully opaque.
func (s *Session) Update(ctx context.Context) error {
	x, y := s.actor.Position()

	if s.pipe.Collidable(x, y) {
		v, err := s.pipe.VisualAt(x, y)
		if err != nil {
			return err
		}
		if !v.SeeThrough {
			n, err := s.pipe.BeginEpisode(ctx, x, y)
			if err != nil {
				return err
			}
			s.logger.V(2).Info("actor entered hidden terrain", "x", x, "y", y, "revealed", n)
		}
		s.state = StateRevealing
		s.cover = max(0, s.cover-1)
		return nil
	}

	if s.state != StateRevealing {
		return nil
	}
	s.cover = min(s.fadeSteps, s.cover+1)
	if s.cover < s.fadeSteps {
		return nil
	}
	if err := s.pipe.EndEpisode(ctx); err != nil {
		return err
	}
	s.state = StateExplore
	return nil
}

// Ambient returns the ambient zone under the actor, ZoneNone off the map.
func (s *Session) Ambient() region.ZoneClass {
	x, y := s.actor.Position()
	z, err := s.pipe.ZoneAt(x, y)
	if err != nil {
		return region.ZoneNone
	}
	return z
}

// Break reverts a breakable cell and refreshes its neighborhood.
func (s *Session) Break(ctx context.Context, x, y int) (bool, error) {
	return s.pipe.Break(ctx, x, y)
}

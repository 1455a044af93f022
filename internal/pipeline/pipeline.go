// Package pipeline keeps the derived per-cell data of a terrain map in step
// with its terrain, collision overlay and visibility state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/tuffmap/internal/autotile"
	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/telemetry"
	"github.com/samdwyer/tuffmap/internal/tilecache"
	"github.com/samdwyer/tuffmap/internal/visibility"
	"github.com/samdwyer/tuffmap/internal/world"
)

// ErrNoCache is returned by TileAt when the pipeline was built without a tile cache.
var ErrNoCache = errors.New("pipeline has no tile cache")

// Pipeline owns a map together with everything derived from it. The map,
// the visibility state and the derived arrays change together under one
// write lock; queries take the read lock.
type Pipeline struct {
	mu sync.RWMutex

	m       *world.Map
	vis     *visibility.State
	finder  *visibility.Finder
	labeler *region.Labeler

	density []region.DensityClass
	zone    []region.ZoneClass
	desc    []autotile.Descriptor

	cache   *tilecache.Cache
	logger  logr.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Pass summaries log at V(1), episodes at V(2).
func WithLogger(logger logr.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTracer sets the tracer used for pass spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithCache attaches a tile cache for TileAt and SetBorders.
func WithCache(cache *tilecache.Cache) Option {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

// WithMetrics records pass counts and durations in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a pipeline over m. Derived data stays zero until the first
// FullPass. Maps with a zero side are rejected before anything is allocated.
func New(m *world.Map, opts ...Option) (*Pipeline, error) {
	if m == nil {
		return nil, fmt.Errorf("new pipeline: nil map: %w", world.ErrInvalidDimensions)
	}
	w, h := m.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("new pipeline over %dx%d map: %w", w, h, world.ErrInvalidDimensions)
	}

	p := &Pipeline{
		m:      m,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = telemetry.NoopTracer()
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil)
	}

	p.vis = visibility.NewState(w, h)
	p.finder = visibility.NewFinder(m, p.tracer)
	p.labeler = region.NewLabeler(w, h)
	p.density = make([]region.DensityClass, w*h)
	p.zone = make([]region.ZoneClass, w*h)
	p.desc = make([]autotile.Descriptor, w*h)
	for i := range p.zone {
		p.zone[i] = region.ZoneNone
	}
	return p, nil
}

// FullPass relabels every component and reclassifies every cell.
func (p *Pipeline) FullPass(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullPass(ctx)
}

func (p *Pipeline) fullPass(ctx context.Context) error {
	_, span := p.tracer.Start(ctx, "pipeline.full_pass")
	defer span.End()
	start := time.Now()

	ground, err := region.Decompose(p.m, p.labeler, region.GroundPolicy(p.m))
	if err != nil {
		return fmt.Errorf("ground components: %w", err)
	}
	zones, err := region.Decompose(p.m, p.labeler, region.ZonePolicy(p.m))
	if err != nil {
		return fmt.Errorf("zone components: %w", err)
	}

	w, h := p.m.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := p.m.Index(x, y)
			t := p.m.TerrainAt(x, y)
			if t.IsEmpty() {
				p.clear(i)
				continue
			}
			p.density[i] = region.DensityClass(ground.Class(x, y))
			p.zone[i] = region.ZoneFor(t, zones.Class(x, y))
			p.desc[i] = autotile.Classify(p.m, p.vis, x, y)
		}
	}

	elapsed := time.Since(start)
	p.metrics.observe(passFull, elapsed, w*h)
	span.SetAttributes(
		attribute.Int("pipeline.width", w),
		attribute.Int("pipeline.height", h),
		attribute.Int("pipeline.ground_components", ground.Count()),
		attribute.Int("pipeline.zone_components", zones.Count()),
	)
	p.logger.V(1).Info("full pass",
		"width", w, "height", h,
		"groundComponents", ground.Count(),
		"zoneComponents", zones.Count(),
		"elapsed", elapsed)
	return nil
}

// Incremental reclassifies the neighborhood masks of r grown by one cell.
// Cells that are now Empty lose all derived data. Density and zone classes
// of other cells keep their last full-pass value.
func (p *Pipeline) Incremental(ctx context.Context, r world.Rect) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.incremental(ctx, r)
}

func (p *Pipeline) incremental(ctx context.Context, r world.Rect) error {
	w, h := p.m.Size()
	if r.X1 < r.X0 || r.Y1 < r.Y0 || !r.Intersects(p.m.Bounds()) {
		return fmt.Errorf("incremental pass over %+v: %w", r, world.ErrOutOfRange)
	}

	_, span := p.tracer.Start(ctx, "pipeline.incremental")
	defer span.End()
	start := time.Now()

	area := r.Expand(1).Clip(w, h)
	for y := area.Y0; y < area.Y1; y++ {
		for x := area.X0; x < area.X1; x++ {
			i := p.m.Index(x, y)
			if p.m.TerrainAt(x, y).IsEmpty() {
				p.clear(i)
				continue
			}
			// Newly filled cells have no component until the next full pass.
			if p.zone[i] == region.ZoneNone {
				p.zone[i] = region.ZoneInactive
			}
			p.desc[i] = autotile.Classify(p.m, p.vis, x, y)
		}
	}

	elapsed := time.Since(start)
	p.metrics.observe(passIncremental, elapsed, area.Width()*area.Height())
	span.SetAttributes(
		attribute.Int("pipeline.x0", area.X0),
		attribute.Int("pipeline.y0", area.Y0),
		attribute.Int("pipeline.x1", area.X1),
		attribute.Int("pipeline.y1", area.Y1),
	)
	p.logger.V(1).Info("incremental pass", "area", area, "elapsed", elapsed)
	return nil
}

func (p *Pipeline) clear(i int) {
	p.density[i] = 0
	p.zone[i] = region.ZoneNone
	p.desc[i] = autotile.Descriptor{}
}

// BeginEpisode ends any running visibility episode and starts a new one
// seeded at (x,y). It returns the number of cells revealed. A full pass runs
// whenever the visibility state changed.
func (p *Pipeline) BeginEpisode(ctx context.Context, x, y int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.m.InBounds(x, y) {
		return 0, fmt.Errorf("begin episode at (%d,%d): %w", x, y, world.ErrOutOfRange)
	}
	wasActive := p.vis.Active()
	p.vis.Clear()

	n, err := p.finder.Find(ctx, p.vis, x, y)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.metrics.episodes.Inc()
		p.logger.V(2).Info("visibility episode started",
			"episode", p.vis.Episode(), "x", x, "y", y,
			"cells", n, "liquid", p.vis.LiquidFlavor())
	}
	if n > 0 || wasActive {
		if err := p.fullPass(ctx); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// EndEpisode clears the visibility state. It is a no-op when no episode runs.
func (p *Pipeline) EndEpisode(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.vis.Active() {
		return nil
	}
	p.logger.V(2).Info("visibility episode ended", "episode", p.vis.Episode(), "cells", p.vis.Count())
	p.vis.Clear()
	return p.fullPass(ctx)
}

// EpisodeActive reports whether any cell is currently see-through.
func (p *Pipeline) EpisodeActive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vis.Active()
}

// SetTerrain changes one cell and reclassifies its neighborhood.
func (p *Pipeline) SetTerrain(ctx context.Context, x, y int, t world.Terrain) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.m.SetTerrain(x, y, t); err != nil {
		return err
	}
	return p.incremental(ctx, world.RectAt(x, y))
}

// SetCollidable changes the collision overlay of one cell. The overlay only
// matters to visibility episodes, so no pass runs.
func (p *Pipeline) SetCollidable(x, y int, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.m.SetCollidable(x, y, on)
}

// Commit runs a full pass after a batch of edits that may have changed connectivity.
func (p *Pipeline) Commit(ctx context.Context) error {
	return p.FullPass(ctx)
}

// Break reverts a Breakable cell to its surrounding terrain and refreshes
// its neighborhood. It reports whether the cell changed.
func (p *Pipeline) Break(ctx context.Context, x, y int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dirty, changed, err := p.m.Break(x, y)
	if err != nil || !changed {
		return false, err
	}
	if err := p.incremental(ctx, dirty); err != nil {
		return false, err
	}
	p.logger.V(2).Info("cell broken", "x", x, "y", y, "now", p.m.TerrainAt(x, y))
	return true, nil
}

// SetBorders toggles edge decoration in the attached tile cache.
func (p *Pipeline) SetBorders(on bool) {
	if p.cache != nil {
		p.cache.SetBorders(on)
	}
}

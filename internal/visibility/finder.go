package visibility

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/telemetry"
	"github.com/samdwyer/tuffmap/internal/world"
)

// Source is what the finder needs to know about the map.
type Source interface {
	Size() (width, height int)
	Collidable(x, y int) bool
	SurroundType(x, y int) world.Terrain
}

// Finder reveals the connected patch of collidable cells around a seed.
type Finder struct {
	src     Source
	labeler *region.Labeler
	tracer  trace.Tracer
}

// NewFinder creates a finder over src. A nil tracer disables tracing.
func NewFinder(src Source, tracer trace.Tracer) *Finder {
	if tracer == nil {
		tracer = telemetry.NoopTracer()
	}
	w, h := src.Size()
	return &Finder{src: src, labeler: region.NewLabeler(w, h), tracer: tracer}
}

// Find starts a new episode in state seeded at (x,y) and returns the number of
// cells marked see-through. Any previous episode in state is cleared first.
// A seed that is not collidable, or already see-through, yields 0 and leaves
// state untouched.
func (f *Finder) Find(ctx context.Context, state *State, x, y int) (int, error) {
	w, h := f.src.Size()
	if x < 0 || x >= w || y < 0 || y >= h {
		return 0, fmt.Errorf("find from (%d,%d): %w", x, y, world.ErrOutOfRange)
	}
	if !f.src.Collidable(x, y) || state.SeeThrough(x, y) {
		return 0, nil
	}

	_, span := f.tracer.Start(ctx, "visibility.find")
	defer span.End()

	state.begin()
	count := f.labeler.Fill(x, y,
		func(cx, cy int) bool {
			return f.src.Collidable(cx, cy) && !state.SeeThrough(cx, cy)
		},
		func(cx, cy int) {
			state.mark(cx, cy)
			if f.src.SurroundType(cx, cy) == world.Liquid {
				state.liquidFlavor = true
			}
		},
	)

	span.SetAttributes(
		attribute.Int("visibility.seed_x", x),
		attribute.Int("visibility.seed_y", y),
		attribute.Int("visibility.cells", count),
		attribute.Bool("visibility.liquid", state.LiquidFlavor()),
	)
	return count, nil
}

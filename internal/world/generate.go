package world

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/tuffmap/internal/telemetry"
)

const (
	// Default generated map dimensions
	DefaultWidth  = 96
	DefaultHeight = 64

	// BSP parameters
	minRoomSize = 6  // Minimum cave dimension
	maxRoomSize = 18 // Maximum cave dimension
	minLeafSize = 9  // Minimum BSP leaf size before stopping split
)

// Generator carves caves out of solid ground and decorates them with
// liquid pools, raised ledges, breakable plugs and hidden passages.
type Generator struct {
	Width  int
	Height int

	rng   *rand.Rand
	m     *Map
	caves []Rect
}

// NewGenerator creates a generator. A nil rng seeds from the clock.
func NewGenerator(width, height int, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{Width: width, Height: height, rng: rng}
}

// Caves returns the cave rectangles carved by the last Generate call.
func (g *Generator) Caves() []Rect {
	return g.caves
}

// Generate builds a new map using a BSP split of the grid.
func (g *Generator) Generate(ctx context.Context) (*Map, error) {
	tracer := telemetry.Tracer("world")
	_, span := tracer.Start(ctx, "world.generate")
	defer span.End()

	startTime := time.Now()

	m, err := NewMap(g.Width, g.Height)
	if err != nil {
		return nil, err
	}
	_ = m.Fill(m.Bounds(), Solid)
	g.m = m
	g.caves = g.caves[:0]

	root := &bspNode{area: Rect{X0: 1, Y0: 1, X1: g.Width - 1, Y1: g.Height - 1}}
	g.splitNode(root)
	g.createCaves(root)
	g.connectCaves(root)
	for _, cave := range g.caves {
		g.decorate(cave)
	}

	span.SetAttributes(
		attribute.Int("map.width", g.Width),
		attribute.Int("map.height", g.Height),
		attribute.Int("map.cave_count", len(g.caves)),
		attribute.Int64("map.generation_ms", time.Since(startTime).Milliseconds()),
	)
	return m, nil
}

// bspNode represents a node in the BSP tree.
type bspNode struct {
	area        Rect
	left, right *bspNode
	cave        *Rect
}

// isLeaf returns true if this node has no children.
func (n *bspNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// splitNode recursively splits a BSP node.
func (g *Generator) splitNode(node *bspNode) {
	w, h := node.area.Width(), node.area.Height()
	if w < minLeafSize*2 && h < minLeafSize*2 {
		return
	}

	var horizontal bool
	switch {
	case w > h && w >= minLeafSize*2:
		horizontal = false
	case h >= minLeafSize*2:
		horizontal = true
	case w >= minLeafSize*2:
		horizontal = false
	default:
		return
	}

	size := w
	if horizontal {
		size = h
	}
	lo, hi := minLeafSize, size-minLeafSize
	if hi <= lo {
		return
	}
	split := lo + g.rng.Intn(hi-lo+1)

	a := node.area
	if horizontal {
		node.left = &bspNode{area: Rect{X0: a.X0, Y0: a.Y0, X1: a.X1, Y1: a.Y0 + split}}
		node.right = &bspNode{area: Rect{X0: a.X0, Y0: a.Y0 + split, X1: a.X1, Y1: a.Y1}}
	} else {
		node.left = &bspNode{area: Rect{X0: a.X0, Y0: a.Y0, X1: a.X0 + split, Y1: a.Y1}}
		node.right = &bspNode{area: Rect{X0: a.X0 + split, Y0: a.Y0, X1: a.X1, Y1: a.Y1}}
	}

	g.splitNode(node.left)
	g.splitNode(node.right)
}

// createCaves carves a cave into every leaf of the BSP tree.
func (g *Generator) createCaves(node *bspNode) {
	if node == nil {
		return
	}
	if !node.isLeaf() {
		g.createCaves(node.left)
		g.createCaves(node.right)
		return
	}

	w, h := node.area.Width(), node.area.Height()
	caveW := minRoomSize + g.rng.Intn(max(1, min(maxRoomSize-minRoomSize+1, w-minRoomSize+1)))
	caveH := minRoomSize + g.rng.Intn(max(1, min(maxRoomSize-minRoomSize+1, h-minRoomSize+1)))
	caveW = min(caveW, w-2)
	caveH = min(caveH, h-2)
	if caveW < minRoomSize || caveH < minRoomSize {
		return
	}

	x := node.area.X0 + 1 + g.rng.Intn(max(1, w-caveW-1))
	y := node.area.Y0 + 1 + g.rng.Intn(max(1, h-caveH-1))
	cave := Rect{X0: x, Y0: y, X1: x + caveW, Y1: y + caveH}
	node.cave = &cave
	g.caves = append(g.caves, cave)
	g.carve(cave, Empty)
}

// carve sets every interior cell of r to t, keeping a solid map border.
func (g *Generator) carve(r Rect, t Terrain) {
	r = r.Clip(g.Width-1, g.Height-1)
	for y := max(r.Y0, 1); y < r.Y1; y++ {
		for x := max(r.X0, 1); x < r.X1; x++ {
			g.m.terrain[g.m.Index(x, y)] = t
		}
	}
}

// connectCaves links sibling subtrees with tunnels.
func (g *Generator) connectCaves(node *bspNode) {
	if node == nil || node.isLeaf() {
		return
	}
	g.connectCaves(node.left)
	g.connectCaves(node.right)

	a, b := g.anyCave(node.left), g.anyCave(node.right)
	if a == nil || b == nil {
		return
	}
	x1, y1 := a.Center()
	x2, y2 := b.Center()
	if g.rng.Intn(2) == 0 {
		g.carve(Rect{X0: min(x1, x2), Y0: y1, X1: max(x1, x2) + 1, Y1: y1 + 1}, Empty)
		g.carve(Rect{X0: x2, Y0: min(y1, y2), X1: x2 + 1, Y1: max(y1, y2) + 1}, Empty)
	} else {
		g.carve(Rect{X0: x1, Y0: min(y1, y2), X1: x1 + 1, Y1: max(y1, y2) + 1}, Empty)
		g.carve(Rect{X0: min(x1, x2), Y0: y2, X1: max(x1, x2) + 1, Y1: y2 + 1}, Empty)
	}
}

// anyCave returns a cave from a subtree, left first.
func (g *Generator) anyCave(node *bspNode) *Rect {
	if node == nil {
		return nil
	}
	if node.cave != nil {
		return node.cave
	}
	if c := g.anyCave(node.left); c != nil {
		return c
	}
	return g.anyCave(node.right)
}

// decorate floods the bottom of a cave, lines part of it with a raised
// ledge and drops a breakable plug or a hidden passage into the wall.
func (g *Generator) decorate(cave Rect) {
	depth := 1 + g.rng.Intn(max(1, cave.Height()/3))
	pool := Rect{X0: cave.X0, Y0: cave.Y1 - depth, X1: cave.X1, Y1: cave.Y1}
	if g.rng.Intn(3) > 0 {
		g.carve(pool, Liquid)
	}

	ledgeY := cave.Y0 + g.rng.Intn(max(1, cave.Height()/2))
	ledgeW := 2 + g.rng.Intn(max(1, cave.Width()/2))
	ledgeX := cave.X0 + g.rng.Intn(max(1, cave.Width()-ledgeW))
	g.carve(Rect{X0: ledgeX, Y0: ledgeY, X1: ledgeX + ledgeW, Y1: ledgeY + 1}, RaisedEdge)

	// Wall cell just above the cave's top-left corner.
	wx, wy := cave.X0+g.rng.Intn(cave.Width()), cave.Y0-1
	if !g.m.InBounds(wx, wy) || wy == 0 || g.m.TerrainAt(wx, wy) != Solid {
		return
	}
	if g.rng.Intn(2) == 0 {
		g.m.terrain[g.m.Index(wx, wy)] = Breakable
		return
	}
	for dx := 0; dx < 3 && g.m.InBounds(wx+dx, wy) && wx+dx < g.Width-1; dx++ {
		if g.m.TerrainAt(wx+dx, wy) == Solid {
			g.m.collision[g.m.Index(wx+dx, wy)] = true
		}
	}
}

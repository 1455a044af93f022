// Package autotile derives per-cell edge, corner and border bitmasks from the
// 3x3 neighborhood of a cell.
package autotile

import "github.com/samdwyer/tuffmap/internal/world"

// Edge bits, one per cardinal neighbor whose appearance differs.
const (
	EdgeUp    uint8 = 1
	EdgeRight uint8 = 2
	EdgeDown  uint8 = 4
	EdgeLeft  uint8 = 8
)

// Corner bits, one per concave inner corner.
const (
	CornerTopLeft     uint8 = 1
	CornerTopRight    uint8 = 2
	CornerBottomRight uint8 = 4
	CornerBottomLeft  uint8 = 8
)

// Border bits share the edge layout. The liquid rule only ever sets BorderUp.
const (
	BorderUp    = EdgeUp
	BorderRight = EdgeRight
	BorderDown  = EdgeDown
	BorderLeft  = EdgeLeft
)

// MaxMask is the largest value any of the three masks can take.
const MaxMask = 15

// Source is the terrain side of the neighborhood.
type Source interface {
	Size() (width, height int)
	TerrainAt(x, y int) world.Terrain
}

// View is the visibility side of the neighborhood.
type View interface {
	SeeThrough(x, y int) bool
	LiquidFlavor() bool
}

// Descriptor is the visual descriptor of one cell.
type Descriptor struct {
	Edge   uint8
	Corner uint8
	Border uint8
}

// IsZero reports whether no bit is set in any mask.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

// appearance is the pair two cells are compared by.
type appearance struct {
	terrain world.Terrain
	see     bool
}

type neighborhood struct {
	src    Source
	vis    View
	width  int
	height int
}

func (n neighborhood) inBounds(x, y int) bool {
	return x >= 0 && x < n.width && y >= 0 && y < n.height
}

func (n neighborhood) at(x, y int) appearance {
	return appearance{terrain: n.src.TerrainAt(x, y), see: n.vis.SeeThrough(x, y)}
}

// same reports whether (x,y) looks like a. Cells off the grid always do.
func (n neighborhood) same(x, y int, a appearance) bool {
	return !n.inBounds(x, y) || n.at(x, y) == a
}

// open reports whether (x,y) is plain empty space. Cells off the grid are.
func (n neighborhood) open(x, y int) bool {
	return !n.inBounds(x, y) || n.at(x, y) == appearance{terrain: world.Empty}
}

// Classify computes the descriptor of cell (x,y). Empty cells and cells off
// the grid get the zero descriptor.
func Classify(src Source, vis View, x, y int) Descriptor {
	w, h := src.Size()
	n := neighborhood{src: src, vis: vis, width: w, height: h}
	if !n.inBounds(x, y) {
		return Descriptor{}
	}
	self := n.at(x, y)
	if self.terrain.IsEmpty() {
		return Descriptor{}
	}

	up := n.same(x, y-1, self)
	right := n.same(x+1, y, self)
	down := n.same(x, y+1, self)
	left := n.same(x-1, y, self)

	var d Descriptor
	if !up {
		d.Edge |= EdgeUp
	}
	if !right {
		d.Edge |= EdgeRight
	}
	if !down {
		d.Edge |= EdgeDown
	}
	if !left {
		d.Edge |= EdgeLeft
	}

	if up && left && !n.same(x-1, y-1, self) {
		d.Corner |= CornerTopLeft
	}
	if up && right && !n.same(x+1, y-1, self) {
		d.Corner |= CornerTopRight
	}
	if down && right && !n.same(x+1, y+1, self) {
		d.Corner |= CornerBottomRight
	}
	if down && left && !n.same(x-1, y+1, self) {
		d.Corner |= CornerBottomLeft
	}

	d.Border = n.border(self.terrain, x, y)
	return d
}

func (n neighborhood) border(t world.Terrain, x, y int) uint8 {
	switch {
	case t == world.Liquid, t == world.RaisedEdge && n.vis.LiquidFlavor() && n.vis.SeeThrough(x, y):
		if n.open(x, y-1) || n.src.TerrainAt(x, y-1) == world.RaisedEdge {
			return BorderUp
		}
		return 0
	case t == world.RaisedEdge:
		var b uint8
		if n.open(x, y-1) {
			b |= BorderUp
		}
		if n.open(x+1, y) {
			b |= BorderRight
		}
		if n.open(x, y+1) {
			b |= BorderDown
		}
		if n.open(x-1, y) {
			b |= BorderLeft
		}
		return b
	default:
		return 0
	}
}

// NoVisibility is a View with nothing see-through and no liquid flavor.
type NoVisibility struct{}

// SeeThrough always returns false.
func (NoVisibility) SeeThrough(int, int) bool { return false }

// LiquidFlavor always returns false.
func (NoVisibility) LiquidFlavor() bool { return false }

// Package visibility tracks cells that are temporarily see-through while an
// actor stands inside a patch of hidden solid terrain.
package visibility

import (
	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"

	"github.com/samdwyer/tuffmap/internal/world"
)

// State is the transient visibility state of one map. The zero value is
// not usable; call NewState.
type State struct {
	width  int
	height int

	cells        mapset.Set[int] // flat indices of see-through cells
	bounds       world.Rect      // inclusive-exclusive box around cells
	liquidFlavor bool
	episode      uuid.UUID
}

// NewState creates an empty state for a width x height grid.
func NewState(width, height int) *State {
	return &State{
		width:  width,
		height: height,
		cells:  mapset.New[int](),
	}
}

// SeeThrough reports whether a cell is currently see-through.
func (s *State) SeeThrough(x, y int) bool {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return false
	}
	return s.cells.Has(y*s.width + x)
}

// LiquidFlavor reports whether the revealed patch lies over liquid.
func (s *State) LiquidFlavor() bool {
	return s.liquidFlavor
}

// Count returns the number of see-through cells.
func (s *State) Count() int {
	return s.cells.Size()
}

// Active reports whether an episode currently has cells revealed.
func (s *State) Active() bool {
	return s.cells.Size() > 0
}

// Episode returns the id of the current episode, uuid.Nil when idle.
func (s *State) Episode() uuid.UUID {
	return s.episode
}

// Bounds returns the bounding box of the see-through cells.
func (s *State) Bounds() (world.Rect, bool) {
	if !s.Active() {
		return world.Rect{}, false
	}
	return s.bounds, true
}

// Halo returns the bounding box grown by one cell and clipped to the grid.
func (s *State) Halo() (world.Rect, bool) {
	b, ok := s.Bounds()
	if !ok {
		return world.Rect{}, false
	}
	return b.Expand(1).Clip(s.width, s.height), true
}

// InHalo reports whether a cell lies in the halo but is not itself see-through.
func (s *State) InHalo(x, y int) bool {
	h, ok := s.Halo()
	return ok && h.Contains(x, y) && !s.SeeThrough(x, y)
}

// Cells returns the see-through cells in raster order.
func (s *State) Cells() [][2]int {
	b, ok := s.Bounds()
	if !ok {
		return nil
	}
	out := make([][2]int, 0, s.cells.Size())
	for y := b.Y0; y < b.Y1; y++ {
		for x := b.X0; x < b.X1; x++ {
			if s.cells.Has(y*s.width + x) {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// Clear ends the current episode. It unmarks every cell inside the previous
// bounding box and resets the liquid flavor.
func (s *State) Clear() {
	if b, ok := s.Bounds(); ok {
		for y := b.Y0; y < b.Y1; y++ {
			for x := b.X0; x < b.X1; x++ {
				s.cells.Remove(y*s.width + x)
			}
		}
	}
	if s.cells.Size() != 0 {
		s.cells = mapset.New[int]()
	}
	s.bounds = world.Rect{}
	s.liquidFlavor = false
	s.episode = uuid.Nil
}

// begin starts a fresh episode.
func (s *State) begin() {
	s.Clear()
	s.episode = uuid.New()
	s.bounds = world.Rect{X0: s.width, Y0: s.height}
}

// mark flags a cell as see-through and grows the bounding box.
func (s *State) mark(x, y int) {
	s.cells.Put(y*s.width + x)
	s.bounds.X0 = min(s.bounds.X0, x)
	s.bounds.Y0 = min(s.bounds.Y0, y)
	s.bounds.X1 = max(s.bounds.X1, x+1)
	s.bounds.Y1 = max(s.bounds.Y1, y+1)
}

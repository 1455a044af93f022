package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned for grids with a zero or negative side.
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	// ErrOutOfRange is returned when a caller passes coordinates outside the grid.
	ErrOutOfRange = errors.New("coordinates out of range")
	// ErrInvalidTerrain is returned for unknown terrain codes.
	ErrInvalidTerrain = errors.New("invalid terrain code")
)

// Map is a fixed-size terrain grid with a parallel collision overlay.
// Cells are stored row-major: index = y*Width + x.
type Map struct {
	Width  int
	Height int

	terrain   []Terrain
	collision []bool
}

// NewMap creates an all-empty map.
func NewMap(width, height int) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new map %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	return &Map{
		Width:     width,
		Height:    height,
		terrain:   make([]Terrain, width*height),
		collision: make([]bool, width*height),
	}, nil
}

// MustNewMap creates a map, panicking on invalid dimensions.
func MustNewMap(width, height int) *Map {
	m, err := NewMap(width, height)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMap builds a map from rows of terrain runes (see Terrain.Rune).
// A '@' marks a Solid cell with the collision overlay set.
func ParseMap(rows ...string) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse map: %w", ErrInvalidDimensions)
	}
	width := len([]rune(rows[0]))
	m, err := NewMap(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("parse map: row %d has %d cells, want %d: %w", y, len(runes), width, ErrInvalidDimensions)
		}
		for x, r := range runes {
			if r == '@' {
				m.terrain[m.Index(x, y)] = Solid
				m.collision[m.Index(x, y)] = true
				continue
			}
			t, ok := ParseRune(r)
			if !ok {
				return nil, fmt.Errorf("parse map: rune %q at (%d,%d): %w", r, x, y, ErrInvalidTerrain)
			}
			m.terrain[m.Index(x, y)] = t
		}
	}
	return m, nil
}

// MustParseMap is ParseMap for fixtures, panicking on error.
func MustParseMap(rows ...string) *Map {
	m, err := ParseMap(rows...)
	if err != nil {
		panic(err)
	}
	return m
}

// Size returns the grid dimensions.
func (m *Map) Size() (int, int) {
	return m.Width, m.Height
}

// Bounds returns the rectangle covering the whole grid.
func (m *Map) Bounds() Rect {
	return Rect{X1: m.Width, Y1: m.Height}
}

// InBounds returns true if the cell lies on the grid.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Index returns the flat index of an in-bounds cell.
func (m *Map) Index(x, y int) int {
	return y*m.Width + x
}

// TerrainAt returns the terrain at the given cell. Cells outside the grid are Empty.
func (m *Map) TerrainAt(x, y int) Terrain {
	if !m.InBounds(x, y) {
		return Empty
	}
	return m.terrain[m.Index(x, y)]
}

// Collidable returns true if the collision overlay is set for the cell.
func (m *Map) Collidable(x, y int) bool {
	if !m.InBounds(x, y) {
		return false
	}
	return m.collision[m.Index(x, y)]
}

// SetTerrain replaces the terrain code of a cell.
func (m *Map) SetTerrain(x, y int, t Terrain) error {
	if !m.InBounds(x, y) {
		return fmt.Errorf("set terrain (%d,%d): %w", x, y, ErrOutOfRange)
	}
	if !t.Valid() {
		return fmt.Errorf("set terrain (%d,%d) to %d: %w", x, y, t, ErrInvalidTerrain)
	}
	m.terrain[m.Index(x, y)] = t
	return nil
}

// SetCollidable sets or clears the collision overlay flag of a cell.
func (m *Map) SetCollidable(x, y int, on bool) error {
	if !m.InBounds(x, y) {
		return fmt.Errorf("set collidable (%d,%d): %w", x, y, ErrOutOfRange)
	}
	m.collision[m.Index(x, y)] = on
	return nil
}

// Fill sets every cell of r (clipped to the grid) to t.
func (m *Map) Fill(r Rect, t Terrain) error {
	if !t.Valid() {
		return fmt.Errorf("fill with %d: %w", t, ErrInvalidTerrain)
	}
	r = r.Clip(m.Width, m.Height)
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			m.terrain[m.Index(x, y)] = t
		}
	}
	return nil
}

// SurroundType reports what lies beneath a cell: RaisedEdge if any
// 4-neighbor is RaisedEdge, otherwise Liquid if any is Liquid, otherwise Empty.
func (m *Map) SurroundType(x, y int) Terrain {
	l := m.TerrainAt(x-1, y)
	r := m.TerrainAt(x+1, y)
	u := m.TerrainAt(x, y-1)
	d := m.TerrainAt(x, y+1)
	if l == RaisedEdge || r == RaisedEdge || u == RaisedEdge || d == RaisedEdge {
		return RaisedEdge
	}
	if l == Liquid || r == Liquid || u == Liquid || d == Liquid {
		return Liquid
	}
	return Empty
}

// Break reverts a Breakable cell to its surrounding terrain. It returns the
// rectangle whose visuals need refreshing and whether anything changed.
func (m *Map) Break(x, y int) (Rect, bool, error) {
	if !m.InBounds(x, y) {
		return Rect{}, false, fmt.Errorf("break (%d,%d): %w", x, y, ErrOutOfRange)
	}
	if m.terrain[m.Index(x, y)] != Breakable {
		return Rect{}, false, nil
	}
	m.terrain[m.Index(x, y)] = m.SurroundType(x, y)
	return RectAt(x, y).Expand(1), true, nil
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{
		Width:     m.Width,
		Height:    m.Height,
		terrain:   make([]Terrain, len(m.terrain)),
		collision: make([]bool, len(m.collision)),
	}
	copy(c.terrain, m.terrain)
	copy(c.collision, m.collision)
	return c
}

// String renders the grid with one rune per cell, rows separated by newlines.
func (m *Map) String() string {
	buf := make([]rune, 0, (m.Width+1)*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Collidable(x, y) && m.TerrainAt(x, y) == Solid {
				buf = append(buf, '@')
				continue
			}
			buf = append(buf, m.TerrainAt(x, y).Rune())
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

package region

import (
	"fmt"

	"github.com/samdwyer/tuffmap/internal/world"
)

// Source is the read side of a terrain grid.
type Source interface {
	Size() (width, height int)
	TerrainAt(x, y int) world.Terrain
}

// Policy parameterizes a decomposition. The decomposer adds the
// "not yet labeled" condition to Match itself.
type Policy struct {
	// Match reports whether (x,y) joins a component seeded on terrain seed.
	Match func(seed world.Terrain, x, y int) bool
	// Visit is called once per cell as it joins the component. May be nil.
	Visit func(seed world.Terrain, x, y int)
	// Classify runs once the component is fully grown.
	Classify func(seed world.Terrain, size int) int
}

// Components is the result of decomposing a grid. Ids start at 1 in
// discovery (raster) order; 0 marks empty cells. Ids are only meaningful
// for the pass that produced them.
type Components struct {
	Width   int
	Height  int
	IDs     []int // per cell, row-major
	Sizes   []int // per id, Sizes[0] == 0
	Classes []int // per id, Classes[0] == 0
}

// ID returns the component id of a cell, 0 for empty or out-of-bounds cells.
func (c *Components) ID(x, y int) int {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return 0
	}
	return c.IDs[y*c.Width+x]
}

// Class returns the class of the component containing the cell.
func (c *Components) Class(x, y int) int {
	return c.Classes[c.ID(x, y)]
}

// Size returns the cell count of a component.
func (c *Components) Size(id int) int {
	if id <= 0 || id >= len(c.Sizes) {
		return 0
	}
	return c.Sizes[id]
}

// Count returns the number of components found.
func (c *Components) Count() int {
	return len(c.Sizes) - 1
}

// Decompose assigns every non-empty cell of src to exactly one component.
func Decompose(src Source, labeler *Labeler, policy Policy) (*Components, error) {
	width, height := src.Size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("decompose %dx%d grid: %w", width, height, world.ErrInvalidDimensions)
	}
	if labeler == nil || labeler.width != width || labeler.height != height {
		labeler = NewLabeler(width, height)
	}

	comps := &Components{
		Width:   width,
		Height:  height,
		IDs:     make([]int, width*height),
		Sizes:   []int{0},
		Classes: []int{0},
	}

	id := 0
	var seed world.Terrain
	matches := func(x, y int) bool {
		return comps.IDs[y*width+x] == 0 && policy.Match(seed, x, y)
	}
	visit := func(x, y int) {
		comps.IDs[y*width+x] = id
		if policy.Visit != nil {
			policy.Visit(seed, x, y)
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := src.TerrainAt(x, y)
			if t.IsEmpty() || comps.IDs[y*width+x] != 0 {
				continue
			}
			id++
			seed = t
			size := labeler.Fill(x, y, matches, visit)
			comps.Sizes = append(comps.Sizes, size)
			comps.Classes = append(comps.Classes, policy.Classify(seed, size))
		}
	}
	return comps, nil
}

package pipeline

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/samdwyer/tuffmap/internal/autotile"
	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/tilecache"
	"github.com/samdwyer/tuffmap/internal/world"
)

// Visual is everything a renderer needs to draw one cell.
type Visual struct {
	Terrain    world.Terrain
	Density    region.DensityClass
	Zone       region.ZoneClass
	Descriptor autotile.Descriptor
	SeeThrough bool
	Halo       bool // next to the see-through patch but not part of it
}

// Size returns the grid dimensions.
func (p *Pipeline) Size() (int, int) {
	return p.m.Size()
}

func (p *Pipeline) index(x, y int) (int, error) {
	if !p.m.InBounds(x, y) {
		return 0, fmt.Errorf("cell (%d,%d): %w", x, y, world.ErrOutOfRange)
	}
	return p.m.Index(x, y), nil
}

// MapCopy returns a deep copy of the current terrain grid and collision overlay.
func (p *Pipeline) MapCopy() *world.Map {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.m.Clone()
}

// TerrainAt returns the current terrain of a cell, Empty off the grid.
func (p *Pipeline) TerrainAt(x, y int) world.Terrain {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.m.TerrainAt(x, y)
}

// Collidable reports the collision overlay of a cell, false off the grid.
func (p *Pipeline) Collidable(x, y int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.m.Collidable(x, y)
}

// DensityAt returns the density class of a cell.
func (p *Pipeline) DensityAt(x, y int) (region.DensityClass, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, err := p.index(x, y)
	if err != nil {
		return 0, err
	}
	return p.density[i], nil
}

// ZoneAt returns the ambient zone of a cell.
func (p *Pipeline) ZoneAt(x, y int) (region.ZoneClass, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, err := p.index(x, y)
	if err != nil {
		return region.ZoneNone, err
	}
	return p.zone[i], nil
}

// DescriptorAt returns the visual descriptor of a cell.
func (p *Pipeline) DescriptorAt(x, y int) (autotile.Descriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, err := p.index(x, y)
	if err != nil {
		return autotile.Descriptor{}, err
	}
	return p.desc[i], nil
}

// VisualAt returns all derived data of a cell read under one lock.
func (p *Pipeline) VisualAt(x, y int) (Visual, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, err := p.index(x, y)
	if err != nil {
		return Visual{}, err
	}
	return p.visual(i, x, y), nil
}

func (p *Pipeline) visual(i, x, y int) Visual {
	return Visual{
		Terrain:    p.m.TerrainAt(x, y),
		Density:    p.density[i],
		Zone:       p.zone[i],
		Descriptor: p.desc[i],
		SeeThrough: p.vis.SeeThrough(x, y),
		Halo:       p.vis.InHalo(x, y),
	}
}

// TileAt resolves a cell through the tile cache. Empty cells have no tile.
func (p *Pipeline) TileAt(x, y int) (*tilecache.Tile, error) {
	v, err := p.VisualAt(x, y)
	if err != nil {
		return nil, err
	}
	return p.TileFor(v)
}

// TileFor resolves a visual, typically one taken from a Snapshot, through
// the tile cache. Empty cells have no tile.
func (p *Pipeline) TileFor(v Visual) (*tilecache.Tile, error) {
	if p.cache == nil {
		return nil, ErrNoCache
	}
	if v.Terrain.IsEmpty() {
		return nil, nil
	}
	return p.cache.Get(v.Terrain, v.Density, v.Descriptor.Edge, v.Descriptor.Corner)
}

// Borders reports whether tiles are drawn with decoration.
func (p *Pipeline) Borders() bool {
	return p.cache != nil && p.cache.Borders()
}

// Snapshot is a consistent copy of the derived data of a rectangle of
// cells.
type Snapshot struct {
	Bounds  world.Rect
	Visuals []Visual // row-major within Bounds
}

// At returns the visual of a cell given in map coordinates. The cell must
// lie inside Bounds.
func (s *Snapshot) At(x, y int) Visual {
	return s.Visuals[(y-s.Bounds.Y0)*s.Bounds.Width()+x-s.Bounds.X0]
}

// Snapshot copies every cell's derived data under one read lock.
func (p *Pipeline) Snapshot() *Snapshot {
	return p.SnapshotRect(world.Rect{X1: math.MaxInt, Y1: math.MaxInt})
}

// SnapshotRect copies the derived data of the cells of r, clipped to the
// grid, under one read lock. The copy costs O(cells in r).
func (p *Pipeline) SnapshotRect(r world.Rect) *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	w, h := p.m.Size()
	r = r.Clip(w, h)
	s := &Snapshot{Bounds: r, Visuals: make([]Visual, 0, r.Width()*r.Height())}
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			s.Visuals = append(s.Visuals, p.visual(p.m.Index(x, y), x, y))
		}
	}
	return s
}

// Fingerprint hashes the derived arrays. Two pipelines with equal
// fingerprints draw the same picture.
func (p *Pipeline) Fingerprint() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d := xxhash.New()
	var dims [8]byte
	w, h := p.m.Size()
	binary.BigEndian.PutUint32(dims[0:4], uint32(w))
	binary.BigEndian.PutUint32(dims[4:8], uint32(h))
	_, _ = d.Write(dims[:])

	row := make([]byte, 0, 6*w)
	for y := 0; y < h; y++ {
		row = row[:0]
		for x := 0; x < w; x++ {
			i := p.m.Index(x, y)
			row = append(row,
				byte(p.m.TerrainAt(x, y)),
				byte(p.density[i]),
				byte(p.zone[i]),
				p.desc[i].Edge,
				p.desc[i].Corner,
				p.desc[i].Border,
			)
		}
		_, _ = d.Write(row)
	}
	return d.Sum64()
}

// Stats summarizes the derived grid.
type Stats struct {
	Cells      int
	NonEmpty   int
	Density    [region.MaxDensity + 1]int
	Zones      map[region.ZoneClass]int
	SeeThrough int
}

// Stats counts cells per density and zone class.
func (p *Pipeline) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Stats{Cells: len(p.density), Zones: make(map[region.ZoneClass]int), SeeThrough: p.vis.Count()}
	w, h := p.m.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := p.m.Index(x, y)
			st.Zones[p.zone[i]]++
			if p.m.TerrainAt(x, y).IsEmpty() {
				continue
			}
			st.NonEmpty++
			st.Density[p.density[i]]++
		}
	}
	return st
}

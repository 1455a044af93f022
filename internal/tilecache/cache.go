// Package tilecache memoizes composited tile images keyed by terrain,
// density class and the edge/corner masks of a cell.
package tilecache

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/world"
)

// ErrInvalidKey is returned for keys no tile can exist for.
var ErrInvalidKey = errors.New("invalid tile key")

// ImageStore supplies the raw images tiles are composited from.
type ImageStore interface {
	// Background returns a fresh base image for a (terrain, density) pair.
	// The cache owns the returned image and may draw into it.
	Background(t world.Terrain, d region.DensityClass) (image.Image, error)
	// EdgeStamp returns a full-tile nine-slice piece for terrain t.
	EdgeStamp(t world.Terrain, piece int) (image.Image, error)
	// CornerStamp returns a quarter-tile corner quadrant for terrain t.
	CornerStamp(t world.Terrain, quadrant int) (image.Image, error)
	// Composite draws stamp over base with its origin at offset.
	Composite(base, stamp image.Image, offset image.Point) (image.Image, error)
}

// Key identifies one cached tile.
type Key struct {
	Terrain world.Terrain
	Density region.DensityClass
	Edge    uint8
	Corner  uint8
}

func (k Key) validate() error {
	if k.Terrain.IsEmpty() || !k.Terrain.Valid() || k.Density > region.MaxDensity || k.Edge > 15 || k.Corner > 15 {
		return fmt.Errorf("tile %+v: %w", k, ErrInvalidKey)
	}
	return nil
}

// Tile is a composited image. The same *Tile is returned for a key until
// the cache is reset.
type Tile struct {
	Key   Key
	Image image.Image
}

type pair struct {
	terrain world.Terrain
	density region.DensityClass
}

type tileSet [16][16]*Tile

// Cache is a TileImageCache. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	store   ImageStore
	borders bool
	sets    map[pair]*tileSet
	metrics *Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics records hits, misses and batches in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates an empty cache over store with border decoration enabled.
func New(store ImageStore, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		borders: true,
		sets:    make(map[pair]*tileSet),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// Get returns the tile for a key, compositing the whole (terrain, density)
// batch on the first request for that pair.
func (c *Cache) Get(t world.Terrain, d region.DensityClass, edge, corner uint8) (*Tile, error) {
	key := Key{Terrain: t, Density: d, Edge: edge, Corner: corner}
	if err := key.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := pair{terrain: t, density: d}
	set, ok := c.sets[p]
	if !ok {
		var err error
		if set, err = c.generate(p); err != nil {
			return nil, err
		}
		c.sets[p] = set
		c.metrics.batches.Inc()
	}

	if tile := set[edge][corner]; tile != nil {
		c.metrics.hits.Inc()
		return tile, nil
	}

	c.metrics.misses.Inc()
	tile, err := c.compose(key)
	if err != nil {
		return nil, err
	}
	set[edge][corner] = tile
	return tile, nil
}

// Len returns the number of tiles currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, set := range c.sets {
		for e := range set {
			for _, tile := range set[e] {
				if tile != nil {
					n++
				}
			}
		}
	}
	return n
}

// Reset discards every cached tile.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = make(map[pair]*tileSet)
}

// Borders reports whether edge and corner decoration is drawn.
func (c *Cache) Borders() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.borders
}

// SetBorders toggles edge and corner decoration. Changing the setting
// discards every cached tile.
func (c *Cache) SetBorders(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.borders == on {
		return
	}
	c.borders = on
	c.sets = make(map[pair]*tileSet)
}

func (c *Cache) generate(p pair) (*tileSet, error) {
	set := new(tileSet)
	for _, rc := range reachable {
		tile, err := c.compose(Key{Terrain: p.terrain, Density: p.density, Edge: rc[0], Corner: rc[1]})
		if err != nil {
			return nil, err
		}
		set[rc[0]][rc[1]] = tile
	}
	return set, nil
}

func (c *Cache) compose(k Key) (*Tile, error) {
	img, err := c.store.Background(k.Terrain, k.Density)
	if err != nil {
		return nil, fmt.Errorf("background for %s/%d: %w", k.Terrain, k.Density, err)
	}
	if !c.borders {
		return &Tile{Key: k, Image: img}, nil
	}

	for _, piece := range lowerStamps[k.Edge] {
		stamp, err := c.store.EdgeStamp(k.Terrain, piece)
		if err != nil {
			return nil, fmt.Errorf("edge piece %d for %s: %w", piece, k.Terrain, err)
		}
		if img, err = c.store.Composite(img, stamp, image.Point{}); err != nil {
			return nil, err
		}
	}

	half := img.Bounds().Dx() / 2
	for _, q := range upperStamps[k.Corner] {
		stamp, err := c.store.CornerStamp(k.Terrain, q)
		if err != nil {
			return nil, fmt.Errorf("corner quadrant %d for %s: %w", q, k.Terrain, err)
		}
		at := image.Pt((q%2)*half, (q/2)*half)
		if img, err = c.store.Composite(img, stamp, at); err != nil {
			return nil, err
		}
	}
	return &Tile{Key: k, Image: img}, nil
}

package tilecache

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/world"
)

// countingStore records how often each capability is used.
type countingStore struct {
	backgrounds int
	edges       []int
	corners     []image.Point
	composites  int
	fail        error
}

func (s *countingStore) Background(world.Terrain, region.DensityClass) (image.Image, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.backgrounds++
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img, nil
}

func (s *countingStore) EdgeStamp(_ world.Terrain, piece int) (image.Image, error) {
	s.edges = append(s.edges, piece)
	return image.NewUniform(color.White), nil
}

func (s *countingStore) CornerStamp(_ world.Terrain, quadrant int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (s *countingStore) Composite(base, stamp image.Image, offset image.Point) (image.Image, error) {
	s.composites++
	if b := stamp.Bounds(); b.Dx() == 8 {
		s.corners = append(s.corners, offset)
	}
	return base, nil
}

func TestGetMemoizesPerPair(t *testing.T) {
	store := &countingStore{}
	c := New(store)

	first, err := c.Get(world.Solid, 2, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, len(reachable), store.backgrounds)

	again, err := c.Get(world.Solid, 2, 1, 4)
	require.NoError(t, err)
	assert.Same(t, first, again)

	for _, rc := range reachable {
		_, err := c.Get(world.Solid, 2, rc[0], rc[1])
		require.NoError(t, err)
	}
	assert.Equal(t, len(reachable), store.backgrounds, "one batch per pair")

	_, err = c.Get(world.Solid, 3, 0, 0)
	require.NoError(t, err)
	_, err = c.Get(world.Liquid, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3*len(reachable), store.backgrounds)
	assert.Equal(t, 3*len(reachable), c.Len())
}

func TestGetUnreachableMaskComposedOnDemand(t *testing.T) {
	store := &countingStore{}
	c := New(store)

	require.False(t, Reachable(15, 15))
	tile, err := c.Get(world.Solid, 0, 15, 15)
	require.NoError(t, err)
	assert.Equal(t, len(reachable)+1, store.backgrounds)

	again, err := c.Get(world.Solid, 0, 15, 15)
	require.NoError(t, err)
	assert.Same(t, tile, again)
	assert.Equal(t, len(reachable)+1, store.backgrounds)
}

func TestGetInvalidKeys(t *testing.T) {
	c := New(&countingStore{})
	tests := []struct {
		name    string
		terrain world.Terrain
		density region.DensityClass
		edge    uint8
		corner  uint8
	}{
		{"empty terrain", world.Empty, 0, 0, 0},
		{"unknown terrain", world.Terrain(99), 0, 0, 0},
		{"density too high", world.Solid, region.MaxDensity + 1, 0, 0},
		{"edge too high", world.Solid, 0, 16, 0},
		{"corner too high", world.Solid, 0, 0, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Get(tt.terrain, tt.density, tt.edge, tt.corner)
			assert.True(t, errors.Is(err, ErrInvalidKey))
		})
	}
}

func TestGetPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("boom")
	c := New(&countingStore{fail: boom})
	_, err := c.Get(world.Solid, 0, 0, 0)
	assert.True(t, errors.Is(err, boom))
	assert.Zero(t, c.Len())
}

func TestComposeFollowsTables(t *testing.T) {
	store := &countingStore{}
	c := New(store)
	c.sets[pair{world.Solid, 0}] = new(tileSet)

	_, err := c.Get(world.Solid, 0, 3, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 2}, store.edges)
	assert.Equal(t, []image.Point{{0, 8}}, store.corners)
}

func TestResetAndBorders(t *testing.T) {
	store := &countingStore{}
	c := New(store)

	_, err := c.Get(world.RaisedEdge, 1, 0, 0)
	require.NoError(t, err)
	c.Reset()
	assert.Zero(t, c.Len())

	first, err := c.Get(world.RaisedEdge, 1, 15, 0)
	require.NoError(t, err)

	c.SetBorders(true)
	again, err := c.Get(world.RaisedEdge, 1, 15, 0)
	require.NoError(t, err)
	assert.Same(t, first, again, "setting the same value keeps the cache")

	c.SetBorders(false)
	assert.False(t, c.Borders())
	before := len(store.edges)
	plain, err := c.Get(world.RaisedEdge, 1, 15, 0)
	require.NoError(t, err)
	assert.NotSame(t, first, plain)
	assert.Equal(t, before, len(store.edges), "no decoration without borders")
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(&countingStore{}, WithMetrics(NewMetrics(reg)))
	_, err := c.Get(world.Solid, 0, 0, 0)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]float64)
	for _, f := range families {
		names[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 1.0, names["tuffmap_tilecache_batches_total"])
	assert.Equal(t, 1.0, names["tuffmap_tilecache_hits_total"])
	assert.Equal(t, 0.0, names["tuffmap_tilecache_misses_total"])
}

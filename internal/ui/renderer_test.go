package ui

import (
	"context"
	"image"
	"image/color"
	"runtime"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/tuffmap/internal/entity"
	"github.com/samdwyer/tuffmap/internal/gamedata"
	"github.com/samdwyer/tuffmap/internal/pipeline"
	"github.com/samdwyer/tuffmap/internal/sprite"
	"github.com/samdwyer/tuffmap/internal/tilecache"
	"github.com/samdwyer/tuffmap/internal/world"
)

func setup(t *testing.T, rows ...string) (*pipeline.Pipeline, *sprite.Atlas) {
	t.Helper()
	palette, err := gamedata.LoadPalette()
	require.NoError(t, err)
	atlas := sprite.NewAtlas(palette)
	pipe, err := pipeline.New(world.MustParseMap(rows...), pipeline.WithCache(tilecache.New(atlas)))
	require.NoError(t, err)
	require.NoError(t, pipe.FullPass(context.Background()))
	return pipe, atlas
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func tilePixel(t *testing.T, pipe *pipeline.Pipeline, x, y int, at image.Point) color.RGBA {
	t.Helper()
	tile, err := pipe.TileAt(x, y)
	require.NoError(t, err)
	require.NotNil(t, tile)
	return rgba(tile.Image.At(at.X, at.Y))
}

func TestRenderDrawsTilesAndVoid(t *testing.T) {
	pipe, atlas := setup(t,
		"@.",
		"#.",
	)
	r := NewRenderer(pipe, atlas)

	frame, err := r.Render(world.Rect{X0: 0, Y0: 0, X1: 2, Y1: 2}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2*sprite.TileSize, 2*sprite.TileSize), frame.Bounds())

	assert.Equal(t, tilePixel(t, pipe, 0, 1, image.Pt(8, 8)), rgba(frame.At(8, sprite.TileSize+8)))
	assert.Equal(t, gamedata.RGBA(atlas.Palette().Void()), rgba(frame.At(sprite.TileSize+2, 2)))
}

func TestRenderBlendsSeeThroughCells(t *testing.T) {
	pipe, atlas := setup(t,
		"@.",
		"#.",
	)
	r := NewRenderer(pipe, atlas)
	n, err := pipe.BeginEpisode(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	tile := tilePixel(t, pipe, 0, 0, image.Pt(8, 8))

	revealed, err := r.Render(world.Rect{X1: 2, Y1: 2}, nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, tile, rgba(revealed.At(8, 8)))

	covered, err := r.Render(world.Rect{X1: 2, Y1: 2}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, tile, rgba(covered.At(8, 8)))

	// Cells outside the patch are not affected by cover.
	assert.Equal(t, rgba(covered.At(8, sprite.TileSize+8)), rgba(revealed.At(8, sprite.TileSize+8)))
}

func TestRenderDrawsActor(t *testing.T) {
	pipe, atlas := setup(t, "#.")
	r := NewRenderer(pipe, atlas)

	frame, err := r.Render(world.Rect{X1: 2, Y1: 1}, entity.NewActor(1, 0), 1)
	require.NoError(t, err)
	assert.Equal(t, gamedata.RGBA(tcell.ColorYellow), rgba(frame.At(sprite.TileSize+8, 8)))
	assert.Equal(t, gamedata.RGBA(atlas.Palette().Void()), rgba(frame.At(sprite.TileSize+1, 1)))
}

func TestRenderDrawsTrimWhenBordersOn(t *testing.T) {
	pipe, atlas := setup(t,
		"...",
		".^.",
		"...",
	)
	r := NewRenderer(pipe, atlas)
	trim := gamedata.RGBA(atlas.Palette().Terrain("raised_edge").Trim)
	top := image.Pt(sprite.TileSize+8, sprite.TileSize)

	frame, err := r.Render(world.Rect{X1: 3, Y1: 3}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, trim, rgba(frame.At(top.X, top.Y)))

	pipe.SetBorders(false)
	frame, err = r.Render(world.Rect{X1: 3, Y1: 3}, nil, 1)
	require.NoError(t, err)
	assert.NotEqual(t, trim, rgba(frame.At(top.X, top.Y)))
}

func TestRenderScale(t *testing.T) {
	pipe, atlas := setup(t, "#.")
	plain, err := NewRenderer(pipe, atlas).Render(world.Rect{X1: 2, Y1: 1}, nil, 1)
	require.NoError(t, err)
	scaled, err := NewRenderer(pipe, atlas, WithScale(3)).Render(world.Rect{X1: 2, Y1: 1}, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 6*sprite.TileSize, 3*sprite.TileSize), scaled.Bounds())
	for _, p := range []image.Point{{0, 0}, {5, 9}, {20, 3}} {
		assert.Equal(t, plain.At(p.X, p.Y), scaled.At(3*p.X+1, 3*p.Y+1), "pixel %v", p)
	}
}

func TestRenderClipsView(t *testing.T) {
	pipe, atlas := setup(t, "#.", "..")
	r := NewRenderer(pipe, atlas)

	frame, err := r.Render(world.Rect{X0: -4, Y0: 1, X1: 1, Y1: 9}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, sprite.TileSize, sprite.TileSize), frame.Bounds())

	_, err = r.Render(world.Rect{X0: 5, Y0: 5, X1: 8, Y1: 8}, nil, 1)
	assert.ErrorIs(t, err, world.ErrOutOfRange)
}

// renderBytes reports the average heap bytes allocated by rendering a 4x4
// view of a size x size grid.
func renderBytes(t *testing.T, size int) uint64 {
	t.Helper()
	rows := make([]string, size)
	for i := range rows {
		rows[i] = strings.Repeat("@#", size/2)
	}
	pipe, atlas := setup(t, rows...)
	r := NewRenderer(pipe, atlas)
	view := world.Rect{X0: 2, Y0: 2, X1: 6, Y1: 6}
	_, err := r.Render(view, nil, 1)
	require.NoError(t, err)

	const runs = 10
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < runs; i++ {
		if _, err := r.Render(view, nil, 1); err != nil {
			t.Fatal(err)
		}
	}
	runtime.ReadMemStats(&after)
	return (after.TotalAlloc - before.TotalAlloc) / runs
}

func TestRenderCostFollowsView(t *testing.T) {
	small := renderBytes(t, 16)
	large := renderBytes(t, 256)
	assert.Less(t, large, 2*small, "4x4 view: %d bytes on 16x16, %d bytes on 256x256", small, large)
}

func TestRenderWithoutCache(t *testing.T) {
	palette, err := gamedata.LoadPalette()
	require.NoError(t, err)
	pipe, err := pipeline.New(world.MustParseMap("#"))
	require.NoError(t, err)
	require.NoError(t, pipe.FullPass(context.Background()))

	_, err = NewRenderer(pipe, sprite.NewAtlas(palette)).Render(world.Rect{X1: 1, Y1: 1}, nil, 1)
	assert.ErrorIs(t, err, pipeline.ErrNoCache)
}

func TestSeeThroughAlpha(t *testing.T) {
	tests := []struct {
		cover float64
		want  uint8
	}{
		{0, 96},
		{1, 255},
		{0.5, 176},
		{-2, 96},
		{7, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, seeThroughAlpha(96, tt.cover), "cover %v", tt.cover)
	}
}

func TestCamera(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		want world.Rect
	}{
		{"centered", 20, 15, world.Rect{X0: 15, Y0: 12, X1: 25, Y1: 18}},
		{"top left", 1, 1, world.Rect{X0: 0, Y0: 0, X1: 10, Y1: 6}},
		{"bottom right", 39, 29, world.Rect{X0: 30, Y0: 24, X1: 40, Y1: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Camera(tt.x, tt.y, 40, 30, 10, 6))
		})
	}

	// A view larger than the map starts at the origin.
	assert.Equal(t, world.Rect{X0: 0, Y0: 0, X1: 80, Y1: 50}, Camera(3, 3, 40, 30, 80, 50))
}

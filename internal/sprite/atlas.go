// Package sprite draws tile images procedurally from the terrain palette.
package sprite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/samdwyer/tuffmap/internal/gamedata"
	"github.com/samdwyer/tuffmap/internal/region"
	"github.com/samdwyer/tuffmap/internal/tilecache"
	"github.com/samdwyer/tuffmap/internal/world"
)

// TileSize is the side of a tile in pixels.
const TileSize = 16

// band is the thickness of nine-slice edges and corners.
const band = 3

// ErrUnknownTerrain is returned for terrain without palette colors.
var ErrUnknownTerrain = errors.New("terrain has no palette entry")

type stampKey struct {
	terrain world.Terrain
	kind    byte
	index   int
}

const (
	kindEdge byte = iota
	kindCorner
	kindBorder
)

// Atlas implements tilecache.ImageStore. Stamps are drawn once and shared;
// backgrounds are fresh on every call.
type Atlas struct {
	palette *gamedata.Palette

	mu     sync.Mutex
	stamps map[stampKey]*image.RGBA
}

// NewAtlas creates an atlas over a palette.
func NewAtlas(palette *gamedata.Palette) *Atlas {
	return &Atlas{
		palette: palette,
		stamps:  make(map[stampKey]*image.RGBA),
	}
}

func (a *Atlas) colors(t world.Terrain) (*gamedata.TerrainColors, error) {
	tc := a.palette.Terrain(t.String())
	if tc == nil {
		return nil, fmt.Errorf("%s: %w", t, ErrUnknownTerrain)
	}
	return tc, nil
}

// Palette returns the palette the atlas draws with.
func (a *Atlas) Palette() *gamedata.Palette {
	return a.palette
}

// Background draws the ground of terrain t at density d with a light speckle.
func (a *Atlas) Background(t world.Terrain, d region.DensityClass) (image.Image, error) {
	tc, err := a.colors(t)
	if err != nil {
		return nil, err
	}
	if d > region.MaxDensity {
		return nil, fmt.Errorf("density %d out of range", d)
	}

	base := gamedata.RGBA(tc.Ground[d])
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(base), image.Point{}, draw.Src)

	if tc.Texture > 0 {
		speck := lighten(base, 12)
		for y := 0; y < TileSize; y++ {
			for x := (y * 7) % tc.Texture; x < TileSize; x += tc.Texture + 1 {
				img.SetRGBA(x, y, speck)
			}
		}
	}
	return img, nil
}

// EdgeStamp returns nine-slice piece 0..8 of terrain t as a full-tile overlay.
func (a *Atlas) EdgeStamp(t world.Terrain, piece int) (image.Image, error) {
	if piece < 0 || piece >= tilecache.PieceCount {
		return nil, fmt.Errorf("edge piece %d out of range", piece)
	}
	return a.stamp(stampKey{t, kindEdge, piece}, func(tc *gamedata.TerrainColors, img *image.RGBA) {
		col, row := piece%3, piece/3
		r := image.Rect(0, 0, TileSize, TileSize)
		switch col {
		case 0:
			r.Max.X = band
		case 2:
			r.Min.X = TileSize - band
		}
		switch row {
		case 0:
			r.Max.Y = band
		case 2:
			r.Min.Y = TileSize - band
		}
		fill(img, r, gamedata.RGBA(tc.Edge))
	})
}

// CornerStamp returns quadrant 0..3 of the inner corner piece as a half-tile
// overlay. Quadrants are numbered row-major.
func (a *Atlas) CornerStamp(t world.Terrain, quadrant int) (image.Image, error) {
	if quadrant < 0 || quadrant >= tilecache.QuadrantCount {
		return nil, fmt.Errorf("corner quadrant %d out of range", quadrant)
	}
	const half = TileSize / 2
	return a.stamp(stampKey{t, kindCorner, quadrant}, func(tc *gamedata.TerrainColors, img *image.RGBA) {
		x0 := (quadrant % 2) * (half - band)
		y0 := (quadrant / 2) * (half - band)
		fill(img, image.Rect(x0, y0, x0+band, y0+band), gamedata.RGBA(tc.Corner))
	}, half)
}

// BorderStamp returns the open-edge trim for a border mask. Bits follow the
// edge layout: up 1, right 2, down 4, left 8. Masks that are 0 yield nil.
func (a *Atlas) BorderStamp(t world.Terrain, mask uint8) (image.Image, error) {
	if mask == 0 {
		return nil, nil
	}
	if mask > 15 {
		return nil, fmt.Errorf("border mask %d out of range", mask)
	}
	return a.stamp(stampKey{t, kindBorder, int(mask)}, func(tc *gamedata.TerrainColors, img *image.RGBA) {
		trim := gamedata.RGBA(tc.Trim)
		if mask&1 != 0 {
			fill(img, image.Rect(0, 0, TileSize, 2), trim)
		}
		if mask&2 != 0 {
			fill(img, image.Rect(TileSize-1, 0, TileSize, TileSize), trim)
		}
		if mask&4 != 0 {
			fill(img, image.Rect(0, TileSize-1, TileSize, TileSize), trim)
		}
		if mask&8 != 0 {
			fill(img, image.Rect(0, 0, 1, TileSize), trim)
		}
	})
}

// Composite draws stamp over base at offset. Base images that are not
// *image.RGBA are copied first.
func (a *Atlas) Composite(base, stamp image.Image, offset image.Point) (image.Image, error) {
	if base == nil || stamp == nil {
		return nil, errors.New("composite with nil image")
	}
	dst, ok := base.(*image.RGBA)
	if !ok {
		dst = image.NewRGBA(base.Bounds())
		draw.Draw(dst, dst.Bounds(), base, base.Bounds().Min, draw.Src)
	}
	sb := stamp.Bounds()
	r := image.Rectangle{Min: offset, Max: offset.Add(sb.Size())}.Intersect(dst.Bounds())
	draw.Draw(dst, r, stamp, sb.Min, draw.Over)
	return dst, nil
}

func (a *Atlas) stamp(key stampKey, paint func(*gamedata.TerrainColors, *image.RGBA), size ...int) (image.Image, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if img, ok := a.stamps[key]; ok {
		return img, nil
	}
	tc, err := a.colors(key.terrain)
	if err != nil {
		return nil, err
	}
	side := TileSize
	if len(size) > 0 {
		side = size[0]
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	paint(tc, img)
	a.stamps[key] = img
	return img, nil
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func lighten(c color.RGBA, by uint8) color.RGBA {
	up := func(v uint8) uint8 {
		if v > 0xFF-by {
			return 0xFF
		}
		return v + by
	}
	return color.RGBA{R: up(c.R), G: up(c.G), B: up(c.B), A: c.A}
}

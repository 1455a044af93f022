// Package ui draws pipeline output into offscreen images built from the
// tile cache.
package ui

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"

	"github.com/samdwyer/tuffmap/internal/entity"
	"github.com/samdwyer/tuffmap/internal/gamedata"
	"github.com/samdwyer/tuffmap/internal/pipeline"
	"github.com/samdwyer/tuffmap/internal/sprite"
	"github.com/samdwyer/tuffmap/internal/world"
)

// Renderer assembles offscreen frames from cached tiles.
type Renderer struct {
	pipe  *pipeline.Pipeline
	atlas *sprite.Atlas
	scale int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithScale enlarges frames by an integer factor using nearest-neighbor
// sampling. Factors below 2 leave frames at tile resolution.
func WithScale(n int) Option {
	return func(r *Renderer) {
		r.scale = n
	}
}

// NewRenderer creates a renderer drawing pipe's cells with atlas stamps.
// The pipeline must have a tile cache.
func NewRenderer(pipe *pipeline.Pipeline, atlas *sprite.Atlas, opts ...Option) *Renderer {
	r := &Renderer{pipe: pipe, atlas: atlas, scale: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws the cells of view into a new image. Empty cells show the void
// color. Cells in the see-through patch are blended over the void with an
// opacity between the palette floor (cover 0) and fully opaque (cover 1).
// Open-edge trim is drawn when the tile cache has borders on.
func (r *Renderer) Render(view world.Rect, actor *entity.Actor, cover float64) (*image.RGBA, error) {
	w, h := r.pipe.Size()
	clipped := view.Clip(w, h)
	if clipped.Empty() {
		return nil, fmt.Errorf("render %+v on a %dx%d grid: %w", view, w, h, world.ErrOutOfRange)
	}
	view = clipped

	palette := r.atlas.Palette()
	frame := image.NewRGBA(image.Rect(0, 0, view.Width()*sprite.TileSize, view.Height()*sprite.TileSize))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(gamedata.RGBA(palette.Void())), image.Point{}, draw.Src)

	mask := image.NewUniform(color.Alpha{A: seeThroughAlpha(palette.SeeThroughAlpha(), cover)})
	borders := r.pipe.Borders()
	snap := r.pipe.SnapshotRect(view)

	for y := view.Y0; y < view.Y1; y++ {
		for x := view.X0; x < view.X1; x++ {
			v := snap.At(x, y)
			tile, err := r.pipe.TileFor(v)
			if err != nil {
				return nil, err
			}
			if tile == nil {
				continue
			}
			dst := cellRect(x-view.X0, y-view.Y0)
			layers := []image.Image{tile.Image}
			if borders && v.Descriptor.Border != 0 {
				trim, err := r.atlas.BorderStamp(v.Terrain, v.Descriptor.Border)
				if err != nil {
					return nil, err
				}
				layers = append(layers, trim)
			}
			for _, img := range layers {
				if v.SeeThrough {
					draw.DrawMask(frame, dst, img, img.Bounds().Min, mask, image.Point{}, draw.Over)
				} else {
					draw.Draw(frame, dst, img, img.Bounds().Min, draw.Over)
				}
			}
		}
	}

	if actor != nil && view.Contains(actor.X, actor.Y) {
		const inset = sprite.TileSize / 4
		dst := cellRect(actor.X-view.X0, actor.Y-view.Y0).Inset(inset)
		draw.Draw(frame, dst, image.NewUniform(gamedata.RGBA(tcell.ColorYellow)), image.Point{}, draw.Src)
	}

	if r.scale < 2 {
		return frame, nil
	}
	scaled := image.NewRGBA(image.Rect(0, 0, frame.Bounds().Dx()*r.scale, frame.Bounds().Dy()*r.scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	return scaled, nil
}

func cellRect(col, row int) image.Rectangle {
	origin := image.Pt(col*sprite.TileSize, row*sprite.TileSize)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(sprite.TileSize, sprite.TileSize))}
}

// seeThroughAlpha interpolates between floor and opaque by cover, clamped to 0..1.
func seeThroughAlpha(floor uint8, cover float64) uint8 {
	cover = max(0, min(cover, 1))
	return floor + uint8(float64(0xFF-floor)*cover+0.5)
}

// Camera returns a viewW x viewH window over a mapW x mapH grid centered on
// (x, y) and kept inside the grid where it fits.
func Camera(x, y, mapW, mapH, viewW, viewH int) world.Rect {
	x0 := clamp(x-viewW/2, 0, max(0, mapW-viewW))
	y0 := clamp(y-viewH/2, 0, max(0, mapH-viewH))
	return world.Rect{X0: x0, Y0: y0, X1: x0 + viewW, Y1: y0 + viewH}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

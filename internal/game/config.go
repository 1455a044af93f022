package game

import (
	"github.com/samdwyer/tuffmap/internal/gamedata"
	"github.com/samdwyer/tuffmap/internal/level"
)

// DefaultFadeSteps is the number of updates a reveal takes to fade in or out.
const DefaultFadeSteps = 10

// Config holds session configuration options.
type Config struct {
	// Seed for random number generation. Used for reproducible map generation.
	// A seed of 0 means a random seed will be generated.
	Seed int64

	// Width and Height size a generated map. Zero means the generator default.
	Width, Height int

	// Level, when set, is used instead of generating a map.
	Level *level.Level

	// Palette, when set, replaces the embedded palette.
	Palette *gamedata.Palette

	// Borders enables edge and corner decoration on tiles.
	Borders bool

	// FadeSteps is the number of updates a reveal takes to fade fully in or
	// out. Zero means DefaultFadeSteps.
	FadeSteps int
}

package gamedata

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/gdamore/tcell/v2"
)

// DensityShades is the number of ground shades per terrain, one per density class.
const DensityShades = 5

// TerrainDef defines the colors used to draw one terrain type.
type TerrainDef struct {
	ID      string   `json:"id"`      // Matches world.Terrain.String (e.g., "liquid")
	Name    string   `json:"name"`    // Display name (e.g., "Water")
	Ground  []string `json:"ground"`  // Background shade per density class, sparse to dense
	Edge    string   `json:"edge"`    // Nine-slice edge color
	Corner  string   `json:"corner"`  // Inner corner color
	Trim    string   `json:"trim"`    // Open-edge and surface highlight color
	Texture int      `json:"texture"` // Speckle period in pixels, 0 disables
}

// PaletteFile represents the structure of palette.json.
type PaletteFile struct {
	SeeThroughAlpha uint8        `json:"seeThroughAlpha"`
	Void            string       `json:"void"`
	Terrains        []TerrainDef `json:"terrains"`
}

// TerrainColors is a TerrainDef with every color parsed.
type TerrainColors struct {
	Name    string
	Ground  [DensityShades]tcell.Color
	Edge    tcell.Color
	Corner  tcell.Color
	Trim    tcell.Color
	Texture int
}

// Palette holds parsed colors keyed by terrain id.
type Palette struct {
	terrains        map[string]*TerrainColors
	void            tcell.Color
	seeThroughAlpha uint8
}

// NewPalette parses a palette file.
func NewPalette(file PaletteFile) (*Palette, error) {
	void, err := ParseHexColor(file.Void)
	if err != nil {
		return nil, fmt.Errorf("void color: %w", err)
	}
	p := &Palette{
		terrains:        make(map[string]*TerrainColors, len(file.Terrains)),
		void:            void,
		seeThroughAlpha: file.SeeThroughAlpha,
	}
	for _, def := range file.Terrains {
		tc, err := parseTerrain(def)
		if err != nil {
			return nil, fmt.Errorf("terrain %q: %w", def.ID, err)
		}
		p.terrains[def.ID] = tc
	}
	return p, nil
}

func parseTerrain(def TerrainDef) (*TerrainColors, error) {
	if len(def.Ground) != DensityShades {
		return nil, fmt.Errorf("expected %d ground shades, got %d", DensityShades, len(def.Ground))
	}
	tc := &TerrainColors{Name: def.Name, Texture: def.Texture}
	for i, hex := range def.Ground {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		tc.Ground[i] = c
	}
	var err error
	if tc.Edge, err = ParseHexColor(def.Edge); err != nil {
		return nil, err
	}
	if tc.Corner, err = ParseHexColor(def.Corner); err != nil {
		return nil, err
	}
	if tc.Trim, err = ParseHexColor(def.Trim); err != nil {
		return nil, err
	}
	return tc, nil
}

// LoadPalette loads the embedded palette.json.
func LoadPalette() (*Palette, error) {
	return LoadPaletteFS(dataFS, "palette.json")
}

// LoadPaletteFS loads a palette file from fsys.
func LoadPaletteFS(fsys fs.FS, filename string) (*Palette, error) {
	file, err := LoadFS[PaletteFile](fsys, filename)
	if err != nil {
		return nil, err
	}
	if len(file.Terrains) == 0 {
		return nil, errors.New("no terrains loaded from " + filename)
	}
	return NewPalette(file)
}

// MustLoadPalette loads the palette, panicking on error.
func MustLoadPalette() *Palette {
	p, err := LoadPalette()
	if err != nil {
		panic(err)
	}
	return p
}

// Terrain returns the colors for a terrain id, or nil if not found.
func (p *Palette) Terrain(id string) *TerrainColors {
	return p.terrains[id]
}

// Count returns the number of terrains in the palette.
func (p *Palette) Count() int {
	return len(p.terrains)
}

// Void returns the color drawn for empty cells.
func (p *Palette) Void() tcell.Color {
	return p.void
}

// SeeThroughAlpha returns the opacity of cells inside a visibility episode.
func (p *Palette) SeeThroughAlpha() uint8 {
	return p.seeThroughAlpha
}

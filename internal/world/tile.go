// Package world provides the terrain grid, its collision overlay and map generation.
package world

// Terrain is the code stored in every cell of a terrain grid.
type Terrain uint8

const (
	// Empty is open space. It never belongs to a component.
	Empty Terrain = iota
	// Solid is plain ground.
	Solid
	// RaisedEdge is elevated ground that gets open-edge trim.
	RaisedEdge
	// Breakable is solid ground that reverts to its surroundings when broken.
	Breakable
	// Liquid is a body of water.
	Liquid

	terrainCount
)

// Valid returns true if t is one of the known terrain codes.
func (t Terrain) Valid() bool {
	return t < terrainCount
}

// IsEmpty returns true for open space.
func (t Terrain) IsEmpty() bool {
	return t == Empty
}

// String returns a human-readable terrain name.
func (t Terrain) String() string {
	switch t {
	case Empty:
		return "empty"
	case Solid:
		return "solid"
	case RaisedEdge:
		return "raised_edge"
	case Breakable:
		return "breakable"
	case Liquid:
		return "liquid"
	default:
		return "unknown"
	}
}

// Rune returns the terrain's debug display character.
func (t Terrain) Rune() rune {
	switch t {
	case Empty:
		return '.'
	case Solid:
		return '#'
	case RaisedEdge:
		return '^'
	case Breakable:
		return '%'
	case Liquid:
		return '~'
	default:
		return '?'
	}
}

// ParseRune is the inverse of Rune. Unknown runes report false.
func ParseRune(r rune) (Terrain, bool) {
	for t := Empty; t < terrainCount; t++ {
		if t.Rune() == r {
			return t, true
		}
	}
	return Empty, false
}

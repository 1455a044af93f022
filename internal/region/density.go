package region

import "github.com/samdwyer/tuffmap/internal/world"

// DensityClass is the cosmetic size bucket of a ground component.
type DensityClass uint8

// MaxDensity is the highest density class.
const MaxDensity DensityClass = 4

// DensityFor buckets a ground component of n cells.
func DensityFor(n int) DensityClass {
	switch {
	case n > 300:
		return 4
	case n > 100:
		return 3
	case n > 50:
		return 2
	case n > 3:
		return 1
	default:
		return 0
	}
}

// GroundPolicy groups every non-empty cell regardless of terrain type and
// classifies components with DensityFor.
func GroundPolicy(src Source) Policy {
	return Policy{
		Match: func(_ world.Terrain, x, y int) bool {
			return !src.TerrainAt(x, y).IsEmpty()
		},
		Classify: func(_ world.Terrain, size int) int {
			return int(DensityFor(size))
		},
	}
}

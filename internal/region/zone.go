package region

import "github.com/samdwyer/tuffmap/internal/world"

// Raw zone classes produced by ZonePolicy.
const (
	ZoneQuiet  = 0
	ZoneActive = 1
)

// Activation thresholds for components that touch open space.
const (
	liquidZoneMin = 25
	raisedZoneMin = 50
)

// ZoneClass is the ambient answer for a single cell.
type ZoneClass uint8

const (
	// ZoneInactive covers cells whose component does not drive ambience.
	ZoneInactive ZoneClass = iota
	// ZoneActiveLiquid is an ambient liquid body.
	ZoneActiveLiquid
	// ZoneActiveRaisedEdge is an ambient stretch of raised ground.
	ZoneActiveRaisedEdge
	// ZoneNone marks empty cells.
	ZoneNone
)

// String returns a human-readable zone name.
func (z ZoneClass) String() string {
	switch z {
	case ZoneInactive:
		return "inactive"
	case ZoneActiveLiquid:
		return "active_liquid"
	case ZoneActiveRaisedEdge:
		return "active_raised_edge"
	case ZoneNone:
		return "none"
	default:
		return "unknown"
	}
}

// ZoneFor projects a raw zone class onto a cell of terrain t.
func ZoneFor(t world.Terrain, raw int) ZoneClass {
	switch {
	case t.IsEmpty():
		return ZoneNone
	case raw == ZoneActive && t == world.Liquid:
		return ZoneActiveLiquid
	case raw == ZoneActive && t == world.RaisedEdge:
		return ZoneActiveRaisedEdge
	default:
		return ZoneInactive
	}
}

// ZonePolicy groups cells of identical terrain and records whether the
// component touches open space while it grows.
func ZonePolicy(src Source) Policy {
	bordering := false
	return Policy{
		Match: func(seed world.Terrain, x, y int) bool {
			return src.TerrainAt(x, y) == seed
		},
		Visit: func(seed world.Terrain, x, y int) {
			if !bordering {
				bordering = touchesOpen(src, seed, x, y)
			}
		},
		Classify: func(seed world.Terrain, size int) int {
			b := bordering
			bordering = false
			return classifyZone(seed, size, b)
		},
	}
}

// touchesOpen evaluates the border condition for a single cell.
// Out-of-bounds neighbours read as Empty.
func touchesOpen(src Source, t world.Terrain, x, y int) bool {
	l := src.TerrainAt(x-1, y)
	r := src.TerrainAt(x+1, y)
	u := src.TerrainAt(x, y-1)
	d := src.TerrainAt(x, y+1)
	open := l.IsEmpty() || r.IsEmpty() || u.IsEmpty() || d.IsEmpty()

	switch t {
	case world.Liquid:
		return open || l == world.RaisedEdge || r == world.RaisedEdge || u == world.RaisedEdge || d == world.RaisedEdge
	case world.RaisedEdge:
		return open
	default:
		return false
	}
}

// classifyZone decides whether a component is ambient-active.
// Components that never touch open space are always active.
func classifyZone(t world.Terrain, size int, bordering bool) int {
	if !bordering {
		return ZoneActive
	}
	limit := raisedZoneMin
	if t == world.Liquid {
		limit = liquidZoneMin
	}
	if size > limit {
		return ZoneActive
	}
	return ZoneQuiet
}

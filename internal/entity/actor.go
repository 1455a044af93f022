// Package entity provides the actor that walks the map.
package entity

import "github.com/samdwyer/tuffmap/internal/world"

// Actor is the figure whose cell drives visibility episodes and ambient
// zone queries. Positions are in cells.
type Actor struct {
	X, Y int
}

// NewActor creates an actor at the given cell.
func NewActor(x, y int) *Actor {
	return &Actor{X: x, Y: y}
}

// MoveWithin shifts the actor by (dx, dy) if the target cell lies inside
// bounds. It reports whether the actor moved.
func (a *Actor) MoveWithin(dx, dy int, bounds world.Rect) bool {
	if !bounds.Contains(a.X+dx, a.Y+dy) {
		return false
	}
	a.X += dx
	a.Y += dy
	return true
}

// Position returns the current x, y coordinates.
func (a *Actor) Position() (int, int) {
	return a.X, a.Y
}


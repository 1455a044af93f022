// Package game wires a map, its pipeline and the actor into a session and
// drives visibility episodes from the actor's position.
package game

// State represents the current session state.
type State int

const (
	// StateExplore is the default mode: nothing is see-through.
	StateExplore State = iota
	// StateRevealing means the actor stands inside hidden terrain and a
	// visibility episode is running.
	StateRevealing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateExplore:
		return "explore"
	case StateRevealing:
		return "revealing"
	default:
		return "unknown"
	}
}

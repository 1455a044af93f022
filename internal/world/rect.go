package world

// Rect is a half-open cell rectangle [X0,X1) x [Y0,Y1).
type Rect struct {
	X0, Y0 int // Top-left corner, inclusive
	X1, Y1 int // Bottom-right corner, exclusive
}

// RectAt returns the rectangle covering a single cell.
func RectAt(x, y int) Rect {
	return Rect{X0: x, Y0: y, X1: x + 1, Y1: y + 1}
}

// Width returns the number of columns covered.
func (r Rect) Width() int {
	if r.X1 <= r.X0 {
		return 0
	}
	return r.X1 - r.X0
}

// Height returns the number of rows covered.
func (r Rect) Height() int {
	if r.Y1 <= r.Y0 {
		return 0
	}
	return r.Y1 - r.Y0
}

// Empty returns true if the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Center returns the center cell of the rectangle.
func (r Rect) Center() (int, int) {
	return r.X0 + r.Width()/2, r.Y0 + r.Height()/2
}

// Contains returns true if the given cell is inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// Intersects returns true if this rectangle overlaps with another one.
func (r Rect) Intersects(other Rect) bool {
	return r.X0 < other.X1 &&
		r.X1 > other.X0 &&
		r.Y0 < other.Y1 &&
		r.Y1 > other.Y0
}

// Expand grows the rectangle by n cells on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{X0: r.X0 - n, Y0: r.Y0 - n, X1: r.X1 + n, Y1: r.Y1 + n}
}

// Clip restricts the rectangle to a width x height grid.
func (r Rect) Clip(width, height int) Rect {
	return Rect{
		X0: max(r.X0, 0),
		Y0: max(r.Y0, 0),
		X1: min(r.X1, width),
		Y1: min(r.Y1, height),
	}
}

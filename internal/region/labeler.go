// Package region labels connected components of a terrain grid and
// classifies them by size and boundary contact.
package region

// MatchFunc reports whether a cell belongs to the component being grown.
// It is only called for in-bounds cells.
type MatchFunc func(x, y int) bool

// VisitFunc marks a cell. After it returns, the MatchFunc must report
// false for that cell, otherwise the fill would visit it again.
type VisitFunc func(x, y int)

type cell struct {
	x, y int
}

// Labeler runs non-recursive scan fills over a width x height grid.
// The work stack is kept between fills.
type Labeler struct {
	width  int
	height int
	stack  []cell
}

// NewLabeler creates a labeler for a grid of the given size.
func NewLabeler(width, height int) *Labeler {
	return &Labeler{width: width, height: height, stack: make([]cell, 0, 64)}
}

// Fill grows a component from the seed and returns the number of cells visited.
//
// A popped cell that still matches starts a row scan: leftwards from its
// column, then rightwards from the next column, each stopping at the first
// non-matching cell. Every visited cell pushes its matching neighbours in the
// rows above and below.
func (l *Labeler) Fill(seedX, seedY int, matches MatchFunc, visit VisitFunc) int {
	if !l.inBounds(seedX, seedY) {
		return 0
	}

	count := 0
	l.stack = append(l.stack[:0], cell{seedX, seedY})
	for len(l.stack) > 0 {
		c := l.stack[len(l.stack)-1]
		l.stack = l.stack[:len(l.stack)-1]
		if !matches(c.x, c.y) {
			continue
		}

		// Left, including the popped column
		for x := c.x; x >= 0 && matches(x, c.y); x-- {
			visit(x, c.y)
			count++
			l.pushVertical(x, c.y, matches)
		}

		// Right
		for x := c.x + 1; x < l.width && matches(x, c.y); x++ {
			visit(x, c.y)
			count++
			l.pushVertical(x, c.y, matches)
		}
	}
	return count
}

// pushVertical queues the matching cells directly above and below.
func (l *Labeler) pushVertical(x, y int, matches MatchFunc) {
	if y-1 >= 0 && matches(x, y-1) {
		l.stack = append(l.stack, cell{x, y - 1})
	}
	if y+1 < l.height && matches(x, y+1) {
		l.stack = append(l.stack, cell{x, y + 1})
	}
}

func (l *Labeler) inBounds(x, y int) bool {
	return x >= 0 && x < l.width && y >= 0 && y < l.height
}

package tilecache

// Edge decoration pieces are cells of a 3x3 nine-slice sheet, numbered
// row-major: 0 1 2 / 3 4 5 / 6 7 8. The middle piece is cut into the
// four corner quadrants.
const (
	PieceCount    = 9
	QuadrantCount = 4
)

// lowerStamps lists the nine-slice pieces drawn for each edge mask, in
// drawing order. Each piece covers the whole tile.
var lowerStamps = [16][]int{
	{},
	{1},
	{5},
	{1, 5, 2},
	{7},
	{1, 7},
	{5, 7, 8},
	{1, 5, 7, 2, 8},
	{3},
	{1, 3, 0},
	{3, 5},
	{1, 3, 5, 0, 2},
	{3, 7, 6},
	{1, 3, 7, 0, 6},
	{3, 5, 7, 6, 8},
	{1, 3, 5, 7, 0, 2, 6, 8},
}

// upperStamps lists the corner quadrants drawn for each corner mask.
// Quadrant q is placed at ((q%2)*half, (q/2)*half).
var upperStamps = [16][]int{
	{},
	{0},
	{1},
	{0, 1},
	{3},
	{0, 3},
	{1, 3},
	{0, 1, 3},
	{2},
	{0, 2},
	{1, 2},
	{0, 1, 2},
	{2, 3},
	{0, 2, 3},
	{1, 2, 3},
	{0, 1, 2, 3},
}

// reachable holds every (edge, corner) pair the neighborhood classifier can
// produce. A corner bit needs both adjacent edges clear, so most pairs never
// occur.
var reachable = [][2]uint8{
	{1, 0}, {1, 4}, {1, 8}, {1, 12},
	{2, 0}, {2, 1}, {2, 8}, {2, 9},
	{3, 0}, {3, 8},
	{4, 0}, {4, 1}, {4, 2}, {4, 3},
	{5, 0},
	{6, 0}, {6, 1},
	{7, 0},
	{8, 0}, {8, 2}, {8, 4}, {8, 6},
	{9, 0}, {9, 4},
	{10, 0}, {11, 0},
	{12, 0}, {12, 2},
	{13, 0}, {14, 0}, {15, 0},
	{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}, {0, 6}, {0, 7},
	{0, 8}, {0, 9}, {0, 10}, {0, 11}, {0, 12}, {0, 13}, {0, 14}, {0, 15},
}

// Reachable reports whether an (edge, corner) pair is part of the batch
// generated for every (terrain, density) pair.
func Reachable(edge, corner uint8) bool {
	for _, rc := range reachable {
		if rc[0] == edge && rc[1] == corner {
			return true
		}
	}
	return false
}

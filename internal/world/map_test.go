package world

import (
	"errors"
	"testing"
)

func TestNewMapRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		width, height int
	}{
		{0, 0},
		{0, 5},
		{5, 0},
		{-1, 3},
	}

	for _, tt := range tests {
		_, err := NewMap(tt.width, tt.height)
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewMap(%d,%d) expected ErrInvalidDimensions, got %v", tt.width, tt.height, err)
		}
	}
}

func TestMapOutOfBounds(t *testing.T) {
	m := MustParseMap(
		"##",
		"#@",
	)

	if m.TerrainAt(-1, 0) != Empty || m.TerrainAt(2, 0) != Empty {
		t.Error("Out-of-bounds terrain should read as Empty")
	}
	if m.Collidable(5, 5) {
		t.Error("Out-of-bounds cells should not be collidable")
	}
	if !m.Collidable(1, 1) {
		t.Error("Expected '@' cell to be collidable")
	}
	if err := m.SetTerrain(2, 0, Solid); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if err := m.SetTerrain(0, 0, Terrain(9)); !errors.Is(err, ErrInvalidTerrain) {
		t.Errorf("Expected ErrInvalidTerrain, got %v", err)
	}
}

func TestSurroundType(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want Terrain
	}{
		{"raised wins over liquid", []string{".^.", "~%.", "..."}, RaisedEdge},
		{"liquid", []string{"...", ".%~", "..."}, Liquid},
		{"nothing", []string{"#.#", ".%.", "#.#"}, Empty},
	}

	for _, tt := range tests {
		m := MustParseMap(tt.rows...)
		if got := m.SurroundType(1, 1); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestBreakRevertsToSurroundings(t *testing.T) {
	m := MustParseMap(
		"#####",
		"#~%~#",
		"#####",
	)

	dirty, changed, err := m.Break(2, 1)
	if err != nil {
		t.Fatalf("Break failed: %v", err)
	}
	if !changed {
		t.Fatal("Expected breakable cell to change")
	}
	if got := m.TerrainAt(2, 1); got != Liquid {
		t.Errorf("Expected Liquid after break, got %v", got)
	}
	if dirty != (Rect{X0: 1, Y0: 0, X1: 4, Y1: 3}) {
		t.Errorf("Unexpected dirty rect %+v", dirty)
	}

	if _, changed, _ := m.Break(0, 0); changed {
		t.Error("Breaking a solid cell should not change anything")
	}
}

func TestRectClipAndExpand(t *testing.T) {
	r := RectAt(0, 0).Expand(1).Clip(4, 4)
	if r != (Rect{X0: 0, Y0: 0, X1: 2, Y1: 2}) {
		t.Errorf("Unexpected rect %+v", r)
	}
	if !r.Contains(1, 1) || r.Contains(2, 2) {
		t.Error("Contains should treat X1/Y1 as exclusive")
	}
	if (Rect{X0: 3, Y0: 3, X1: 1, Y1: 5}).Empty() == false {
		t.Error("Inverted rect should be empty")
	}
}

func TestParseMapRoundTrip(t *testing.T) {
	rows := []string{"#^~%.", "@@..#"}
	m := MustParseMap(rows...)
	want := "#^~%.\n@@..#\n"
	if m.String() != want {
		t.Errorf("Expected %q, got %q", want, m.String())
	}
}

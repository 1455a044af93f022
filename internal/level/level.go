// Package level reads and writes TUFF2 level files: a terrain grid, its
// collision overlay, the start cell and the placed objects.
//
// All integers are big-endian int32. Section tags are written as UTF-16BE
// characters (two bytes each):
//
//	"TUFF2" width height startX startY
//	"MAP"   width*height terrain bytes, row by row
//	"COL"   count, then count (x, y) pairs
//	"OBJ"   count, then per object: tree byte, type byte, x, y, extra
//
// Non-tree objects of type 0 carry a one-byte extra, type 5 a four-byte extra.
package level

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/samdwyer/tuffmap/internal/world"
)

var (
	// ErrBadMagic is returned when a header or section tag does not match.
	ErrBadMagic = errors.New("bad level tag")
	// ErrTruncated is returned when the input ends inside a section.
	ErrTruncated = errors.New("level data truncated")
)

// MaxSide bounds the grid dimensions accepted by Decode.
const MaxSide = 4096

const (
	tagHeader    = "TUFF2"
	tagMap       = "MAP"
	tagCollision = "COL"
	tagObjects   = "OBJ"
)

// Object is a placed map object. Its meaning belongs to the game; the level
// only round-trips it.
type Object struct {
	Tree  bool
	Type  uint8
	X, Y  int
	Extra int
}

func (o Object) extraSize() int {
	switch {
	case o.Tree:
		return 0
	case o.Type == 0:
		return 1
	case o.Type == 5:
		return 4
	default:
		return 0
	}
}

// Level is a decoded level file.
type Level struct {
	Map     *world.Map
	StartX  int
	StartY  int
	Objects []Object
}

type reader struct {
	r *bufio.Reader
}

func (r reader) read(section string, v any) error {
	if err := binary.Read(r.r, binary.BigEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%s section: %w", section, ErrTruncated)
		}
		return fmt.Errorf("%s section: %w", section, err)
	}
	return nil
}

func (r reader) readInt(section string) (int, error) {
	var v int32
	err := r.read(section, &v)
	return int(v), err
}

func (r reader) tag(want string) error {
	got := make([]uint16, len(want))
	if err := r.read(want, got); err != nil {
		return err
	}
	for i, c := range got {
		if c != uint16(want[i]) {
			return fmt.Errorf("expected %q tag: %w", want, ErrBadMagic)
		}
	}
	return nil
}

// Decode reads a TUFF2 level.
func Decode(in io.Reader) (*Level, error) {
	r := reader{r: bufio.NewReader(in)}

	if err := r.tag(tagHeader); err != nil {
		return nil, err
	}
	var header [4]int32
	if err := r.read(tagHeader, &header); err != nil {
		return nil, err
	}
	width, height := int(header[0]), int(header[1])
	if width > MaxSide || height > MaxSide {
		return nil, fmt.Errorf("level %dx%d exceeds %d: %w", width, height, MaxSide, world.ErrInvalidDimensions)
	}
	m, err := world.NewMap(width, height)
	if err != nil {
		return nil, err
	}
	lv := &Level{Map: m, StartX: int(header[2]), StartY: int(header[3])}

	if err := r.tag(tagMap); err != nil {
		return nil, err
	}
	cells := make([]byte, width*height)
	if err := r.read(tagMap, cells); err != nil {
		return nil, err
	}
	for i, code := range cells {
		if err := m.SetTerrain(i%width, i/width, world.Terrain(code)); err != nil {
			return nil, fmt.Errorf("%s section: %w", tagMap, err)
		}
	}

	if err := r.tag(tagCollision); err != nil {
		return nil, err
	}
	count, err := r.readInt(tagCollision)
	if err != nil {
		return nil, err
	}
	if count < 0 || count > width*height {
		return nil, fmt.Errorf("%s section: %d cells on a %dx%d grid: %w", tagCollision, count, width, height, world.ErrOutOfRange)
	}
	for i := 0; i < count; i++ {
		var xy [2]int32
		if err := r.read(tagCollision, &xy); err != nil {
			return nil, err
		}
		if err := m.SetCollidable(int(xy[0]), int(xy[1]), true); err != nil {
			return nil, fmt.Errorf("%s section: %w", tagCollision, err)
		}
	}

	if err := r.tag(tagObjects); err != nil {
		return nil, err
	}
	if count, err = r.readInt(tagObjects); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%s section: negative count %d: %w", tagObjects, count, world.ErrOutOfRange)
	}
	for i := 0; i < count; i++ {
		var head struct {
			Tree, Type uint8
			X, Y       int32
		}
		if err := r.read(tagObjects, &head); err != nil {
			return nil, err
		}
		obj := Object{Tree: head.Tree == 1, Type: head.Type, X: int(head.X), Y: int(head.Y)}
		switch obj.extraSize() {
		case 1:
			var b uint8
			if err := r.read(tagObjects, &b); err != nil {
				return nil, err
			}
			obj.Extra = int(b)
		case 4:
			if obj.Extra, err = r.readInt(tagObjects); err != nil {
				return nil, err
			}
		}
		lv.Objects = append(lv.Objects, obj)
	}
	return lv, nil
}

type writer struct {
	w   *bufio.Writer
	err error
}

func (w *writer) write(v any) {
	if w.err == nil {
		w.err = binary.Write(w.w, binary.BigEndian, v)
	}
}

func (w *writer) tag(s string) {
	chars := make([]uint16, len(s))
	for i := range s {
		chars[i] = uint16(s[i])
	}
	w.write(chars)
}

// Encode writes lv in the layout Decode reads.
func Encode(out io.Writer, lv *Level) error {
	if lv == nil || lv.Map == nil {
		return fmt.Errorf("encode level: no map: %w", world.ErrInvalidDimensions)
	}
	m := lv.Map
	w := &writer{w: bufio.NewWriter(out)}

	w.tag(tagHeader)
	w.write([4]int32{int32(m.Width), int32(m.Height), int32(lv.StartX), int32(lv.StartY)})

	w.tag(tagMap)
	cells := make([]byte, 0, m.Width*m.Height)
	var collidable [][2]int32
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			cells = append(cells, byte(m.TerrainAt(x, y)))
			if m.Collidable(x, y) {
				collidable = append(collidable, [2]int32{int32(x), int32(y)})
			}
		}
	}
	w.write(cells)

	w.tag(tagCollision)
	w.write(int32(len(collidable)))
	for _, xy := range collidable {
		w.write(xy)
	}

	w.tag(tagObjects)
	w.write(int32(len(lv.Objects)))
	for _, obj := range lv.Objects {
		var tree uint8
		if obj.Tree {
			tree = 1
		}
		w.write([]uint8{tree, obj.Type})
		w.write([2]int32{int32(obj.X), int32(obj.Y)})
		switch obj.extraSize() {
		case 1:
			w.write(uint8(obj.Extra))
		case 4:
			w.write(int32(obj.Extra))
		}
	}

	if w.err != nil {
		return fmt.Errorf("encode level: %w", w.err)
	}
	return w.w.Flush()
}

package level

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/tuffmap/internal/world"
)

// fixture writes a level byte by byte the way the editor saves it.
type fixture struct {
	bytes.Buffer
}

func (f *fixture) chars(s string) {
	for _, c := range s {
		_ = binary.Write(f, binary.BigEndian, uint16(c))
	}
}

func (f *fixture) ints(vs ...int32) {
	for _, v := range vs {
		_ = binary.Write(f, binary.BigEndian, v)
	}
}

func smallLevel() *fixture {
	f := &fixture{}
	f.chars("TUFF2")
	f.ints(3, 2, 1, 0)
	f.chars("MAP")
	f.Write([]byte{1, 2, 0, 4, 3, 1})
	f.chars("COL")
	f.ints(1, 2, 1)
	f.chars("OBJ")
	f.ints(3)
	f.Write([]byte{0, 0})
	f.ints(4, 5)
	f.WriteByte(7)
	f.Write([]byte{0, 5})
	f.ints(8, 9, 1234)
	f.Write([]byte{1, 2})
	f.ints(10, 11)
	return f
}

func TestDecode(t *testing.T) {
	lv, err := Decode(smallLevel())
	require.NoError(t, err)

	assert.Equal(t, 1, lv.StartX)
	assert.Equal(t, 0, lv.StartY)
	assert.Equal(t, "#^.\n~%@\n", lv.Map.String())
	assert.True(t, lv.Map.Collidable(2, 1))
	assert.False(t, lv.Map.Collidable(0, 0))

	assert.Equal(t, []Object{
		{Type: 0, X: 4, Y: 5, Extra: 7},
		{Type: 5, X: 8, Y: 9, Extra: 1234},
		{Tree: true, Type: 2, X: 10, Y: 11},
	}, lv.Objects)
}

func TestEncodeMatchesEditorLayout(t *testing.T) {
	lv, err := Decode(smallLevel())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Encode(&out, lv))
	assert.Equal(t, smallLevel().Bytes(), out.Bytes())
}

func TestDecodeErrors(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		f := &fixture{}
		f.chars("TUFF1")
		_, err := Decode(f)
		assert.True(t, errors.Is(err, ErrBadMagic))
	})

	t.Run("truncated map", func(t *testing.T) {
		data := smallLevel().Bytes()
		_, err := Decode(bytes.NewReader(data[:10+16+6+3]))
		assert.True(t, errors.Is(err, ErrTruncated))
	})

	t.Run("truncated objects", func(t *testing.T) {
		data := smallLevel().Bytes()
		_, err := Decode(bytes.NewReader(data[:len(data)-2]))
		assert.True(t, errors.Is(err, ErrTruncated))
	})

	t.Run("unknown terrain", func(t *testing.T) {
		data := smallLevel().Bytes()
		data[10+16+6] = 9
		_, err := Decode(bytes.NewReader(data))
		assert.True(t, errors.Is(err, world.ErrInvalidTerrain))
	})

	t.Run("collision off the grid", func(t *testing.T) {
		f := &fixture{}
		f.chars("TUFF2")
		f.ints(1, 1, 0, 0)
		f.chars("MAP")
		f.WriteByte(1)
		f.chars("COL")
		f.ints(1, 5, 5)
		_, err := Decode(f)
		assert.True(t, errors.Is(err, world.ErrOutOfRange))
	})

	t.Run("zero width", func(t *testing.T) {
		f := &fixture{}
		f.chars("TUFF2")
		f.ints(0, 4, 0, 0)
		_, err := Decode(f)
		assert.True(t, errors.Is(err, world.ErrInvalidDimensions))
	})

	t.Run("oversized", func(t *testing.T) {
		f := &fixture{}
		f.chars("TUFF2")
		f.ints(MaxSide+1, 4, 0, 0)
		_, err := Decode(f)
		assert.True(t, errors.Is(err, world.ErrInvalidDimensions))
	})
}

func TestEncodeRejectsMissingMap(t *testing.T) {
	var out bytes.Buffer
	err := Encode(&out, &Level{})
	assert.True(t, errors.Is(err, world.ErrInvalidDimensions))
}

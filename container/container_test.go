package container

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xyzi(t *testing.T) *Container {
	t.Helper()
	c, err := New(
		Attribute{Name: "x", Type: Float64},
		Attribute{Name: "y", Type: Float64},
		Attribute{Name: "z", Type: Float32},
		Attribute{Name: "intensity", Type: Uint16},
	)
	require.NoError(t, err)
	return c
}

func TestContainer_Layout(t *testing.T) {
	c := xyzi(t)

	assert.Equal(t, 8+8+4+2, c.RecordSize())
	assert.Equal(t, 4, c.NumAttributes())
	assert.Equal(t, 0, c.Offset(0))
	assert.Equal(t, 16, c.Offset(2))
	assert.Equal(t, 20, c.Offset(3))

	i, ok := c.Index("z")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = c.Index("w")
	assert.False(t, ok)

	names := make([]string, 0, 4)
	for _, a := range c.Attributes() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"x", "y", "z", "intensity"}, names)
}

func TestContainer_Errors(t *testing.T) {
	_, err := New(Attribute{Name: "x", Type: Float64}, Attribute{Name: "x", Type: Int8})
	assert.ErrorIs(t, err, ErrDuplicateAttribute)

	_, err = New(Attribute{Name: "x", Type: Type(99)})
	assert.ErrorIs(t, err, ErrInvalidType)

	c := xyzi(t)
	c.Resize(1)
	_, err = c.Value(0, "w")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	_, err = c.Value(1, "x")
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, c.SetValue(-1, "x", 1), ErrOutOfRange)
	assert.Error(t, c.Append(1, 2))
}

func TestContainer_Values(t *testing.T) {
	c := xyzi(t)
	require.NoError(t, c.Append(1.5, -2.25, 3.5, 1000))
	require.NoError(t, c.Append(650000.125, 6860000.5, -1, 65535))

	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.Bytes(), 2*c.RecordSize())

	v, err := c.Value(1, "x")
	require.NoError(t, err)
	assert.Equal(t, 650000.125, v)
	assert.Equal(t, float64(65535), c.ValueAt(1, 3))
	assert.Equal(t, -2.25, c.ValueAt(0, 1))

	require.NoError(t, c.SetValue(0, "intensity", 70000))
	assert.Equal(t, float64(math.MaxUint16), c.ValueAt(0, 3), "saturates")
}

func TestContainer_Resize(t *testing.T) {
	c := xyzi(t)
	require.NoError(t, c.Append(1, 2, 3, 4))
	require.NoError(t, c.Append(5, 6, 7, 8))

	require.NoError(t, c.Resize(1))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, c.Resize(3))
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, float64(1), c.ValueAt(0, 0))
	assert.Equal(t, float64(0), c.ValueAt(1, 0), "regrown records are zeroed")
	assert.Equal(t, float64(0), c.ValueAt(2, 3))

	require.NoError(t, c.Resize(-4))
	assert.Equal(t, 0, c.Len())
}

func TestContainer_ResizeOverflow(t *testing.T) {
	c, err := New(Attribute{Name: "x", Type: Float64})
	require.NoError(t, err)
	require.NoError(t, c.Append(1))

	for _, n := range []int{math.MaxInt/8 + 1, 1 << 62, math.MaxInt} {
		err := c.Resize(n)
		require.ErrorIs(t, err, ErrTooLarge, "%d", n)
		assert.Equal(t, 1, c.Len(), "unchanged after %d", n)
		assert.Len(t, c.Bytes(), 8)
	}
	assert.Equal(t, float64(1), c.ValueAt(0, 0))

	empty, err := New()
	require.NoError(t, err)
	require.NoError(t, empty.Resize(math.MaxInt), "zero-size records never overflow")
}

func TestContainer_SetAttributesDiscardsContent(t *testing.T) {
	c := xyzi(t)
	require.NoError(t, c.Append(1, 2, 3, 4))
	c.SetTransform(Transform{X: 10})

	require.NoError(t, c.SetAttributes([]Attribute{{Name: "a", Type: Int32}}))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 4, c.RecordSize())
	assert.Equal(t, Transform{X: 10}, c.Transform())
}

func TestContainer_AddAttributeKeepsValues(t *testing.T) {
	c := xyzi(t)
	require.NoError(t, c.Append(1, 2, 3, 4))
	require.NoError(t, c.Append(5, 6, 7, 8))

	require.NoError(t, c.AddAttribute(Attribute{Name: "classification", Type: Uint8}))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 23, c.RecordSize())
	assert.Equal(t, float64(8), c.ValueAt(1, 3))
	assert.Equal(t, float64(0), c.ValueAt(1, 4))

	assert.ErrorIs(t, c.AddAttribute(Attribute{Name: "x", Type: Uint8}), ErrDuplicateAttribute)
	assert.Equal(t, 5, c.NumAttributes())
}

func TestContainer_AttributesAreCopies(t *testing.T) {
	c, err := New(Attribute{Name: "x", Type: Float64, Bounds: &Bounds{Min: 0, Max: 1}})
	require.NoError(t, err)

	attrs := c.Attributes()
	attrs[0].Bounds.Max = 100
	attrs[0].Name = "changed"

	a, ok := c.Attribute("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, a.Bounds.Max)
}

func TestTransform(t *testing.T) {
	assert.False(t, Transform{}.IsSet())
	assert.True(t, Transform{X: 1}.IsSet())
	assert.True(t, Transform{Y: -1}.IsSet())
}

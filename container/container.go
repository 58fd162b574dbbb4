package container

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownAttribute is returned when an attribute name is not part of the layout.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrDuplicateAttribute is returned when an attribute name is declared twice.
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	// ErrInvalidType is returned for attributes with an unknown storage type.
	ErrInvalidType = errors.New("invalid attribute type")
	// ErrOutOfRange is returned for point indices outside [0, Len).
	ErrOutOfRange = errors.New("point index out of range")
	// ErrTooLarge is returned when a point count does not fit in memory
	// addressable by one byte slice.
	ErrTooLarge = errors.New("point count too large")
)

// Bounds is the optional value range declared for an attribute.
type Bounds struct {
	Min float64
	Max float64
}

// Attribute describes one per-point column.
type Attribute struct {
	Name   string
	Type   Type
	Bounds *Bounds
}

// Transform is the centering offset applied to the x/y coordinates.
type Transform struct {
	X float64
	Y float64
}

// IsSet reports whether the transform is a non-trivial offset.
func (t Transform) IsSet() bool { return t.X != 0 || t.Y != 0 }

// Container is an in-memory point cloud with a runtime-defined attribute layout.
type Container struct {
	attrs      []Attribute
	offsets    []int
	index      map[string]int
	recordSize int
	data       []byte
	n          int
	transform  Transform
}

// New creates an empty container with the given attribute layout.
func New(attrs ...Attribute) (*Container, error) {
	c := &Container{}
	if err := c.SetAttributes(attrs); err != nil {
		return nil, err
	}
	return c, nil
}

// SetAttributes replaces the attribute layout. All points are discarded.
func (c *Container) SetAttributes(attrs []Attribute) error {
	index := make(map[string]int, len(attrs))
	offsets := make([]int, len(attrs))
	size := 0
	for i, a := range attrs {
		if !a.Type.Valid() {
			return fmt.Errorf("%w: %s has type %d", ErrInvalidType, a.Name, a.Type)
		}
		if _, dup := index[a.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateAttribute, a.Name)
		}
		index[a.Name] = i
		offsets[i] = size
		size += a.Type.Size()
	}

	c.attrs = cloneAttributes(attrs)
	c.offsets = offsets
	c.index = index
	c.recordSize = size
	c.data = nil
	c.n = 0
	return nil
}

// AddAttribute appends an attribute to the layout. Existing points keep
// their values and get zero for the new attribute.
func (c *Container) AddAttribute(a Attribute) error {
	if _, dup := c.index[a.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateAttribute, a.Name)
	}

	old := *c
	if err := c.SetAttributes(append(cloneAttributes(old.attrs), a)); err != nil {
		*c = old
		return err
	}
	c.transform = old.transform
	if err := c.Resize(old.n); err != nil {
		*c = old
		return err
	}
	for i := 0; i < old.n; i++ {
		copy(c.Record(i), old.data[i*old.recordSize:(i+1)*old.recordSize])
	}
	return nil
}

// Attributes returns a copy of the layout in insertion order.
func (c *Container) Attributes() []Attribute {
	return cloneAttributes(c.attrs)
}

// NumAttributes returns the number of attributes in the layout.
func (c *Container) NumAttributes() int { return len(c.attrs) }

// Attribute returns the attribute called name.
func (c *Container) Attribute(name string) (Attribute, bool) {
	i, ok := c.index[name]
	if !ok {
		return Attribute{}, false
	}
	return c.attrs[i], true
}

// Index returns the position of the attribute called name.
func (c *Container) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Offset returns the byte offset of attribute i within a record.
func (c *Container) Offset(i int) int { return c.offsets[i] }

// RecordSize returns the size of one point record in bytes.
func (c *Container) RecordSize() int { return c.recordSize }

// Len returns the number of points.
func (c *Container) Len() int { return c.n }

// Resize sets the number of points. New points are zeroed. It fails with
// ErrTooLarge, leaving c unchanged, when n records overflow a byte slice.
func (c *Container) Resize(n int) error {
	if n < 0 {
		n = 0
	}
	if c.recordSize > 0 && n > math.MaxInt/c.recordSize {
		return fmt.Errorf("%w: %d points of %d bytes", ErrTooLarge, n, c.recordSize)
	}
	size := n * c.recordSize
	switch {
	case size <= len(c.data):
		clear(c.data[size:])
		c.data = c.data[:size]
	case size <= cap(c.data):
		old := len(c.data)
		c.data = c.data[:size]
		clear(c.data[old:])
	default:
		grown := make([]byte, size)
		copy(grown, c.data)
		c.data = grown
	}
	c.n = n
	return nil
}

// Bytes returns the raw interleaved records. The slice aliases the container.
func (c *Container) Bytes() []byte { return c.data }

// Record returns the raw bytes of point i. The slice aliases the container.
func (c *Container) Record(i int) []byte {
	return c.data[i*c.recordSize : (i+1)*c.recordSize]
}

// ValueAt returns attribute attr of point i. It panics on out-of-range
// arguments, like slice indexing.
func (c *Container) ValueAt(i, attr int) float64 {
	off := i*c.recordSize + c.offsets[attr]
	return Decode(c.attrs[attr].Type, c.data[off:])
}

// SetValueAt sets attribute attr of point i.
func (c *Container) SetValueAt(i, attr int, v float64) {
	off := i*c.recordSize + c.offsets[attr]
	Encode(c.attrs[attr].Type, c.data[off:], v)
}

// Value returns the attribute called name of point i.
func (c *Container) Value(i int, name string) (float64, error) {
	attr, err := c.lookup(i, name)
	if err != nil {
		return 0, err
	}
	return c.ValueAt(i, attr), nil
}

// SetValue sets the attribute called name of point i.
func (c *Container) SetValue(i int, name string, v float64) error {
	attr, err := c.lookup(i, name)
	if err != nil {
		return err
	}
	c.SetValueAt(i, attr, v)
	return nil
}

// Append adds a point. values are given in layout order.
func (c *Container) Append(values ...float64) error {
	if len(values) != len(c.attrs) {
		return fmt.Errorf("append: got %d values for %d attributes", len(values), len(c.attrs))
	}
	i := c.n
	if err := c.Resize(c.n + 1); err != nil {
		return err
	}
	for attr, v := range values {
		c.SetValueAt(i, attr, v)
	}
	return nil
}

// Transform returns the centering transform of the cloud.
func (c *Container) Transform() Transform { return c.transform }

// SetTransform sets the centering transform of the cloud.
func (c *Container) SetTransform(t Transform) { c.transform = t }

func (c *Container) lookup(i int, name string) (int, error) {
	attr, ok := c.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}
	if i < 0 || i >= c.n {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, c.n)
	}
	return attr, nil
}

func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = a
		if a.Bounds != nil {
			b := *a.Bounds
			out[i].Bounds = &b
		}
	}
	return out
}

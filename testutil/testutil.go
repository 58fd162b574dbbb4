// Package testutil generates deterministic point clouds for tests.
package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/lidarformat/container"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Value returns a random value exactly representable by t.
//
// Floats are multiples of 1/1024. Quantized formats such as LAS need Grid
// instead. 64-bit integers stay within ±2^40 so the float64 exchange is exact.
func (r *RNG) Value(t container.Type) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch t {
	case container.Int8:
		return float64(r.rand.Intn(256) - 128)
	case container.Uint8:
		return float64(r.rand.Intn(256))
	case container.Int16:
		return float64(r.rand.Intn(math.MaxUint16+1) + math.MinInt16)
	case container.Uint16:
		return float64(r.rand.Intn(math.MaxUint16 + 1))
	case container.Int32:
		return float64(r.rand.Int63n(math.MaxUint32+1) + math.MinInt32)
	case container.Uint32:
		return float64(r.rand.Int63n(math.MaxUint32 + 1))
	case container.Int64:
		return float64(r.rand.Int63n(1<<41) - 1<<40)
	case container.Uint64:
		return float64(r.rand.Int63n(1 << 40))
	case container.Float32:
		return float64(r.rand.Intn(1<<20)-1<<19) / 1024
	default:
		return float64(r.rand.Int63n(1<<40)-1<<39) / 1024
	}
}

// Grid returns a random multiple of step in [lo, hi).
func (r *RNG) Grid(lo, hi, step float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	steps := int64((hi - lo) / step)
	return lo + float64(r.rand.Int63n(steps))*step
}

// Cloud returns a container with n random points for attrs.
func (r *RNG) Cloud(n int, attrs ...container.Attribute) *container.Container {
	c, err := container.New(attrs...)
	if err != nil {
		panic(err)
	}
	if err := c.Resize(n); err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		for a, attr := range attrs {
			c.SetValueAt(i, a, r.Value(attr.Type))
		}
	}
	return c
}

// AllTypes returns one attribute of every storage type, named after it.
func AllTypes() []container.Attribute {
	types := []container.Type{
		container.Int8, container.Uint8, container.Int16, container.Uint16,
		container.Int32, container.Uint32, container.Int64, container.Uint64,
		container.Float32, container.Float64,
	}
	attrs := make([]container.Attribute, len(types))
	for i, t := range types {
		attrs[i] = container.Attribute{Name: "a_" + t.String(), Type: t}
	}
	return attrs
}

// XYZ returns the float64 coordinate attributes.
func XYZ() []container.Attribute {
	return []container.Attribute{
		{Name: "x", Type: container.Float64},
		{Name: "y", Type: container.Float64},
		{Name: "z", Type: container.Float64},
	}
}

// Values returns every value of c, point by point in layout order.
func Values(c *container.Container) [][]float64 {
	out := make([][]float64, c.Len())
	for i := range out {
		row := make([]float64, c.NumAttributes())
		for a := range row {
			row[a] = c.ValueAt(i, a)
		}
		out[i] = row
	}
	return out
}

// Column returns the values of the attribute called name.
func Column(c *container.Container, name string) []float64 {
	a, ok := c.Index(name)
	if !ok {
		return nil
	}
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.ValueAt(i, a)
	}
	return out
}

package codec

import (
	"fmt"
	"slices"

	"github.com/hupe1980/lidarformat/format"
)

// Registry maps formats to codec factories.
//
// A Registry is populated once, before it is shared, and is read-only
// afterwards. Concurrent lookups are safe; registering while other
// goroutines look up is not.
type Registry struct {
	factories map[format.ID]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[format.ID]Factory)}
}

// Register binds f to id. A later registration for the same id replaces the
// earlier one.
func (r *Registry) Register(id format.ID, f Factory) {
	r.factories[id] = f
}

// Lookup returns a new codec for id.
func (r *Registry) Lookup(id format.ID) (Codec, error) {
	f, ok := r.factories[id]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, id)
	}
	return f(), nil
}

// Describer returns the describing codec for id, if the registered codec
// can describe raw files.
func (r *Registry) Describer(id format.ID) (Describer, bool) {
	c, err := r.Lookup(id)
	if err != nil {
		return nil, false
	}
	d, ok := c.(Describer)
	return d, ok
}

// Formats returns the registered formats in ascending order.
func (r *Registry) Formats() []format.ID {
	ids := make([]format.ID, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

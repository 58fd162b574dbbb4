// Package codec defines the boundary between the file layer and the
// format-specific encoders.
//
// A Codec loads the data file of one format into a container and saves a
// container back. Codecs only ever see the schema ([sidecar.Descriptor]) and a
// resolved data path, never the sidecar's on-disk representation. Codecs
// that can inspect a raw data file and produce its schema also implement
// [Describer]; the file layer uses that to synthesize missing sidecars.
//
// Codec selection by format is a breaking-change boundary: files written by
// one codec are only readable by the codec registered for the same format.
package codec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/sidecar"
)

// ErrUnsupportedFormat is returned when no codec is registered for a format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Codec loads and saves the data file of one format.
type Codec interface {
	// Load fills c from the data file at dataPath. c has already been laid
	// out after d.Attributes and sized to d.PointCount.
	Load(c *container.Container, d sidecar.Descriptor, dataPath string) error

	// Save writes the points of c to dataPath according to d.
	Save(c *container.Container, d sidecar.Descriptor, dataPath string) error
}

// Describer is implemented by codecs that can derive a sidecar from a raw
// data file. The returned descriptor has no Path and no DataFileName.
type Describer interface {
	Describe(dataPath string) (sidecar.Descriptor, error)
}

// Factory produces a fresh codec instance.
type Factory func() Codec

// CodecError wraps a failure raised by a codec.
//
// The original error can be accessed via errors.Unwrap.
type CodecError struct {
	Format format.ID
	Op     string
	Path   string
	cause  error
}

// NewError wraps err as a CodecError. Wrapping an existing CodecError
// returns it unchanged; a nil err yields nil.
func NewError(id format.ID, op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CodecError
	if errors.As(err, &ce) {
		return err
	}
	return &CodecError{Format: id, Op: op, Path: path, cause: err}
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Format, e.Op, e.Path, e.cause)
}

func (e *CodecError) Unwrap() error { return e.cause }

package lidarformat

import (
	"fmt"
	"time"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/sidecar"
)

// File is a handle on one point-cloud file: its parsed sidecar and the
// location of its data file.
//
// Opening never fails. A File whose sidecar could not be resolved is
// invalid: every accessor and Load then fail with ErrInvalidDescriptor, and
// Err reports the cause. A File must not be loaded from concurrently.
type File struct {
	store *Store
	path  string
	desc  sidecar.Descriptor
	err   error
}

// Open returns the handle for path.
//
// A path with the sidecar extension is parsed directly. For any other path
// the sidecar next to it (same base name, ".xml") is used when it exists;
// otherwise one is generated from the header of a raw PLY or LAS file. A
// parse failure or failed generation yields an invalid File.
func (s *Store) Open(path string) *File {
	f := &File{store: s, path: path}

	sidecarPath, err := s.resolveSidecar(path)
	if err != nil {
		f.err = &invalidError{path: path, cause: err}
		return f
	}
	d, err := sidecar.Read(s.fs, sidecarPath)
	if err != nil {
		f.err = &invalidError{path: path, cause: err}
		return f
	}
	f.desc = d
	return f
}

// Valid reports whether the sidecar of f was resolved and parsed.
func (f *File) Valid() bool { return f.err == nil }

// Err returns nil for a valid File. Otherwise it matches
// ErrInvalidDescriptor and wraps the cause: ErrSynthesisFailed, ErrParse or
// the underlying I/O error.
func (f *File) Err() error { return f.err }

// Path returns the path f was opened with.
func (f *File) Path() string { return f.path }

// Descriptor returns a copy of the parsed sidecar.
func (f *File) Descriptor() (sidecar.Descriptor, error) {
	if f.err != nil {
		return sidecar.Descriptor{}, f.err
	}
	return f.desc.Clone(), nil
}

// Format returns the format declared by the sidecar.
func (f *File) Format() (format.ID, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.desc.Format, nil
}

// NumPoints returns the point count declared by the sidecar.
func (f *File) NumPoints() (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.desc.PointCount, nil
}

// SidecarPath returns the location of the sidecar.
func (f *File) SidecarPath() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.desc.Path, nil
}

// DataPath returns the resolved location of the data file.
func (f *File) DataPath() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.desc.DataPath(), nil
}

// MetaData returns a short human-readable summary of the sidecar.
func (f *File) MetaData() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("Nb of points : %d\nFormat : %s\nBinary filename : %s\n",
		f.desc.PointCount, f.desc.Format, f.desc.DataPath()), nil
}

// Transform returns the centering transform declared by the sidecar, or the
// zero transform when there is none or f is invalid.
func (f *File) Transform() container.Transform {
	if f.err != nil {
		return container.Transform{}
	}
	return f.desc.CenteringTransform()
}

// Load replaces the content of c with the points of the data file.
//
// c is laid out after the sidecar's attributes and sized to its point
// count before the codec runs, so any previous content is discarded even
// when the codec fails. The container's centering transform is set from the
// sidecar.
func (f *File) Load(c *container.Container) error {
	if f.err != nil {
		return f.err
	}
	s := f.store
	d := f.desc.Clone()

	cd, err := s.registry.Lookup(d.Format)
	if err != nil {
		return err
	}
	if err := c.SetAttributes(d.Attributes); err != nil {
		return fmt.Errorf("%s: %w", d.Path, err)
	}
	if err := c.Resize(d.PointCount); err != nil {
		return fmt.Errorf("%s: %w", d.Path, err)
	}
	c.SetTransform(d.CenteringTransform())

	dataPath := d.DataPath()
	start := time.Now()
	err = codec.NewError(d.Format, "load", dataPath, cd.Load(c, d, dataPath))
	elapsed := time.Since(start)

	s.metrics.RecordLoad(d.Format, d.PointCount, elapsed, err)
	s.logger.LogLoad(dataPath, d.Format, d.PointCount, elapsed, err)
	return err
}

// SaveInPlace rewrites the data file of f under its existing sidecar. See
// Store.SaveInPlace.
func (f *File) SaveInPlace(c *container.Container) error {
	if f.err != nil {
		return f.err
	}
	return f.store.SaveInPlace(c, f.desc.Path)
}

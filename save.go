package lidarformat

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/sidecar"
)

// Save writes c to target, inferring the format from target's extension
// and taking the centering transform from c.
//
// A ".xml" target saves a binary data file next to it; unknown extensions
// also save as binary. The sidecar is written next to the data file.
//
// The sidecar's DataFileName is the data path itself when it is absolute.
// For a relative target only the data file's base name is recorded, not the
// relative path: the name resolves against the sidecar's own directory, so
// the pair stays valid wherever it is moved. SaveAs records names the same
// way.
func (s *Store) Save(c *container.Container, target string) error {
	return s.SaveWithTransform(c, target, c.Transform())
}

// SaveWithTransform is Save with an explicit centering transform.
func (s *Store) SaveWithTransform(c *container.Container, target string, t container.Transform) error {
	id, dataPath := format.Infer(target)
	return s.SaveDescriptor(c, s.describe(c, id, dataPath, t), dataPath)
}

// SaveAs writes c in format id. The data file is target with the format's
// canonical extension and the transform is taken from c.
func (s *Store) SaveAs(c *container.Container, target string, id format.ID) error {
	return s.SaveAsWithTransform(c, target, id, c.Transform())
}

// SaveAsWithTransform is SaveAs with an explicit centering transform.
func (s *Store) SaveAsWithTransform(c *container.Container, target string, id format.ID, t container.Transform) error {
	dataPath := format.ReplaceExt(target, id.Ext())
	return s.SaveDescriptor(c, s.describe(c, id, dataPath, t), dataPath)
}

// SaveDescriptor writes d as the sidecar next to dataPath, then saves c to
// dataPath with the codec of d.Format.
//
// The two writes are not transactional: when the codec fails the sidecar
// stays on disk.
func (s *Store) SaveDescriptor(c *container.Container, d sidecar.Descriptor, dataPath string) error {
	if format.IsSidecar(dataPath) {
		return fmt.Errorf("data path %s has the sidecar extension", dataPath)
	}
	cd, err := s.registry.Lookup(d.Format)
	if err != nil {
		return err
	}

	d.Path = format.SidecarPath(dataPath)
	if err := sidecar.Write(s.fs, d.Path, d); err != nil {
		return err
	}
	return s.save(cd, c, d, dataPath)
}

// SaveInPlace rewrites the data file under the existing sidecar at
// sidecarPath, using its declared format. The data file is always
// <dir>/<basename>.bin, whatever data file the sidecar names. A missing or
// malformed sidecar is an error.
func (s *Store) SaveInPlace(c *container.Container, sidecarPath string) error {
	d, err := sidecar.Read(s.fs, sidecarPath)
	if err != nil {
		return err
	}
	cd, err := s.registry.Lookup(d.Format)
	if err != nil {
		return err
	}
	return s.save(cd, c, d, sidecar.DefaultDataPath(sidecarPath))
}

func (s *Store) save(cd codec.Codec, c *container.Container, d sidecar.Descriptor, dataPath string) error {
	start := time.Now()
	err := codec.NewError(d.Format, "save", dataPath, cd.Save(c, d, dataPath))
	elapsed := time.Since(start)

	s.metrics.RecordSave(d.Format, c.Len(), elapsed, err)
	s.logger.LogSave(dataPath, d.Format, c.Len(), elapsed, err)
	return err
}

// describe builds the sidecar of c saved to dataPath. An absolute dataPath
// is recorded verbatim; a relative one by base name only, since the sidecar
// sits in the same directory as the data file.
func (s *Store) describe(c *container.Container, id format.ID, dataPath string, t container.Transform) sidecar.Descriptor {
	name := dataPath
	if !filepath.IsAbs(dataPath) {
		name = filepath.Base(dataPath)
	}
	d := sidecar.New(c, id, name, t)
	if id == format.Binary {
		d.Compression = s.compression
	}
	return d
}

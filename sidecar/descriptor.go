package sidecar

import (
	"path/filepath"
	"strings"

	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
)

// Compression names the stream compression of a binary data file.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression accepts "", "none", "zstd" and "lz4".
func ParseCompression(s string) (Compression, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return CompressionNone, false
	}
}

// Descriptor is the in-memory form of a sidecar document.
type Descriptor struct {
	// Path is the location of the sidecar itself.
	Path       string
	Format     format.ID
	PointCount int
	// Attributes are in on-disk column order.
	Attributes []container.Attribute
	// DataFileName is empty when the sidecar declares no data file. It is
	// either absolute or relative to the sidecar's directory.
	DataFileName string
	Transform    *container.Transform
	Compression  Compression
}

// New builds the descriptor of a container about to be saved. The record
// layout and point count come from c; t is attached only when set. The
// descriptor always names its data file explicitly.
func New(c *container.Container, id format.ID, dataFileName string, t container.Transform) Descriptor {
	d := Descriptor{
		Format:       id,
		PointCount:   c.Len(),
		Attributes:   c.Attributes(),
		DataFileName: dataFileName,
	}
	if t.IsSet() {
		d.Transform = &t
	}
	return d
}

// DataPath resolves the location of the data file described by d.
//
// An absolute DataFileName is used verbatim and a relative one is joined to
// the sidecar's directory. Without a DataFileName the data file is the
// sidecar's base name with a ".bin" extension in the same directory.
func (d Descriptor) DataPath() string {
	dir := filepath.Dir(d.Path)
	if d.DataFileName != "" {
		if filepath.IsAbs(d.DataFileName) {
			return d.DataFileName
		}
		return filepath.Join(dir, d.DataFileName)
	}
	return DefaultDataPath(d.Path)
}

// DefaultDataPath is the derived data location of a sidecar that declares no
// data file: <dir>/<basename>.bin.
func DefaultDataPath(sidecarPath string) string {
	return filepath.Join(filepath.Dir(sidecarPath), Basename(sidecarPath)+format.Binary.Ext())
}

// Basename returns the file name of path without directory and extension.
func Basename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CenteringTransform returns the declared transform or the zero transform.
func (d Descriptor) CenteringTransform() container.Transform {
	if d.Transform == nil {
		return container.Transform{}
	}
	return *d.Transform
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	out := d
	if d.Attributes != nil {
		out.Attributes = make([]container.Attribute, len(d.Attributes))
		for i, a := range d.Attributes {
			out.Attributes[i] = a
			if a.Bounds != nil {
				b := *a.Bounds
				out.Attributes[i].Bounds = &b
			}
		}
	}
	if d.Transform != nil {
		t := *d.Transform
		out.Transform = &t
	}
	return out
}

// RecordSize returns the size of one interleaved record of d's layout.
func (d Descriptor) RecordSize() int {
	size := 0
	for _, a := range d.Attributes {
		size += a.Type.Size()
	}
	return size
}

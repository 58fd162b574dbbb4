// Package bin implements the native binary format: the container's
// interleaved little-endian records written back to back, optionally wrapped
// in a zstd or lz4 stream.
package bin

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/internal/mmap"
	"github.com/hupe1980/lidarformat/sidecar"
)

// ErrLayoutMismatch is returned when the container records do not have the
// size declared by the descriptor.
var ErrLayoutMismatch = errors.New("record layout does not match descriptor")

// Codec reads and writes native binary data files.
type Codec struct {
	fs fs.FileSystem
}

var _ codec.Codec = (*Codec)(nil)

// New returns a binary codec doing its I/O through fsys (fs.Default if nil).
func New(fsys fs.FileSystem) *Codec {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Codec{fs: fsys}
}

// Register binds the binary codec to format.Binary in r.
func Register(r *codec.Registry, fsys fs.FileSystem) {
	r.Register(format.Binary, func() codec.Codec { return New(fsys) })
}

// Load reads the records of dataPath into c.
//
// The declared point count is not checked against the file size. A data
// file shorter than declared fills only the leading records; the rest stay
// zero.
func (b *Codec) Load(c *container.Container, d sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.Binary, "load", dataPath, b.load(c, d, dataPath))
}

// Save writes the records of c to dataPath.
func (b *Codec) Save(c *container.Container, d sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.Binary, "save", dataPath, b.save(c, d, dataPath))
}

func (b *Codec) load(c *container.Container, d sidecar.Descriptor, dataPath string) error {
	if err := checkLayout(c, d); err != nil {
		return err
	}
	dst := c.Bytes()

	if d.Compression == sidecar.CompressionNone && fs.IsLocal(b.fs) {
		m, err := mmap.Open(dataPath)
		if err != nil {
			return err
		}
		defer m.Close()
		_ = m.Advise(mmap.AccessSequential)
		copy(dst, m.Bytes())
		return nil
	}

	f, err := fs.Open(b.fs, dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r, release, err := newReader(f, d.Compression)
	if err != nil {
		return err
	}
	defer release()

	if _, err := io.ReadFull(r, dst); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (b *Codec) save(c *container.Container, d sidecar.Descriptor, dataPath string) error {
	if err := checkLayout(c, d); err != nil {
		return err
	}

	f, err := fs.Create(b.fs, dataPath)
	if err != nil {
		return err
	}

	w, err := newWriter(f, d.Compression)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := w.Write(c.Bytes()); err != nil {
		w.Close()
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func checkLayout(c *container.Container, d sidecar.Descriptor) error {
	if c.RecordSize() != d.RecordSize() {
		return fmt.Errorf("%w: container %d bytes, descriptor %d bytes", ErrLayoutMismatch, c.RecordSize(), d.RecordSize())
	}
	return nil
}

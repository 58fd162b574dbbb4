// Package ply implements the PLY interchange format (sidecar token
// "plyarchi").
//
// Saved files use a binary_little_endian body with a single vertex element
// whose properties are the container attributes in layout order. Loading
// also accepts ascii and binary_big_endian bodies. The vertex element must
// come first and must not contain list properties; later elements are
// ignored.
package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
)

// Codec reads and writes PLY files.
type Codec struct {
	fs fs.FileSystem
}

var (
	_ codec.Codec     = (*Codec)(nil)
	_ codec.Describer = (*Codec)(nil)
)

// New returns a PLY codec doing its I/O through fsys (fs.Default if nil).
func New(fsys fs.FileSystem) *Codec {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Codec{fs: fsys}
}

// Register binds the PLY codec to format.PlyArchive in r.
func Register(r *codec.Registry, fsys fs.FileSystem) {
	r.Register(format.PlyArchive, func() codec.Codec { return New(fsys) })
}

// Describe derives a sidecar descriptor from the PLY header at dataPath.
func (p *Codec) Describe(dataPath string) (sidecar.Descriptor, error) {
	f, err := fs.Open(p.fs, dataPath)
	if err != nil {
		return sidecar.Descriptor{}, codec.NewError(format.PlyArchive, "describe", dataPath, err)
	}
	defer f.Close()

	h, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return sidecar.Descriptor{}, codec.NewError(format.PlyArchive, "describe", dataPath, err)
	}

	d := sidecar.Descriptor{
		Format:     format.PlyArchive,
		PointCount: h.vertices,
	}
	for _, prop := range h.props {
		if slices.ContainsFunc(d.Attributes, func(a container.Attribute) bool { return a.Name == prop.name }) {
			return sidecar.Descriptor{}, codec.NewError(format.PlyArchive, "describe", dataPath,
				fmt.Errorf("%w: duplicate property %q", ErrInvalidHeader, prop.name))
		}
		d.Attributes = append(d.Attributes, container.Attribute{Name: prop.name, Type: prop.typ})
	}
	return d, nil
}

// Load reads up to c.Len() vertices from dataPath. Vertex properties are
// matched to container attributes by name; properties without a matching
// attribute are skipped.
func (p *Codec) Load(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.PlyArchive, "load", dataPath, p.load(c, dataPath))
}

// Save writes c as a binary little-endian PLY file.
func (p *Codec) Save(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.PlyArchive, "save", dataPath, p.save(c, dataPath))
}

func (p *Codec) load(c *container.Container, dataPath string) error {
	f, err := fs.Open(p.fs, dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return err
	}

	targets := make([]int, len(h.props))
	for i, prop := range h.props {
		idx, ok := c.Index(prop.name)
		if !ok {
			idx = -1
		}
		targets[i] = idx
	}

	n := min(c.Len(), h.vertices)
	if h.body == bodyASCII {
		return loadASCII(r, c, h, targets, n)
	}
	return loadBinary(r, c, h, targets, n)
}

func loadBinary(r io.Reader, c *container.Container, h header, targets []int, n int) error {
	record := make([]byte, h.recordSize())
	var swapped [8]byte
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		off := 0
		for j, prop := range h.props {
			size := prop.typ.Size()
			field := record[off : off+size]
			off += size
			if targets[j] < 0 {
				continue
			}
			if h.body == bodyBigEndian {
				for k := 0; k < size; k++ {
					swapped[k] = field[size-1-k]
				}
				field = swapped[:size]
			}
			c.SetValueAt(i, targets[j], container.Decode(prop.typ, field))
		}
	}
	return nil
}

func loadASCII(r *bufio.Reader, c *container.Container, h header, targets []int, n int) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for i := 0; i < n && sc.Scan(); {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(h.props) {
			return fmt.Errorf("vertex %d: got %d values, want %d", i, len(fields), len(h.props))
		}
		for j := range h.props {
			if targets[j] < 0 {
				continue
			}
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return fmt.Errorf("vertex %d: property %s: %w", i, h.props[j].name, err)
			}
			c.SetValueAt(i, targets[j], v)
		}
		i++
	}
	return sc.Err()
}

func (p *Codec) save(c *container.Container, dataPath string) error {
	f, err := fs.Create(p.fs, dataPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := writeHeader(w, c.Len(), c.Attributes()); err != nil {
		f.Close()
		return err
	}
	// PLY binary little-endian records have the container's record layout.
	if _, err := w.Write(c.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

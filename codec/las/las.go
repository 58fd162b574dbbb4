// Package las implements ASPRS LAS 1.2 files with point data formats 0
// to 3.
//
// Coordinates are stored as scaled int32 values. Loading converts them back
// to float64 x, y and z attributes; the remaining point record fields map to
// attributes of the same name (intensity, return_number, classification,
// gps_time, red, ...). Saving picks the smallest point format that covers
// the container's attributes and writes fields the container lacks as zero.
package las

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
)

// Scale is the coordinate resolution of saved files.
const Scale = 0.001

// Codec reads and writes LAS files.
type Codec struct {
	fs  fs.FileSystem
	now func() time.Time
}

var (
	_ codec.Codec     = (*Codec)(nil)
	_ codec.Describer = (*Codec)(nil)
)

// New returns a LAS codec doing its I/O through fsys (fs.Default if nil).
func New(fsys fs.FileSystem) *Codec {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Codec{fs: fsys, now: time.Now}
}

// Register binds the LAS codec to format.Las in r.
func Register(r *codec.Registry, fsys fs.FileSystem) {
	r.Register(format.Las, func() codec.Codec { return New(fsys) })
}

// Describe derives a sidecar descriptor from the LAS header at dataPath.
// The coordinate attributes carry the header's bounding box.
func (l *Codec) Describe(dataPath string) (sidecar.Descriptor, error) {
	f, err := fs.Open(l.fs, dataPath)
	if err != nil {
		return sidecar.Descriptor{}, codec.NewError(format.Las, "describe", dataPath, err)
	}
	defer f.Close()

	h, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return sidecar.Descriptor{}, codec.NewError(format.Las, "describe", dataPath, err)
	}
	pf, _ := lookupFormat(h.PointFormatID)

	attrs := pf.attributes()
	attrs[0].Bounds = &container.Bounds{Min: h.MinX, Max: h.MaxX}
	attrs[1].Bounds = &container.Bounds{Min: h.MinY, Max: h.MaxY}
	attrs[2].Bounds = &container.Bounds{Min: h.MinZ, Max: h.MaxZ}

	return sidecar.Descriptor{
		Format:     format.Las,
		PointCount: int(h.NumberPoints),
		Attributes: attrs,
	}, nil
}

// Load reads up to c.Len() points from dataPath into the attributes of c
// named after LAS point fields. Other attributes are left untouched.
func (l *Codec) Load(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.Las, "load", dataPath, l.load(c, dataPath))
}

// Save writes c as a LAS 1.2 file.
func (l *Codec) Save(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.Las, "save", dataPath, l.save(c, dataPath))
}

func (l *Codec) load(c *container.Container, dataPath string) error {
	f, err := fs.Open(l.fs, dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, int64(h.OffsetToPoints)-headerSize); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	pf, _ := lookupFormat(h.PointFormatID)
	s := scaling{
		scale:  [3]float64{h.XScaleFactor, h.YScaleFactor, h.ZScaleFactor},
		offset: [3]float64{h.XOffset, h.YOffset, h.ZOffset},
	}

	attrs := c.Attributes()
	record := make([]byte, h.PointRecordLength)
	n := min(c.Len(), int(h.NumberPoints))
	var p point
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		decodePoint(record, pf, s, &p)
		for j, a := range attrs {
			if v, ok := p.field(a.Name); ok {
				c.SetValueAt(i, j, v)
			}
		}
	}
	return nil
}

func (l *Codec) save(c *container.Container, dataPath string) error {
	if uint64(c.Len()) > math.MaxUint32 {
		return fmt.Errorf("las: %d points exceed the LAS 1.2 point count limit", c.Len())
	}

	attrs := c.Attributes()
	pf := selectFormat(attrs)
	h := l.newHeader(c, pf)
	s := scaling{
		scale:  [3]float64{h.XScaleFactor, h.YScaleFactor, h.ZScaleFactor},
		offset: [3]float64{h.XOffset, h.YOffset, h.ZOffset},
	}

	f, err := fs.Create(l.fs, dataPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := writeHeader(w, h); err != nil {
		f.Close()
		return err
	}
	record := make([]byte, pf.recordLength)
	for i := 0; i < c.Len(); i++ {
		var p point
		for j, a := range attrs {
			p.setField(a.Name, c.ValueAt(i, j))
		}
		if err := encodePoint(record, pf, s, &p); err != nil {
			f.Close()
			return fmt.Errorf("point %d: %w", i, err)
		}
		if _, err := w.Write(record); err != nil {
			f.Close()
			return err
		}
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

// newHeader fills the public header for c: bounding box, per-return
// counts and an offset at the floor of the minimum coordinate.
func (l *Codec) newHeader(c *container.Container, pf pointFormat) publicHeader {
	h := publicHeader{
		VersionMajor:      1,
		VersionMinor:      2,
		HeaderSize:        headerSize,
		OffsetToPoints:    headerSize,
		PointFormatID:     pf.id,
		PointRecordLength: uint16(pf.recordLength),
		NumberPoints:      uint32(c.Len()),
		XScaleFactor:      Scale,
		YScaleFactor:      Scale,
		ZScaleFactor:      Scale,
	}
	copy(h.FileSignature[:], signature)
	copy(h.SystemID[:], software)
	copy(h.GeneratingSoftware[:], software)
	now := l.now().UTC()
	h.FileCreationDay = uint16(now.YearDay())
	h.FileCreationYear = uint16(now.Year())

	var lo, hi [3]float64
	for axis, name := range [3]string{fieldX, fieldY, fieldZ} {
		idx, ok := c.Index(name)
		if !ok || c.Len() == 0 {
			continue
		}
		lo[axis], hi[axis] = math.Inf(1), math.Inf(-1)
		for i := 0; i < c.Len(); i++ {
			v := c.ValueAt(i, idx)
			lo[axis] = math.Min(lo[axis], v)
			hi[axis] = math.Max(hi[axis], v)
		}
	}
	h.MinX, h.MaxX = lo[0], hi[0]
	h.MinY, h.MaxY = lo[1], hi[1]
	h.MinZ, h.MaxZ = lo[2], hi[2]
	h.XOffset = math.Floor(lo[0])
	h.YOffset = math.Floor(lo[1])
	h.ZOffset = math.Floor(lo[2])

	if idx, ok := c.Index(fieldReturnNumber); ok {
		for i := 0; i < c.Len(); i++ {
			if r := int(c.ValueAt(i, idx)); r >= 1 && r <= 5 {
				h.NumberPointsByReturn[r-1]++
			}
		}
	}
	return h
}

// Package terrabin implements the TerraScan binary point file.
//
// A file is a 56-byte header followed by fixed-size point records: integer
// x, y and z, classification, echo, flag, mark, line and intensity, then
// an optional uint32 time stamp (1/5000 s) and an optional RGBA color when
// the header flags them. Real coordinates are (raw - origin) / units.
package terrabin

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
)

// ErrInvalidHeader is returned when a file does not start with a TerraScan
// binary header.
var ErrInvalidHeader = errors.New("terrabin: invalid header")

const (
	headerSize = 56
	hdrVersion = 20020715
	recogVal   = 970401
	recogStr   = "CXYZ"

	// Units is the number of raw coordinate steps per unit in saved files.
	Units = 1000

	timeResolution = 5000
)

type fileHeader struct {
	HdrSize    int32
	HdrVersion int32
	RecogVal   int32
	RecogStr   [4]byte
	PntCnt     int32
	Units      int32
	OrgX       float64
	OrgY       float64
	OrgZ       float64
	Time       int32
	Color      int32
}

func (h fileHeader) recordSize() int {
	size := 20
	if h.Time != 0 {
		size += 4
	}
	if h.Color != 0 {
		size += 4
	}
	return size
}

// Attributes lists the container attributes of a point record in record
// order, including the optional time and color fields.
func Attributes(withTime, withColor bool) []container.Attribute {
	attrs := []container.Attribute{
		{Name: "x", Type: container.Float64},
		{Name: "y", Type: container.Float64},
		{Name: "z", Type: container.Float64},
		{Name: "classification", Type: container.Uint8},
		{Name: "echo", Type: container.Uint8},
		{Name: "flag", Type: container.Uint8},
		{Name: "mark", Type: container.Uint8},
		{Name: "line", Type: container.Uint16},
		{Name: "intensity", Type: container.Uint16},
	}
	if withTime {
		attrs = append(attrs, container.Attribute{Name: "gps_time", Type: container.Float64})
	}
	if withColor {
		attrs = append(attrs,
			container.Attribute{Name: "red", Type: container.Uint8},
			container.Attribute{Name: "green", Type: container.Uint8},
			container.Attribute{Name: "blue", Type: container.Uint8},
			container.Attribute{Name: "alpha", Type: container.Uint8},
		)
	}
	return attrs
}

// Codec reads and writes TerraScan binary files.
type Codec struct {
	fs fs.FileSystem
}

var _ codec.Codec = (*Codec)(nil)

// New returns a TerraScan codec doing its I/O through fsys (fs.Default if
// nil).
func New(fsys fs.FileSystem) *Codec {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Codec{fs: fsys}
}

// Register binds the TerraScan codec to format.TerraBin in r.
func Register(r *codec.Registry, fsys fs.FileSystem) {
	r.Register(format.TerraBin, func() codec.Codec { return New(fsys) })
}

// Load reads up to c.Len() points into the attributes of c named after
// point record fields.
func (t *Codec) Load(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.TerraBin, "load", dataPath, t.load(c, dataPath))
}

// Save writes c with Units steps per unit and an origin at the floor of the
// minimum coordinates.
func (t *Codec) Save(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.TerraBin, "save", dataPath, t.save(c, dataPath))
}

func readHeader(r io.Reader) (fileHeader, error) {
	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h, fmt.Errorf("%w: truncated header", ErrInvalidHeader)
		}
		return h, err
	}
	switch {
	case h.HdrSize != headerSize:
		return h, fmt.Errorf("%w: header size %d", ErrInvalidHeader, h.HdrSize)
	case h.RecogVal != recogVal || string(h.RecogStr[:]) != recogStr:
		return h, fmt.Errorf("%w: bad recognition value", ErrInvalidHeader)
	case h.Units <= 0:
		return h, fmt.Errorf("%w: units %d", ErrInvalidHeader, h.Units)
	case h.PntCnt < 0:
		return h, fmt.Errorf("%w: point count %d", ErrInvalidHeader, h.PntCnt)
	}
	return h, nil
}

func (t *Codec) load(c *container.Container, dataPath string) error {
	f, err := fs.Open(t.fs, dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return err
	}

	fields := Attributes(h.Time != 0, h.Color != 0)
	targets := make([]int, len(fields))
	for i, a := range fields {
		idx, ok := c.Index(a.Name)
		if !ok {
			idx = -1
		}
		targets[i] = idx
	}

	units := float64(h.Units)
	org := [3]float64{h.OrgX, h.OrgY, h.OrgZ}
	record := make([]byte, h.recordSize())
	values := make([]float64, len(fields))
	le := binary.LittleEndian

	n := min(c.Len(), int(h.PntCnt))
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		for axis := 0; axis < 3; axis++ {
			raw := float64(int32(le.Uint32(record[axis*4:])))
			values[axis] = (raw - org[axis]) / units
		}
		values[3] = float64(record[12])
		values[4] = float64(record[13])
		values[5] = float64(record[14])
		values[6] = float64(record[15])
		values[7] = float64(le.Uint16(record[16:]))
		values[8] = float64(le.Uint16(record[18:]))
		off, next := 20, 9
		if h.Time != 0 {
			values[next] = float64(le.Uint32(record[off:])) / timeResolution
			off += 4
			next++
		}
		if h.Color != 0 {
			for k := 0; k < 4; k++ {
				values[next+k] = float64(record[off+k])
			}
		}
		for j, idx := range targets {
			if idx >= 0 {
				c.SetValueAt(i, idx, values[j])
			}
		}
	}
	return nil
}

func (t *Codec) save(c *container.Container, dataPath string) error {
	if c.Len() > math.MaxInt32 {
		return fmt.Errorf("terrabin: %d points exceed the format limit", c.Len())
	}

	h := fileHeader{
		HdrSize:    headerSize,
		HdrVersion: hdrVersion,
		RecogVal:   recogVal,
		PntCnt:     int32(c.Len()),
		Units:      Units,
	}
	copy(h.RecogStr[:], recogStr)
	var withTime, withColor bool
	for _, a := range c.Attributes() {
		switch a.Name {
		case "gps_time":
			withTime = true
		case "red", "green", "blue", "alpha":
			withColor = true
		}
	}
	if withTime {
		h.Time = 1
	}
	if withColor {
		h.Color = 1
	}

	fields := Attributes(withTime, withColor)
	sources := make([]int, len(fields))
	for i, a := range fields {
		idx, ok := c.Index(a.Name)
		if !ok {
			idx = -1
		}
		sources[i] = idx
	}

	// raw = x*Units + Org, with the origin placing the floor of the
	// minimum coordinate at raw zero.
	for axis, org := range []*float64{&h.OrgX, &h.OrgY, &h.OrgZ} {
		if sources[axis] < 0 || c.Len() == 0 {
			continue
		}
		lo := math.Inf(1)
		for i := 0; i < c.Len(); i++ {
			lo = math.Min(lo, c.ValueAt(i, sources[axis]))
		}
		*org = -math.Floor(lo) * Units
	}

	f, err := fs.Create(t.fs, dataPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		f.Close()
		return err
	}

	org := [3]float64{h.OrgX, h.OrgY, h.OrgZ}
	record := make([]byte, h.recordSize())
	le := binary.LittleEndian
	value := func(i, field int) float64 {
		if sources[field] < 0 {
			return 0
		}
		return c.ValueAt(i, sources[field])
	}
	for i := 0; i < c.Len(); i++ {
		for axis := 0; axis < 3; axis++ {
			raw := math.Round(value(i, axis)*Units + org[axis])
			if math.IsNaN(raw) || raw < math.MinInt32 || raw > math.MaxInt32 {
				f.Close()
				return fmt.Errorf("point %d: coordinate %g out of range", i, value(i, axis))
			}
			le.PutUint32(record[axis*4:], uint32(int32(raw)))
		}
		for k := 0; k < 4; k++ {
			record[12+k] = uint8(clamp(value(i, 3+k), math.MaxUint8))
		}
		le.PutUint16(record[16:], uint16(clamp(value(i, 7), math.MaxUint16)))
		le.PutUint16(record[18:], uint16(clamp(value(i, 8), math.MaxUint16)))
		off, next := 20, 9
		if withTime {
			le.PutUint32(record[off:], uint32(clamp(value(i, next)*timeResolution, math.MaxUint32)))
			off += 4
			next++
		}
		if withColor {
			for k := 0; k < 4; k++ {
				record[off+k] = uint8(clamp(value(i, next+k), math.MaxUint8))
			}
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

func clamp(v, hi float64) uint64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return uint64(math.Min(hi, math.Round(v)))
}

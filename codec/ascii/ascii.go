// Package ascii implements the text format: one point per line, attribute
// values separated by single spaces in layout order.
//
// Integer attributes are written in decimal (64-bit integers straight from
// the record bytes) and floats in their shortest round-trip form, so a save
// followed by a load reproduces every value bit for bit. Blank lines and lines starting with '#' are skipped on load.
package ascii

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
)

// Codec reads and writes ASCII data files.
type Codec struct {
	fs fs.FileSystem
}

var _ codec.Codec = (*Codec)(nil)

// New returns an ASCII codec doing its I/O through fsys (fs.Default if nil).
func New(fsys fs.FileSystem) *Codec {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Codec{fs: fsys}
}

// Register binds the ASCII codec to format.Ascii in r.
func Register(r *codec.Registry, fsys fs.FileSystem) {
	r.Register(format.Ascii, func() codec.Codec { return New(fsys) })
}

// Load parses up to c.Len() points from dataPath. Missing trailing lines
// leave zeroed points.
func (a *Codec) Load(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.Ascii, "load", dataPath, a.load(c, dataPath))
}

// Save writes every point of c to dataPath.
func (a *Codec) Save(c *container.Container, _ sidecar.Descriptor, dataPath string) error {
	return codec.NewError(format.Ascii, "save", dataPath, a.save(c, dataPath))
}

func (a *Codec) load(c *container.Container, dataPath string) error {
	f, err := fs.Open(a.fs, dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	attrs := c.Attributes()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	point, line := 0, 0
	for point < c.Len() && sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != len(attrs) {
			return fmt.Errorf("line %d: got %d values, want %d", line, len(fields), len(attrs))
		}
		for j, text := range fields {
			if err := parseValue(c, point, j, attrs[j].Type, text); err != nil {
				return fmt.Errorf("line %d: attribute %s: %w", line, attrs[j].Name, err)
			}
		}
		point++
	}
	return sc.Err()
}

func (a *Codec) save(c *container.Container, dataPath string) error {
	f, err := fs.Create(a.fs, dataPath)
	if err != nil {
		return err
	}

	attrs := c.Attributes()
	w := bufio.NewWriter(f)
	buf := make([]byte, 0, 256)
	for i := 0; i < c.Len(); i++ {
		buf = buf[:0]
		for j, attr := range attrs {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = appendValue(buf, c, i, j, attr.Type)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
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

// 64-bit integers are copied through the raw record bytes, since a float64
// cannot hold every value above 2^53.
func appendValue(buf []byte, c *container.Container, i, j int, t container.Type) []byte {
	switch t {
	case container.Float32:
		return strconv.AppendFloat(buf, c.ValueAt(i, j), 'g', -1, 32)
	case container.Float64:
		return strconv.AppendFloat(buf, c.ValueAt(i, j), 'g', -1, 64)
	case container.Int64:
		return strconv.AppendInt(buf, int64(binary.LittleEndian.Uint64(field(c, i, j))), 10)
	case container.Uint64:
		return strconv.AppendUint(buf, binary.LittleEndian.Uint64(field(c, i, j)), 10)
	default:
		return strconv.AppendInt(buf, int64(c.ValueAt(i, j)), 10)
	}
}

func parseValue(c *container.Container, i, j int, t container.Type, s string) error {
	switch {
	case t.IsFloat():
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.SetValueAt(i, j, v)
	case t == container.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(field(c, i, j), uint64(n))
	case t == container.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(field(c, i, j), n)
	case t.IsSigned():
		n, err := strconv.ParseInt(s, 10, t.Size()*8)
		if err != nil {
			return err
		}
		c.SetValueAt(i, j, float64(n))
	default:
		n, err := strconv.ParseUint(s, 10, t.Size()*8)
		if err != nil {
			return err
		}
		c.SetValueAt(i, j, float64(n))
	}
	return nil
}

func field(c *container.Container, i, j int) []byte {
	return c.Record(i)[c.Offset(j):]
}

package sidecar

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
)

// ErrParse is returned when a sidecar document is structurally invalid.
var ErrParse = errors.New("sidecar: parse error")

type xmlDocument struct {
	XMLName    xml.Name      `xml:"LidarData"`
	Attributes xmlAttributes `xml:"Attributes"`
}

type xmlAttributes struct {
	DataFormat       string         `xml:"DataFormat,attr"`
	DataSize         string         `xml:"DataSize,attr"`
	DataFileName     string         `xml:"DataFileName,attr,omitempty"`
	Compression      string         `xml:"Compression,attr,omitempty"`
	Attribute        []xmlAttribute `xml:"Attribute"`
	CenteringTransfo *xmlTransfo    `xml:"CenteringTransfo"`
}

type xmlAttribute struct {
	Name     string   `xml:"Name,attr"`
	DataType string   `xml:"DataType,attr"`
	Min      *float64 `xml:"Min,attr,omitempty"`
	Max      *float64 `xml:"Max,attr,omitempty"`
}

type xmlTransfo struct {
	TX float64 `xml:"tx,attr"`
	TY float64 `xml:"ty,attr"`
}

// Read parses the sidecar stored at path. The returned descriptor's Path is
// path. The file is closed on every exit path.
func Read(fsys fs.FileSystem, path string) (Descriptor, error) {
	f, err := fs.Open(fsys, path)
	if err != nil {
		return Descriptor{}, err
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// Write stores d as the sidecar at path, atomically replacing any existing
// file. d.Path is not consulted.
func Write(fsys fs.FileSystem, path string, d Descriptor) error {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return err
	}
	return fs.WriteFileAtomic(fsys, path, buf.Bytes())
}

// Decode parses a sidecar document from r.
func Decode(r io.Reader) (Descriptor, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	a := doc.Attributes
	id, err := format.Parse(a.DataFormat)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	size, err := strconv.ParseUint(a.DataSize, 10, 63)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: invalid DataSize %q", ErrParse, a.DataSize)
	}

	compression, ok := ParseCompression(a.Compression)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: unknown compression %q", ErrParse, a.Compression)
	}

	d := Descriptor{
		Format:       id,
		PointCount:   int(size),
		DataFileName: a.DataFileName,
		Compression:  compression,
	}

	seen := make(map[string]struct{}, len(a.Attribute))
	for _, xa := range a.Attribute {
		if xa.Name == "" {
			return Descriptor{}, fmt.Errorf("%w: attribute without name", ErrParse)
		}
		if _, dup := seen[xa.Name]; dup {
			return Descriptor{}, fmt.Errorf("%w: duplicate attribute %q", ErrParse, xa.Name)
		}
		seen[xa.Name] = struct{}{}

		typ, err := container.ParseType(xa.DataType)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: attribute %q: %w", ErrParse, xa.Name, err)
		}
		attr := container.Attribute{Name: xa.Name, Type: typ}
		if xa.Min != nil && xa.Max != nil {
			attr.Bounds = &container.Bounds{Min: *xa.Min, Max: *xa.Max}
		}
		d.Attributes = append(d.Attributes, attr)
	}

	if t := a.CenteringTransfo; t != nil {
		d.Transform = &container.Transform{X: t.TX, Y: t.TY}
	}
	return d, nil
}

// Encode writes d as an indented XML document.
func Encode(w io.Writer, d Descriptor) error {
	token, err := d.Format.MarshalText()
	if err != nil {
		return err
	}
	if d.PointCount < 0 {
		return fmt.Errorf("sidecar: negative point count %d", d.PointCount)
	}

	doc := xmlDocument{
		Attributes: xmlAttributes{
			DataFormat:   string(token),
			DataSize:     strconv.Itoa(d.PointCount),
			DataFileName: d.DataFileName,
			Compression:  string(d.Compression),
		},
	}
	for _, a := range d.Attributes {
		typ, err := a.Type.MarshalText()
		if err != nil {
			return fmt.Errorf("sidecar: attribute %q: %w", a.Name, err)
		}
		xa := xmlAttribute{Name: a.Name, DataType: string(typ)}
		if a.Bounds != nil {
			lo, hi := a.Bounds.Min, a.Bounds.Max
			xa.Min, xa.Max = &lo, &hi
		}
		doc.Attributes.Attribute = append(doc.Attributes.Attribute, xa)
	}
	if d.Transform != nil {
		doc.Attributes.CenteringTransfo = &xmlTransfo{TX: d.Transform.X, TY: d.Transform.Y}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

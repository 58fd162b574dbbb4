package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/lidarformat/container"
)

// ErrInvalidHeader is returned for PLY headers this package cannot read.
var ErrInvalidHeader = errors.New("ply: invalid header")

const (
	bodyASCII        = "ascii"
	bodyLittleEndian = "binary_little_endian"
	bodyBigEndian    = "binary_big_endian"
)

var typesByName = map[string]container.Type{
	"char": container.Int8, "int8": container.Int8,
	"uchar": container.Uint8, "uint8": container.Uint8,
	"short": container.Int16, "int16": container.Int16,
	"ushort": container.Uint16, "uint16": container.Uint16,
	"int": container.Int32, "int32": container.Int32,
	"uint": container.Uint32, "uint32": container.Uint32,
	"float": container.Float32, "float32": container.Float32,
	"double": container.Float64, "float64": container.Float64,
}

var namesByType = map[container.Type]string{
	container.Int8:    "char",
	container.Uint8:   "uchar",
	container.Int16:   "short",
	container.Uint16:  "ushort",
	container.Int32:   "int",
	container.Uint32:  "uint",
	container.Float32: "float",
	container.Float64: "double",
}

type property struct {
	name string
	typ  container.Type
}

type header struct {
	body     string
	vertices int
	props    []property
}

func (h header) recordSize() int {
	size := 0
	for _, p := range h.props {
		size += p.typ.Size()
	}
	return size
}

// readHeader consumes the header of r up to and including "end_header".
func readHeader(r *bufio.Reader) (header, error) {
	var h header

	magic, err := readLine(r)
	if err != nil {
		return h, err
	}
	if magic != "ply" {
		return h, fmt.Errorf("%w: missing ply magic", ErrInvalidHeader)
	}

	elements := 0
	inVertex := false
	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return h, fmt.Errorf("%w: missing end_header", ErrInvalidHeader)
			}
			return h, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "end_header":
			if h.body == "" {
				return h, fmt.Errorf("%w: missing format line", ErrInvalidHeader)
			}
			if elements == 0 {
				return h, fmt.Errorf("%w: no vertex element", ErrInvalidHeader)
			}
			return h, nil
		case "comment", "obj_info":
		case "format":
			if len(fields) != 3 {
				return h, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
			}
			switch fields[1] {
			case bodyASCII, bodyLittleEndian, bodyBigEndian:
				h.body = fields[1]
			default:
				return h, fmt.Errorf("%w: unknown format %q", ErrInvalidHeader, fields[1])
			}
		case "element":
			if len(fields) != 3 {
				return h, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
			}
			elements++
			inVertex = false
			if elements == 1 {
				if fields[1] != "vertex" {
					return h, fmt.Errorf("%w: first element is %q, want vertex", ErrInvalidHeader, fields[1])
				}
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return h, fmt.Errorf("%w: vertex count %q", ErrInvalidHeader, fields[2])
				}
				h.vertices = n
				inVertex = true
			}
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) != 3 {
				return h, fmt.Errorf("%w: unsupported vertex property %q", ErrInvalidHeader, line)
			}
			typ, ok := typesByName[fields[1]]
			if !ok {
				return h, fmt.Errorf("%w: unknown property type %q", ErrInvalidHeader, fields[1])
			}
			h.props = append(h.props, property{name: fields[2], typ: typ})
		default:
			return h, fmt.Errorf("%w: unexpected keyword %q", ErrInvalidHeader, fields[0])
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeHeader(w io.Writer, vertices int, attrs []container.Attribute) error {
	var b strings.Builder
	b.WriteString("ply\n")
	b.WriteString("format " + bodyLittleEndian + " 1.0\n")
	b.WriteString("comment generated by lidarformat\n")
	fmt.Fprintf(&b, "element vertex %d\n", vertices)
	for _, a := range attrs {
		name, ok := namesByType[a.Type]
		if !ok {
			return fmt.Errorf("ply: attribute %s: type %s has no PLY equivalent", a.Name, a.Type)
		}
		if strings.ContainsAny(a.Name, " \t\r\n") || a.Name == "" {
			return fmt.Errorf("ply: attribute name %q is not a PLY identifier", a.Name)
		}
		fmt.Fprintf(&b, "property %s %s\n", name, a.Name)
	}
	b.WriteString("end_header\n")
	_, err := io.WriteString(w, b.String())
	return err
}

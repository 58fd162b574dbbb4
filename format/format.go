// Package format identifies the physical encodings a point-cloud data file
// can use and maps them to and from file-name extensions.
//
// Everything in this package is a pure lookup. Nothing touches the file
// system and nothing mutates shared state.
package format

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ID identifies the physical encoding of a data file.
type ID uint8

const (
	// Binary is the native interleaved little-endian record dump.
	Binary ID = iota
	// Ascii is one whitespace-separated text line per point.
	Ascii
	// PlyArchive is the Stanford PLY interchange format.
	PlyArchive
	// Las is the ASPRS LAS interchange format.
	Las
	// TerraBin is the TerraScan binary format.
	TerraBin
)

// SidecarExt is the extension of the schema sidecar document.
const SidecarExt = ".xml"

type entry struct {
	token string
	ext   string
}

var table = [...]entry{
	Binary:     {token: "binary", ext: ".bin"},
	Ascii:      {token: "ascii", ext: ".txt"},
	PlyArchive: {token: "plyarchi", ext: ".ply"},
	Las:        {token: "las", ext: ".las"},
	TerraBin:   {token: "terrabin", ext: ".terrabin"},
}

// extensions lists every recognized input extension, canonical ones included.
var extensions = map[string]ID{
	".bin":      Binary,
	".txt":      Ascii,
	".asc":      Ascii,
	".ply":      PlyArchive,
	".las":      Las,
	".terrabin": TerraBin,
}

// All returns every known format in declaration order.
func All() []ID {
	return []ID{Binary, Ascii, PlyArchive, Las, TerraBin}
}

// Valid reports whether id is one of the known formats.
func (id ID) Valid() bool {
	return int(id) < len(table)
}

// String returns the sidecar token of the format.
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("format(%d)", uint8(id))
	}
	return table[id].token
}

// Ext returns the canonical data-file extension of the format, including
// the leading dot. Unknown ids map to the Binary extension.
func (id ID) Ext() string {
	if !id.Valid() {
		return table[Binary].ext
	}
	return table[id].ext
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("unknown format id %d", uint8(id))
	}
	return []byte(table[id].token), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse returns the format for a sidecar token. Tokens are matched exactly.
func Parse(token string) (ID, error) {
	for i, e := range table {
		if e.token == token {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown data format %q", token)
}

// FromExt returns the format registered for ext (leading dot included,
// matched case-insensitively).
func FromExt(ext string) (ID, bool) {
	id, ok := extensions[strings.ToLower(ext)]
	return id, ok
}

// Infer picks the format of a save target from its extension alone.
//
// An explicit sidecar extension means Binary, and the returned data path
// has its extension rewritten to ".bin". Unrecognized extensions also yield
// Binary, but the data path is left untouched. Infer never fails.
func Infer(target string) (ID, string) {
	ext := filepath.Ext(target)
	if IsSidecar(target) {
		return Binary, ReplaceExt(target, Binary.Ext())
	}
	if id, ok := FromExt(ext); ok {
		return id, target
	}
	return Binary, target
}

// ReplaceExt replaces the extension of path with ext, appending ext when path
// has none.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// SidecarPath returns the sidecar location belonging to a data path.
func SidecarPath(path string) string {
	return ReplaceExt(path, SidecarExt)
}

// IsSidecar reports whether path names a sidecar document. The extension
// is matched case-insensitively, like FromExt and Infer.
func IsSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), SidecarExt)
}

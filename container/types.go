package container

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type is the primitive storage type of an attribute.
type Type uint8

const (
	Int8 Type = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var typeNames = [...]string{
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

var typeSizes = [...]int{
	Int8: 1, Uint8: 1,
	Int16: 2, Uint16: 2,
	Int32: 4, Uint32: 4,
	Int64: 8, Uint64: 8,
	Float32: 4, Float64: 8,
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return int(t) < len(typeNames) }

// Size returns the encoded size of t in bytes.
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeSizes[t]
}

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool { return t == Float32 || t == Float64 }

// IsSigned reports whether t is a signed integer type.
func (t Type) IsSigned() bool { return t == Int8 || t == Int16 || t == Int32 || t == Int64 }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeNames[t]
}

// ParseType returns the type named by token.
func ParseType(token string) (Type, error) {
	for i, name := range typeNames {
		if name == token {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", token)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown data type %d", uint8(t))
	}
	return []byte(typeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Decode reads a value of type t from the start of b.
func Decode(t Type, b []byte) float64 {
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case Uint8:
		return float64(b[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case Uint64:
		return float64(binary.LittleEndian.Uint64(b))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}

// Encode writes v as type t to the start of b. Integer types round to the
// nearest value and saturate at the bounds of the type.
func Encode(t Type, b []byte, v float64) {
	switch t {
	case Int8:
		b[0] = byte(int8(clamp(v, math.MinInt8, math.MaxInt8)))
	case Uint8:
		b[0] = uint8(clamp(v, 0, math.MaxUint8))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(clamp(v, math.MinInt16, math.MaxInt16))))
	case Uint16:
		binary.LittleEndian.PutUint16(b, uint16(clamp(v, 0, math.MaxUint16)))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(clamp(v, math.MinInt32, math.MaxInt32))))
	case Uint32:
		binary.LittleEndian.PutUint32(b, uint32(clamp(v, 0, math.MaxUint32)))
	case Int64:
		binary.LittleEndian.PutUint64(b, uint64(int64(clamp(v, math.MinInt64, math.MaxInt64))))
	case Uint64:
		binary.LittleEndian.PutUint64(b, uint64(clamp(v, 0, math.MaxUint64)))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v >= hi {
		// 2^63 and 2^64 are the float64 images of MaxInt64 and MaxUint64
		// and overflow the integer conversion.
		if hi >= 1<<63 {
			return math.Nextafter(hi, 0)
		}
		return hi
	}
	return v
}

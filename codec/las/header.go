package las

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/lidarformat/container"
)

var (
	// ErrInvalidHeader is returned when a file does not start with a LAS
	// 1.x public header block.
	ErrInvalidHeader = errors.New("las: invalid header")

	// ErrPointFormat is returned for point data formats other than 0 to 3.
	ErrPointFormat = errors.New("las: unsupported point data format")
)

const (
	signature  = "LASF"
	headerSize = 227
	software   = "lidarformat"
)

// publicHeader is the LAS 1.2 public header block. Field order and sizes
// match the on-disk layout, so it is read and written with encoding/binary.
type publicHeader struct {
	FileSignature        [4]byte
	FileSourceID         uint16
	GlobalEncoding       uint16
	ProjectID1           uint32
	ProjectID2           uint16
	ProjectID3           uint16
	ProjectID4           [8]byte
	VersionMajor         uint8
	VersionMinor         uint8
	SystemID             [32]byte
	GeneratingSoftware   [32]byte
	FileCreationDay      uint16
	FileCreationYear     uint16
	HeaderSize           uint16
	OffsetToPoints       uint32
	NumberOfVLRs         uint32
	PointFormatID        uint8
	PointRecordLength    uint16
	NumberPoints         uint32
	NumberPointsByReturn [5]uint32
	XScaleFactor         float64
	YScaleFactor         float64
	ZScaleFactor         float64
	XOffset              float64
	YOffset              float64
	ZOffset              float64
	MaxX                 float64
	MinX                 float64
	MaxY                 float64
	MinY                 float64
	MaxZ                 float64
	MinZ                 float64
}

func readHeader(r io.Reader) (publicHeader, error) {
	var h publicHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h, fmt.Errorf("%w: truncated header", ErrInvalidHeader)
		}
		return h, err
	}
	if string(h.FileSignature[:]) != signature {
		return h, fmt.Errorf("%w: bad signature %q", ErrInvalidHeader, h.FileSignature[:])
	}
	if h.VersionMajor != 1 {
		return h, fmt.Errorf("%w: version %d.%d", ErrInvalidHeader, h.VersionMajor, h.VersionMinor)
	}
	if h.HeaderSize < headerSize || h.OffsetToPoints < uint32(h.HeaderSize) {
		return h, fmt.Errorf("%w: header size %d, point offset %d", ErrInvalidHeader, h.HeaderSize, h.OffsetToPoints)
	}
	pf, err := lookupFormat(h.PointFormatID)
	if err != nil {
		return h, err
	}
	if int(h.PointRecordLength) < pf.recordLength {
		return h, fmt.Errorf("%w: record length %d below %d for point format %d",
			ErrInvalidHeader, h.PointRecordLength, pf.recordLength, h.PointFormatID)
	}
	return h, nil
}

func writeHeader(w io.Writer, h publicHeader) error {
	var buf bytes.Buffer
	buf.Grow(headerSize)
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Point record fields. Names double as container attribute names.
const (
	fieldX                 = "x"
	fieldY                 = "y"
	fieldZ                 = "z"
	fieldIntensity         = "intensity"
	fieldReturnNumber      = "return_number"
	fieldNumberOfReturns   = "number_of_returns"
	fieldScanDirectionFlag = "scan_direction_flag"
	fieldEdgeOfFlightLine  = "edge_of_flight_line"
	fieldClassification    = "classification"
	fieldScanAngleRank     = "scan_angle_rank"
	fieldUserData          = "user_data"
	fieldPointSourceID     = "point_source_id"
	fieldGPSTime           = "gps_time"
	fieldRed               = "red"
	fieldGreen             = "green"
	fieldBlue              = "blue"
)

type pointFormat struct {
	id           uint8
	recordLength int
	gpsTime      bool
	rgb          bool
}

var pointFormats = [...]pointFormat{
	{id: 0, recordLength: 20},
	{id: 1, recordLength: 28, gpsTime: true},
	{id: 2, recordLength: 26, rgb: true},
	{id: 3, recordLength: 34, gpsTime: true, rgb: true},
}

func lookupFormat(id uint8) (pointFormat, error) {
	if int(id) >= len(pointFormats) {
		return pointFormat{}, fmt.Errorf("%w: %d", ErrPointFormat, id)
	}
	return pointFormats[id], nil
}

// selectFormat picks the smallest point format that holds every LAS field
// present in attrs.
func selectFormat(attrs []container.Attribute) pointFormat {
	var gps, rgb bool
	for _, a := range attrs {
		switch a.Name {
		case fieldGPSTime:
			gps = true
		case fieldRed, fieldGreen, fieldBlue:
			rgb = true
		}
	}
	switch {
	case gps && rgb:
		return pointFormats[3]
	case rgb:
		return pointFormats[2]
	case gps:
		return pointFormats[1]
	default:
		return pointFormats[0]
	}
}

// attributes lists the container attributes of the point format in record
// order.
func (pf pointFormat) attributes() []container.Attribute {
	attrs := []container.Attribute{
		{Name: fieldX, Type: container.Float64},
		{Name: fieldY, Type: container.Float64},
		{Name: fieldZ, Type: container.Float64},
		{Name: fieldIntensity, Type: container.Uint16},
		{Name: fieldReturnNumber, Type: container.Uint8},
		{Name: fieldNumberOfReturns, Type: container.Uint8},
		{Name: fieldScanDirectionFlag, Type: container.Uint8},
		{Name: fieldEdgeOfFlightLine, Type: container.Uint8},
		{Name: fieldClassification, Type: container.Uint8},
		{Name: fieldScanAngleRank, Type: container.Int8},
		{Name: fieldUserData, Type: container.Uint8},
		{Name: fieldPointSourceID, Type: container.Uint16},
	}
	if pf.gpsTime {
		attrs = append(attrs, container.Attribute{Name: fieldGPSTime, Type: container.Float64})
	}
	if pf.rgb {
		attrs = append(attrs,
			container.Attribute{Name: fieldRed, Type: container.Uint16},
			container.Attribute{Name: fieldGreen, Type: container.Uint16},
			container.Attribute{Name: fieldBlue, Type: container.Uint16},
		)
	}
	return attrs
}

// point is one decoded point record with coordinates already scaled.
type point struct {
	x, y, z           float64
	intensity         uint16
	returnNumber      uint8
	numberOfReturns   uint8
	scanDirectionFlag uint8
	edgeOfFlightLine  uint8
	classification    uint8
	scanAngleRank     int8
	userData          uint8
	pointSourceID     uint16
	gpsTime           float64
	red, green, blue  uint16
}

func (p *point) field(name string) (float64, bool) {
	switch name {
	case fieldX:
		return p.x, true
	case fieldY:
		return p.y, true
	case fieldZ:
		return p.z, true
	case fieldIntensity:
		return float64(p.intensity), true
	case fieldReturnNumber:
		return float64(p.returnNumber), true
	case fieldNumberOfReturns:
		return float64(p.numberOfReturns), true
	case fieldScanDirectionFlag:
		return float64(p.scanDirectionFlag), true
	case fieldEdgeOfFlightLine:
		return float64(p.edgeOfFlightLine), true
	case fieldClassification:
		return float64(p.classification), true
	case fieldScanAngleRank:
		return float64(p.scanAngleRank), true
	case fieldUserData:
		return float64(p.userData), true
	case fieldPointSourceID:
		return float64(p.pointSourceID), true
	case fieldGPSTime:
		return p.gpsTime, true
	case fieldRed:
		return float64(p.red), true
	case fieldGreen:
		return float64(p.green), true
	case fieldBlue:
		return float64(p.blue), true
	default:
		return 0, false
	}
}

func (p *point) setField(name string, v float64) {
	switch name {
	case fieldX:
		p.x = v
	case fieldY:
		p.y = v
	case fieldZ:
		p.z = v
	case fieldIntensity:
		p.intensity = uint16(clampInt(v, 0, 1<<16-1))
	case fieldReturnNumber:
		p.returnNumber = uint8(clampInt(v, 0, 7))
	case fieldNumberOfReturns:
		p.numberOfReturns = uint8(clampInt(v, 0, 7))
	case fieldScanDirectionFlag:
		p.scanDirectionFlag = uint8(clampInt(v, 0, 1))
	case fieldEdgeOfFlightLine:
		p.edgeOfFlightLine = uint8(clampInt(v, 0, 1))
	case fieldClassification:
		p.classification = uint8(clampInt(v, 0, 255))
	case fieldScanAngleRank:
		p.scanAngleRank = int8(clampInt(v, -128, 127))
	case fieldUserData:
		p.userData = uint8(clampInt(v, 0, 255))
	case fieldPointSourceID:
		p.pointSourceID = uint16(clampInt(v, 0, 1<<16-1))
	case fieldGPSTime:
		p.gpsTime = v
	case fieldRed:
		p.red = uint16(clampInt(v, 0, 1<<16-1))
	case fieldGreen:
		p.green = uint16(clampInt(v, 0, 1<<16-1))
	case fieldBlue:
		p.blue = uint16(clampInt(v, 0, 1<<16-1))
	}
}

func clampInt(v, lo, hi float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	return int64(math.Max(lo, math.Min(hi, math.Round(v))))
}

type scaling struct {
	scale  [3]float64
	offset [3]float64
}

func (s scaling) decode(axis int, raw int32) float64 {
	return float64(raw)*s.scale[axis] + s.offset[axis]
}

func (s scaling) encode(axis int, v float64) (int32, error) {
	raw := math.Round((v - s.offset[axis]) / s.scale[axis])
	if math.IsNaN(raw) || raw < math.MinInt32 || raw > math.MaxInt32 {
		return 0, fmt.Errorf("las: coordinate %g does not fit scale %g offset %g",
			v, s.scale[axis], s.offset[axis])
	}
	return int32(raw), nil
}

func decodePoint(b []byte, pf pointFormat, s scaling, p *point) {
	le := binary.LittleEndian
	p.x = s.decode(0, int32(le.Uint32(b[0:])))
	p.y = s.decode(1, int32(le.Uint32(b[4:])))
	p.z = s.decode(2, int32(le.Uint32(b[8:])))
	p.intensity = le.Uint16(b[12:])
	flags := b[14]
	p.returnNumber = flags & 0x07
	p.numberOfReturns = (flags >> 3) & 0x07
	p.scanDirectionFlag = (flags >> 6) & 0x01
	p.edgeOfFlightLine = (flags >> 7) & 0x01
	p.classification = b[15]
	p.scanAngleRank = int8(b[16])
	p.userData = b[17]
	p.pointSourceID = le.Uint16(b[18:])

	off := 20
	if pf.gpsTime {
		p.gpsTime = math.Float64frombits(le.Uint64(b[off:]))
		off += 8
	}
	if pf.rgb {
		p.red = le.Uint16(b[off:])
		p.green = le.Uint16(b[off+2:])
		p.blue = le.Uint16(b[off+4:])
	}
}

func encodePoint(b []byte, pf pointFormat, s scaling, p *point) error {
	le := binary.LittleEndian
	for axis, v := range [3]float64{p.x, p.y, p.z} {
		raw, err := s.encode(axis, v)
		if err != nil {
			return err
		}
		le.PutUint32(b[axis*4:], uint32(raw))
	}
	le.PutUint16(b[12:], p.intensity)
	b[14] = p.returnNumber&0x07 | (p.numberOfReturns&0x07)<<3 |
		(p.scanDirectionFlag&0x01)<<6 | (p.edgeOfFlightLine&0x01)<<7
	b[15] = p.classification
	b[16] = byte(p.scanAngleRank)
	b[17] = p.userData
	le.PutUint16(b[18:], p.pointSourceID)

	off := 20
	if pf.gpsTime {
		le.PutUint64(b[off:], math.Float64bits(p.gpsTime))
		off += 8
	}
	if pf.rgb {
		le.PutUint16(b[off:], p.red)
		le.PutUint16(b[off+2:], p.green)
		le.PutUint16(b[off+4:], p.blue)
	}
	return nil
}

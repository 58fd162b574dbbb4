package ply

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
	"github.com/hupe1980/lidarformat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plyTypes() []container.Attribute {
	var attrs []container.Attribute
	for _, a := range testutil.AllTypes() {
		if a.Type == container.Int64 || a.Type == container.Uint64 {
			continue
		}
		attrs = append(attrs, a)
	}
	return attrs
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRoundTrip(t *testing.T) {
	src := testutil.NewRNG(7).Cloud(300, plyTypes()...)
	d := sidecar.New(src, format.PlyArchive, "", container.Transform{})
	path := filepath.Join(t.TempDir(), "cloud.ply")

	p := New(nil)
	require.NoError(t, p.Save(src, d, path))

	got, err := container.New(src.Attributes()...)
	require.NoError(t, err)
	got.Resize(src.Len())
	require.NoError(t, p.Load(got, d, path))
	assert.Equal(t, src.Bytes(), got.Bytes())
}

func TestSave_Header(t *testing.T) {
	src, err := container.New(testutil.XYZ()...)
	require.NoError(t, err)
	require.NoError(t, src.Append(1, 2, 3))
	path := filepath.Join(t.TempDir(), "one.ply")
	require.NoError(t, New(nil).Save(src, sidecar.Descriptor{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "ply\nformat binary_little_endian 1.0\ncomment generated by lidarformat\n" +
		"element vertex 1\nproperty double x\nproperty double y\nproperty double z\nend_header\n"
	require.True(t, strings.HasPrefix(string(data), want))
	assert.Len(t, data, len(want)+24)
}

func TestSave_UnsupportedType(t *testing.T) {
	src, err := container.New(container.Attribute{Name: "id", Type: container.Uint64})
	require.NoError(t, err)
	err = New(nil).Save(src, sidecar.Descriptor{}, filepath.Join(t.TempDir(), "bad.ply"))

	var ce *codec.CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, format.PlyArchive, ce.Format)
	assert.Equal(t, "save", ce.Op)
}

func TestDescribe(t *testing.T) {
	path := writeFile(t, "scan.ply", []byte("ply\n"+
		"format ascii 1.0\n"+
		"comment scanner export\n"+
		"element vertex 2\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"property uchar intensity\n"+
		"element face 0\n"+
		"property list uchar int vertex_indices\n"+
		"end_header\n"+
		"1 2 3 10\n"+
		"4 5 6 20\n"))

	d, err := New(nil).Describe(path)
	require.NoError(t, err)
	assert.Equal(t, format.PlyArchive, d.Format)
	assert.Equal(t, 2, d.PointCount)
	assert.Equal(t, []container.Attribute{
		{Name: "x", Type: container.Float32},
		{Name: "y", Type: container.Float32},
		{Name: "z", Type: container.Float32},
		{Name: "intensity", Type: container.Uint8},
	}, d.Attributes)
}

func TestLoad_ASCII(t *testing.T) {
	path := writeFile(t, "scan.ply", []byte("ply\r\n"+
		"format ascii 1.0\r\n"+
		"element vertex 3\r\n"+
		"property double x\r\n"+
		"property double y\r\n"+
		"property uchar label\r\n"+
		"end_header\r\n"+
		"1.5 -2 7\r\n"+
		"\r\n"+
		"3 4 8\r\n"+
		"5 6 9\r\n"))

	c, err := container.New(
		container.Attribute{Name: "x", Type: container.Float64},
		container.Attribute{Name: "label", Type: container.Uint8},
		container.Attribute{Name: "extra", Type: container.Int16},
	)
	require.NoError(t, err)
	c.Resize(3)
	require.NoError(t, New(nil).Load(c, sidecar.Descriptor{}, path))

	assert.Equal(t, []float64{1.5, 3, 5}, testutil.Column(c, "x"))
	assert.Equal(t, []float64{7, 8, 9}, testutil.Column(c, "label"))
	assert.Equal(t, []float64{0, 0, 0}, testutil.Column(c, "extra"))
}

func TestLoad_BigEndian(t *testing.T) {
	var body []byte
	body = binary.BigEndian.AppendUint32(body, math.Float32bits(1.25))
	body = binary.BigEndian.AppendUint16(body, 513)
	body = binary.BigEndian.AppendUint32(body, math.Float32bits(-3))
	body = binary.BigEndian.AppendUint16(body, 7)
	path := writeFile(t, "be.ply", append([]byte("ply\n"+
		"format binary_big_endian 1.0\n"+
		"element vertex 2\n"+
		"property float x\n"+
		"property ushort intensity\n"+
		"end_header\n"), body...))

	c, err := container.New(
		container.Attribute{Name: "x", Type: container.Float32},
		container.Attribute{Name: "intensity", Type: container.Uint16},
	)
	require.NoError(t, err)
	c.Resize(2)
	require.NoError(t, New(nil).Load(c, sidecar.Descriptor{}, path))

	assert.Equal(t, []float64{1.25, -3}, testutil.Column(c, "x"))
	assert.Equal(t, []float64{513, 7}, testutil.Column(c, "intensity"))
}

func TestLoad_ShortBodyUnderReadsSilently(t *testing.T) {
	src, err := container.New(testutil.XYZ()...)
	require.NoError(t, err)
	require.NoError(t, src.Append(1, 2, 3))
	require.NoError(t, src.Append(4, 5, 6))
	path := filepath.Join(t.TempDir(), "short.ply")
	require.NoError(t, New(nil).Save(src, sidecar.Descriptor{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-10], 0o644))

	got, err := container.New(testutil.XYZ()...)
	require.NoError(t, err)
	got.Resize(2)
	require.NoError(t, New(nil).Load(got, sidecar.Descriptor{}, path))
	assert.Equal(t, []float64{1, 0}, testutil.Column(got, "x"))
}

func TestReadHeader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no magic", "plx\nformat ascii 1.0\nend_header\n"},
		{"no format", "ply\nelement vertex 1\nproperty float x\nend_header\n"},
		{"unknown body", "ply\nformat binary_middle_endian 1.0\nelement vertex 1\nend_header\n"},
		{"face first", "ply\nformat ascii 1.0\nelement face 1\nend_header\n"},
		{"bad count", "ply\nformat ascii 1.0\nelement vertex -1\nend_header\n"},
		{"list in vertex", "ply\nformat ascii 1.0\nelement vertex 1\nproperty list uchar int idx\nend_header\n"},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"},
		{"unknown keyword", "ply\nformat ascii 1.0\nelement vertex 1\nbogus\nend_header\n"},
		{"no elements", "ply\nformat ascii 1.0\nend_header\n"},
		{"truncated", "ply\nformat ascii 1.0\nelement vertex 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readHeader(bufio.NewReader(strings.NewReader(tt.header)))
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestDescribe_MissingFile(t *testing.T) {
	_, err := New(nil).Describe(filepath.Join(t.TempDir(), "nope.ply"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegister(t *testing.T) {
	r := codec.NewRegistry()
	Register(r, fs.Default)

	c, err := r.Lookup(format.PlyArchive)
	require.NoError(t, err)
	assert.IsType(t, &Codec{}, c)

	_, ok := r.Describer(format.PlyArchive)
	assert.True(t, ok)
}

package lidarformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/lidarformat/codec"
	"github.com/hupe1980/lidarformat/codec/bin"
	"github.com/hupe1980/lidarformat/codec/builtin"
	"github.com/hupe1980/lidarformat/codec/las"
	"github.com/hupe1980/lidarformat/codec/ply"
	"github.com/hupe1980/lidarformat/container"
	"github.com/hupe1980/lidarformat/format"
	"github.com/hupe1980/lidarformat/internal/fs"
	"github.com/hupe1980/lidarformat/sidecar"
	"github.com/hupe1980/lidarformat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(opts ...Option) *Store {
	return New(append([]Option{WithLogger(nil)}, opts...)...)
}

func sampleCloud(n int) *container.Container {
	attrs := append(testutil.XYZ(), container.Attribute{Name: "intensity", Type: container.Uint16})
	return testutil.NewRNG(42).Cloud(n, attrs...)
}

func writePLY(t *testing.T, path string, c *container.Container) {
	t.Helper()
	require.NoError(t, ply.New(nil).Save(c, sidecar.Descriptor{}, path))
}

func TestOpen_Sidecar(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	src := sampleCloud(20)
	require.NoError(t, s.Save(src, filepath.Join(dir, "cloud.bin")))

	f := s.Open(filepath.Join(dir, "cloud.xml"))
	require.True(t, f.Valid())
	require.NoError(t, f.Err())

	id, err := f.Format()
	require.NoError(t, err)
	assert.Equal(t, format.Binary, id)

	n, err := f.NumPoints()
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	sidecarPath, err := f.SidecarPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cloud.xml"), sidecarPath)

	dataPath, err := f.DataPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cloud.bin"), dataPath)

	d, err := f.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, src.Attributes(), d.Attributes)
}

func TestOpen_UpperCaseSidecarExtension(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	require.NoError(t, s.Save(sampleCloud(5), filepath.Join(dir, "cloud.bin")))
	require.NoError(t, os.Rename(filepath.Join(dir, "cloud.xml"), filepath.Join(dir, "CLOUD.XML")))

	f := s.Open(filepath.Join(dir, "CLOUD.XML"))
	require.True(t, f.Valid(), "%v", f.Err())

	sidecarPath, err := f.SidecarPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "CLOUD.XML"), sidecarPath)

	dataPath, err := f.DataPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cloud.bin"), dataPath)
}

func TestOpen_DataFileUsesExistingSidecar(t *testing.T) {
	dir := t.TempDir()
	metrics := &BasicMetricsCollector{}
	s := newStore(WithMetricsCollector(metrics))
	require.NoError(t, s.Save(sampleCloud(5), filepath.Join(dir, "cloud.bin")))

	f := s.Open(filepath.Join(dir, "cloud.bin"))
	require.True(t, f.Valid())
	sidecarPath, err := f.SidecarPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cloud.xml"), sidecarPath)
	assert.Zero(t, metrics.GetStats().SynthesisCount)
}

func TestOpen_Invalid(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "broken.xml")
	require.NoError(t, os.WriteFile(malformed, []byte("<LidarData><Attributes"), 0o644))
	orphan := filepath.Join(dir, "orphan.bin")
	require.NoError(t, os.WriteFile(orphan, make([]byte, 24), 0o644))

	tests := []struct {
		name  string
		path  string
		cause error
	}{
		{"missing sidecar", filepath.Join(dir, "missing.xml"), os.ErrNotExist},
		{"malformed sidecar", malformed, ErrParse},
		{"binary without sidecar", orphan, ErrSynthesisFailed},
		{"missing ply", filepath.Join(dir, "missing.ply"), ErrSynthesisFailed},
		{"unknown extension", filepath.Join(dir, "cloud.foo"), ErrSynthesisFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStore().Open(tt.path)
			assert.False(t, f.Valid())
			assert.ErrorIs(t, f.Err(), ErrInvalidDescriptor)
			assert.ErrorIs(t, f.Err(), tt.cause)

			_, err := f.Format()
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			_, err = f.NumPoints()
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			_, err = f.DataPath()
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			_, err = f.SidecarPath()
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			_, err = f.Descriptor()
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			_, err = f.MetaData()
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			assert.Equal(t, container.Transform{}, f.Transform())

			c := sampleCloud(3)
			assert.ErrorIs(t, f.Load(c), ErrInvalidDescriptor)
			assert.Equal(t, 3, c.Len())
			assert.ErrorIs(t, f.SaveInPlace(c), ErrInvalidDescriptor)
		})
	}
}

func TestOpen_SynthesizesPLYSidecar(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "cloud.ply")
	src := sampleCloud(40)
	writePLY(t, raw, src)

	metrics := &BasicMetricsCollector{}
	s := newStore(WithMetricsCollector(metrics))
	f := s.Open(raw)
	require.True(t, f.Valid(), "%v", f.Err())
	assert.FileExists(t, filepath.Join(dir, "cloud.xml"))

	d, err := f.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, format.PlyArchive, d.Format)
	assert.Equal(t, 40, d.PointCount)
	assert.Equal(t, "cloud.ply", d.DataFileName)

	dataPath, err := f.DataPath()
	require.NoError(t, err)
	assert.Equal(t, raw, dataPath)

	c, err := container.New()
	require.NoError(t, err)
	require.NoError(t, f.Load(c))
	assert.Equal(t, 40, c.Len())
	assert.Equal(t, src.Bytes(), c.Bytes())

	// A second open picks up the generated sidecar.
	require.True(t, s.Open(raw).Valid())
	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SynthesisCount)
	assert.Zero(t, stats.SynthesisErrors)
}

func TestOpen_SynthesizesLASSidecar(t *testing.T) {
	if !builtin.LASEnabled {
		t.Skip("built with nolas")
	}
	dir := t.TempDir()
	raw := filepath.Join(dir, "scan.las")
	src, err := container.New(testutil.XYZ()...)
	require.NoError(t, err)
	require.NoError(t, src.Append(10, 20, 30))
	require.NoError(t, src.Append(11, 21, 31))
	require.NoError(t, las.New(nil).Save(src, sidecar.Descriptor{}, raw))

	f := newStore().Open(raw)
	require.True(t, f.Valid(), "%v", f.Err())
	id, err := f.Format()
	require.NoError(t, err)
	assert.Equal(t, format.Las, id)

	c, err := container.New()
	require.NoError(t, err)
	require.NoError(t, f.Load(c))
	assert.Equal(t, []float64{10, 11}, testutil.Column(c, "x"))
	assert.Equal(t, []float64{30, 31}, testutil.Column(c, "z"))

	x, ok := c.Attribute("x")
	require.True(t, ok)
	assert.Equal(t, &container.Bounds{Min: 10, Max: 11}, x.Bounds)
}

func TestOpen_SynthesisFailsOnReadOnlyLocation(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "cloud.ply")
	writePLY(t, raw, sampleCloud(4))

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("cloud.xml", fs.Fault{FailOnCreate: true})
	metrics := &BasicMetricsCollector{}

	f := newStore(WithFileSystem(faulty), WithMetricsCollector(metrics)).Open(raw)
	assert.False(t, f.Valid())
	assert.ErrorIs(t, f.Err(), ErrSynthesisFailed)
	assert.ErrorIs(t, f.Err(), fs.ErrInjected)
	assert.NoFileExists(t, filepath.Join(dir, "cloud.xml"))
	assert.Equal(t, int64(1), metrics.GetStats().SynthesisErrors)
}

func TestOpen_SynthesisFallbackDir(t *testing.T) {
	dir := t.TempDir()
	fallback := t.TempDir()
	raw := filepath.Join(dir, "cloud.ply")
	src := sampleCloud(4)
	writePLY(t, raw, src)

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(filepath.Join(dir, "cloud.xml"), fs.Fault{FailOnCreate: true})
	metrics := &BasicMetricsCollector{}
	s := newStore(WithFileSystem(faulty), WithSynthesisFallbackDir(fallback), WithMetricsCollector(metrics))

	f := s.Open(raw)
	require.True(t, f.Valid(), "%v", f.Err())
	sidecarPath, err := f.SidecarPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fallback, "cloud.xml"), sidecarPath)

	d, err := f.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, raw, d.DataFileName)

	c, err := container.New()
	require.NoError(t, err)
	require.NoError(t, f.Load(c))
	assert.Equal(t, src.Bytes(), c.Bytes())

	require.True(t, s.Open(raw).Valid())
	assert.Equal(t, int64(1), metrics.GetStats().SynthesisCount)
}

func TestDataPathResolution(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.bin")

	tests := []struct {
		name     string
		dataFile string
		want     string
	}{
		{"absolute", abs, abs},
		{"relative", "sub/data.bin", filepath.Join(dir, "sub", "data.bin")},
		{"absent", "", filepath.Join(dir, "cloud.bin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sidecar.Descriptor{Format: format.Binary, PointCount: 1, DataFileName: tt.dataFile}
			path := filepath.Join(dir, "cloud.xml")
			require.NoError(t, sidecar.Write(fs.Default, path, d))

			got, err := newStore().Open(path).DataPath()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_ReplacesContainerLayout(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	src := sampleCloud(10)
	src.SetTransform(container.Transform{X: 650000, Y: 6860000})
	require.NoError(t, s.Save(src, filepath.Join(dir, "cloud.bin")))

	c := testutil.NewRNG(1).Cloud(99, testutil.AllTypes()...)
	f := s.Open(filepath.Join(dir, "cloud.xml"))
	require.NoError(t, f.Load(c))

	assert.Equal(t, src.Attributes(), c.Attributes())
	assert.Equal(t, 10, c.Len())
	assert.Equal(t, src.Bytes(), c.Bytes())
	assert.Equal(t, container.Transform{X: 650000, Y: 6860000}, c.Transform())
	assert.Equal(t, container.Transform{X: 650000, Y: 6860000}, f.Transform())
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, newStore().Save(sampleCloud(3), filepath.Join(dir, "cloud.txt")))

	r := codec.NewRegistry()
	bin.Register(r, nil)
	f := newStore(WithRegistry(r)).Open(filepath.Join(dir, "cloud.xml"))
	require.True(t, f.Valid())

	c, err := container.New()
	require.NoError(t, err)
	assert.ErrorIs(t, f.Load(c), ErrUnsupportedFormat)
}

func TestLoad_CodecErrorIsTyped(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	require.NoError(t, s.Save(sampleCloud(3), filepath.Join(dir, "cloud.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cloud.txt"), []byte("1 2\n"), 0o644))

	c, err := container.New()
	require.NoError(t, err)
	err = s.Open(filepath.Join(dir, "cloud.xml")).Load(c)

	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, format.Ascii, ce.Format)
	assert.Equal(t, "load", ce.Op)
	assert.Equal(t, filepath.Join(dir, "cloud.txt"), ce.Path)
}

// The declared point count is not checked against the data file: a short
// file loads without error and leaves zeroed trailing points.
func TestLoad_ShortDataFileIsNotDetected(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	src := sampleCloud(10)
	require.NoError(t, s.Save(src, filepath.Join(dir, "cloud.bin")))
	require.NoError(t, os.Truncate(filepath.Join(dir, "cloud.bin"), int64(5*src.RecordSize())))

	c, err := container.New()
	require.NoError(t, err)
	require.NoError(t, s.Open(filepath.Join(dir, "cloud.xml")).Load(c))
	assert.Equal(t, 10, c.Len())
	assert.Equal(t, src.Bytes()[:5*src.RecordSize()], c.Bytes()[:5*src.RecordSize()])
	assert.Equal(t, make([]byte, 5*src.RecordSize()), c.Bytes()[5*src.RecordSize():])
}

func TestLoad_OversizedPointCount(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cloud.bin"), make([]byte, 8), 0o644))
	s := newStore()

	for _, size := range []string{"1152921504606846977", "4611686018427387904", "9223372036854775807"} {
		doc := `<LidarData><Attributes DataFormat="binary" DataSize="` + size + `" DataFileName="cloud.bin">` +
			`<Attribute Name="x" DataType="float64"/></Attributes></LidarData>`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cloud.xml"), []byte(doc), 0o644))

		f := s.Open(filepath.Join(dir, "cloud.xml"))
		require.True(t, f.Valid(), size)

		c, err := container.New()
		require.NoError(t, err)
		err = f.Load(c)
		require.ErrorIs(t, err, container.ErrTooLarge, size)
		assert.Equal(t, 0, c.Len(), size)
		assert.Empty(t, c.Bytes(), size)
	}
}

func TestMetaData(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	require.NoError(t, s.Save(sampleCloud(7), filepath.Join(dir, "cloud.txt")))

	got, err := s.Open(filepath.Join(dir, "cloud.xml")).MetaData()
	require.NoError(t, err)
	want := "Nb of points : 7\nFormat : ascii\nBinary filename : " + filepath.Join(dir, "cloud.txt") + "\n"
	assert.Equal(t, want, got)
}

func TestReadContainer(t *testing.T) {
	dir := t.TempDir()
	s := newStore()
	src := sampleCloud(12)
	require.NoError(t, s.Save(src, filepath.Join(dir, "cloud.ply")))

	c, err := s.ReadContainer(filepath.Join(dir, "cloud.ply"))
	require.NoError(t, err)
	assert.Equal(t, src.Bytes(), c.Bytes())

	_, err = s.ReadContainer(filepath.Join(dir, "missing.xml"))
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

package lidarformat

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/lidarformat/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordLoad(format.Binary, 100, 2*time.Millisecond, nil)
	m.RecordLoad(format.Binary, 50, 4*time.Millisecond, errors.New("fail"))
	m.RecordSave(format.Ascii, 10, time.Millisecond, nil)
	m.RecordSynthesis(time.Millisecond, nil)
	m.RecordSynthesis(time.Millisecond, errors.New("fail"))

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.LoadCount)
	assert.Equal(t, int64(1), stats.LoadErrors)
	assert.Equal(t, int64(100), stats.LoadPoints)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.LoadAvgNanos)
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Equal(t, int64(10), stats.SavePoints)
	assert.Equal(t, int64(2), stats.SynthesisCount)
	assert.Equal(t, int64(1), stats.SynthesisErrors)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	stats := (&BasicMetricsCollector{}).GetStats()
	assert.Zero(t, stats.LoadAvgNanos)
	assert.Zero(t, stats.SaveAvgNanos)
}

func TestStore_RecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	m := &BasicMetricsCollector{}
	s := newStore(WithMetricsCollector(m))

	require.NoError(t, s.Save(sampleCloud(30), filepath.Join(dir, "cloud.bin")))
	_, err := s.ReadContainer(filepath.Join(dir, "cloud.xml"))
	require.NoError(t, err)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Equal(t, int64(30), stats.SavePoints)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(30), stats.LoadPoints)
}

var _ MetricsCollector = NoopMetricsCollector{}

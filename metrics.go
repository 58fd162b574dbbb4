package lidarformat

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/lidarformat/format"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promcollector package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordLoad is called after each data file load. points is the number
	// of points the container was sized to.
	RecordLoad(id format.ID, points int, duration time.Duration, err error)

	// RecordSave is called after each data file save.
	RecordSave(id format.ID, points int, duration time.Duration, err error)

	// RecordSynthesis is called after each attempt to generate a missing
	// sidecar.
	RecordSynthesis(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(format.ID, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(format.ID, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSynthesis(time.Duration, error)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadPoints      atomic.Int64
	LoadTotalNanos  atomic.Int64
	SaveCount       atomic.Int64
	SaveErrors      atomic.Int64
	SavePoints      atomic.Int64
	SaveTotalNanos  atomic.Int64
	SynthesisCount  atomic.Int64
	SynthesisErrors atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ format.ID, points int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadPoints.Add(int64(points))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ format.ID, points int, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SavePoints.Add(int64(points))
}

// RecordSynthesis implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSynthesis(_ time.Duration, err error) {
	b.SynthesisCount.Add(1)
	if err != nil {
		b.SynthesisErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadPoints:      b.LoadPoints.Load(),
		LoadAvgNanos:    avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		SaveCount:       b.SaveCount.Load(),
		SaveErrors:      b.SaveErrors.Load(),
		SavePoints:      b.SavePoints.Load(),
		SaveAvgNanos:    avg(b.SaveTotalNanos.Load(), b.SaveCount.Load()),
		SynthesisCount:  b.SynthesisCount.Load(),
		SynthesisErrors: b.SynthesisErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount       int64
	LoadErrors      int64
	LoadPoints      int64
	LoadAvgNanos    int64
	SaveCount       int64
	SaveErrors      int64
	SavePoints      int64
	SaveAvgNanos    int64
	SynthesisCount  int64
	SynthesisErrors int64
}

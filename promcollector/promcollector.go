// Package promcollector exports lidarformat operation metrics to
// Prometheus.
package promcollector

import (
	"time"

	"github.com/hupe1980/lidarformat"
	"github.com/hupe1980/lidarformat/format"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements lidarformat.MetricsCollector with Prometheus
// counters and a latency histogram.
type Collector struct {
	opLatency  *prometheus.HistogramVec
	operations *prometheus.CounterVec
	points     *prometheus.CounterVec
}

var _ lidarformat.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. Metric names
// are prefixed with namespace when it is not empty.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of load, save and sidecar synthesis operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total operations by kind, data format and outcome",
		}, []string{"op", "format", "status"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_total",
			Help:      "Total points loaded or saved",
		}, []string{"op", "format"}),
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.operations, c.points} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordLoad implements lidarformat.MetricsCollector.
func (c *Collector) RecordLoad(id format.ID, points int, d time.Duration, err error) {
	c.record("load", id, points, d, err)
}

// RecordSave implements lidarformat.MetricsCollector.
func (c *Collector) RecordSave(id format.ID, points int, d time.Duration, err error) {
	c.record("save", id, points, d, err)
}

// RecordSynthesis implements lidarformat.MetricsCollector.
func (c *Collector) RecordSynthesis(d time.Duration, err error) {
	status := statusOf(err)
	c.opLatency.WithLabelValues("synthesis", status).Observe(d.Seconds())
	c.operations.WithLabelValues("synthesis", "none", status).Inc()
}

func (c *Collector) record(op string, id format.ID, points int, d time.Duration, err error) {
	status := statusOf(err)
	c.opLatency.WithLabelValues(op, status).Observe(d.Seconds())
	c.operations.WithLabelValues(op, id.String(), status).Inc()
	if err == nil {
		c.points.WithLabelValues(op, id.String()).Add(float64(points))
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

package docstore

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors an instrumented client reports to.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tada",
			Subsystem: "docstore",
			Name:      "requests_total",
			Help:      "Document store calls by operation and outcome.",
		}, []string{"op", "collection", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tada",
			Subsystem: "docstore",
			Name:      "request_duration_seconds",
			Help:      "Document store call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "collection"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Latency)
	}
	return m
}

type instrumented struct {
	next    Client
	metrics *Metrics
}

// Instrument wraps next so every call is counted, timed and logged.
func Instrument(next Client, m *Metrics) Client {
	return &instrumented{next: next, metrics: m}
}

func (c *instrumented) observe(op, collection string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		glog.Errorf("[docstore] %s %s failed: %v", op, collection, err)
	} else if glog.V(2) {
		glog.Infof("[docstore] %s %s in %s", op, collection, time.Since(start))
	}
	c.metrics.Requests.WithLabelValues(op, collection, outcome).Inc()
	c.metrics.Latency.WithLabelValues(op, collection).Observe(time.Since(start).Seconds())
}

func (c *instrumented) Create(ctx context.Context, collection string, fields Fields) (id string, err error) {
	defer func(start time.Time) { c.observe("create", collection, start, err) }(time.Now())
	return c.next.Create(ctx, collection, fields)
}

func (c *instrumented) ListOrderedBy(ctx context.Context, collection, field string, dir Direction) (docs []Document, err error) {
	defer func(start time.Time) { c.observe("list", collection, start, err) }(time.Now())
	return c.next.ListOrderedBy(ctx, collection, field, dir)
}

func (c *instrumented) Update(ctx context.Context, collection, id string, fields Fields) (err error) {
	defer func(start time.Time) { c.observe("update", collection, start, err) }(time.Now())
	return c.next.Update(ctx, collection, id, fields)
}

func (c *instrumented) Delete(ctx context.Context, collection, id string) (err error) {
	defer func(start time.Time) { c.observe("delete", collection, start, err) }(time.Now())
	return c.next.Delete(ctx, collection, id)
}

func (c *instrumented) Close() error { return c.next.Close() }

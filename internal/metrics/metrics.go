// Package metrics records load runs as Prometheus metrics.
//
// An ingest run is a short-lived batch job, so metrics are not served over
// HTTP. They are written in the text exposition format to a file picked up by
// the node_exporter textfile collector.
package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vvka-141/ingest/pkg/ingest"
)

const namespace = "ingest"

// Error kinds used as the "kind" label of errors_total.
const (
	KindSourceUnavailable = "source_unavailable"
	KindSchemaMismatch    = "schema_mismatch"
	KindWriteFailure      = "write_failure"
	KindConnection        = "connection"
	KindOther             = "other"
)

// Metrics is an ingest.Observer that records progress into its own registry.
type Metrics struct {
	registry *prometheus.Registry
	now      func() time.Time

	rows          *prometheus.CounterVec
	batches       *prometheus.CounterVec
	errors        *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batchRows     *prometheus.HistogramVec
	lastSuccess   *prometheus.GaugeVec
	lastDuration  *prometheus.GaugeVec
	lastTimestamp *prometheus.GaugeVec

	mu        sync.Mutex
	lastEvent time.Time
	table     string
}

// New creates Metrics with a fresh registry.
func New() *Metrics {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Metrics {
	labels := []string{"table"}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		now:      now,
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Records appended to the destination table.",
		}, labels),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches appended to the destination table.",
		}, labels),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed runs by error kind.",
		}, []string{"table", "kind"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to decode and write one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, labels),
		batchRows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_rows",
			Help:      "Records per written batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, labels),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run succeeded, 0 otherwise.",
		}, labels),
		lastDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last run.",
		}, labels),
		lastTimestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}, labels),
	}

	m.registry.MustRegister(
		m.rows, m.batches, m.errors,
		m.batchDuration, m.batchRows,
		m.lastSuccess, m.lastDuration, m.lastTimestamp,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Started(table, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = table
	m.lastEvent = m.now()
}

func (m *Metrics) BatchWritten(batch *ingest.RowBatch, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.rows.WithLabelValues(m.table).Add(float64(batch.Len()))
	m.batches.WithLabelValues(m.table).Inc()
	m.batchRows.WithLabelValues(m.table).Observe(float64(batch.Len()))
	if !m.lastEvent.IsZero() {
		m.batchDuration.WithLabelValues(m.table).Observe(now.Sub(m.lastEvent).Seconds())
	}
	m.lastEvent = now
}

func (m *Metrics) Finished(result ingest.LoadResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := result.Table
	success := 1.0
	if err != nil {
		success = 0
		m.errors.WithLabelValues(table, Kind(err)).Inc()
	}
	m.lastSuccess.WithLabelValues(table).Set(success)
	m.lastDuration.WithLabelValues(table).Set(result.Duration.Seconds())
	m.lastTimestamp.WithLabelValues(table).Set(float64(m.now().Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Kind maps an error to its errors_total label.
func Kind(err error) string {
	switch {
	case errors.Is(err, ingest.ErrSourceUnavailable):
		return KindSourceUnavailable
	case errors.Is(err, ingest.ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, ingest.ErrWriteFailure):
		return KindWriteFailure
	case errors.Is(err, ingest.ErrConnectionFailed):
		return KindConnection
	default:
		return KindOther
	}
}

var _ ingest.Observer = (*Metrics)(nil)

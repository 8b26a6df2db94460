// Package observability records Prometheus metrics for a load run.
//
// cruload is a one-shot command, so metrics are not served over HTTP. They
// are kept in a private registry and, when --metrics-file is given, written
// once in text exposition format for node_exporter's textfile collector.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cruload"

// Metrics holds the counters, gauges and histograms of one load run.
type Metrics struct {
	registry *prometheus.Registry

	PointsLoaded prometheus.Counter
	GridBoxes    prometheus.Counter
	Batches      prometheus.Counter

	BatchRows     prometheus.Histogram
	BatchDuration prometheus.Histogram

	LoadDuration  prometheus.Gauge
	LoadSucceeded prometheus.Gauge
	LastRun       *prometheus.GaugeVec // labels: table
}

// NewMetrics creates Metrics registered with their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PointsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_loaded_total",
			Help:      "Data points written to the target table.",
		}),
		GridBoxes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_boxes_total",
			Help:      "Grid boxes read from the data file.",
		}),
		Batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "COPY batches committed.",
		}),
		BatchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_rows",
			Help:      "Rows per committed COPY batch.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of one COPY batch including retries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LoadDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Wall-clock duration of the load run.",
		}),
		LoadSucceeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_success",
			Help:      "1 if the load run completed, 0 if it failed.",
		}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the load run finished, by target table.",
		}, []string{"table"}),
	}

	m.registry.MustRegister(
		m.PointsLoaded,
		m.GridBoxes,
		m.Batches,
		m.BatchRows,
		m.BatchDuration,
		m.LoadDuration,
		m.LoadSucceeded,
		m.LastRun,
	)
	return m
}

// Registry exposes the registry, e.g. for tests or an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBatch records one committed batch.
func (m *Metrics) ObserveBatch(rows int64, elapsed time.Duration) {
	m.Batches.Inc()
	m.PointsLoaded.Add(float64(rows))
	m.BatchRows.Observe(float64(rows))
	m.BatchDuration.Observe(elapsed.Seconds())
}

// ObserveRun records the outcome of the whole run.
func (m *Metrics) ObserveRun(table string, gridBoxes int, elapsed time.Duration, finished time.Time, err error) {
	m.GridBoxes.Add(float64(gridBoxes))
	m.LoadDuration.Set(elapsed.Seconds())
	if err == nil {
		m.LoadSucceeded.Set(1)
	} else {
		m.LoadSucceeded.Set(0)
	}
	m.LastRun.WithLabelValues(table).Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

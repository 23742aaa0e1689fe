// Package metrics exposes station counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labeler"

// Metrics holds the station collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	labelsPrinted prometheus.Counter
	reprints      prometheus.Counter
	printFailures *prometheus.CounterVec
	ledgerNextID  prometheus.Gauge
	scaleWeight   prometheus.Gauge
	printDuration prometheus.Histogram
}

// New creates and registers the station collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		labelsPrinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_printed_total",
			Help:      "Labels whose can id was committed and dispatched.",
		}),
		reprints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_reprinted_total",
			Help:      "Labels re-sent from a stored print record.",
		}),
		printFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "print_failures_total",
			Help:      "Print attempts that ended before completion, by workflow stage.",
		}, []string{"stage"}),
		ledgerNextID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_next_id",
			Help:      "Next unused can id as last seen by the workflow.",
		}),
		scaleWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scale_weight_grams",
			Help:      "Most recent scale observation.",
		}),
		printDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "print_duration_seconds",
			Help:      "Time from print request to printer acknowledgement.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.labelsPrinted,
		m.reprints,
		m.printFailures,
		m.ledgerNextID,
		m.scaleWeight,
		m.printDuration,
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// LabelPrinted records a completed print and how long it took.
func (m *Metrics) LabelPrinted(d time.Duration) {
	if m == nil {
		return
	}
	m.labelsPrinted.Inc()
	m.printDuration.Observe(d.Seconds())
}

// LabelReprinted records a reprint.
func (m *Metrics) LabelReprinted() {
	if m == nil {
		return
	}
	m.reprints.Inc()
}

// PrintFailed records a failed attempt at the given workflow stage.
func (m *Metrics) PrintFailed(stage string) {
	if m == nil {
		return
	}
	m.printFailures.WithLabelValues(stage).Inc()
}

// SetNextID publishes the ledger position.
func (m *Metrics) SetNextID(nextID int64) {
	if m == nil {
		return
	}
	m.ledgerNextID.Set(float64(nextID))
}

// SetWeight publishes the current scale weight.
func (m *Metrics) SetWeight(grams int64) {
	if m == nil {
		return
	}
	m.scaleWeight.Set(float64(grams))
}

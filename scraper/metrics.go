package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	EntriesTotal     *prometheus.CounterVec
	ProbesTotal      *prometheus.CounterVec
	SuggestionsTotal prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playscraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playscraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	entries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playscraper_entries_total",
			Help: "Entries visited by the crawl driver by outcome.",
		},
		[]string{"outcome"},
	)
	probes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playscraper_probes_total",
			Help: "Suggestion probes by result.",
		},
		[]string{"result"},
	)
	suggestions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "playscraper_suggestions_total",
			Help: "Distinct suggestions added to the pool.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playscraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, entries, probes, suggestions, errorsTotal)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		RequestDuration:  requestDuration,
		EntriesTotal:     entries,
		ProbesTotal:      probes,
		SuggestionsTotal: suggestions,
		ErrorsTotal:      errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncEntry counts one entry visited by the driver.
func (m *Metrics) IncEntry(outcome string) {
	if m == nil {
		return
	}
	m.EntriesTotal.WithLabelValues(outcome).Inc()
}

// IncProbe counts one suggestion probe.
func (m *Metrics) IncProbe(result string) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(result).Inc()
}

// IncSuggestion counts one new pooled suggestion.
func (m *Metrics) IncSuggestion() {
	if m == nil {
		return
	}
	m.SuggestionsTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

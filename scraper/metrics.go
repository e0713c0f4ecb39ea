package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a catalog run.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	CardsTotal      prometheus.Counter
	SetsTotal       *prometheus.CounterVec
	PriceLookups    *prometheus.CounterVec
	DetailCacheHits prometheus.Counter
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmcatalog_requests_total",
			Help: "HTTP requests issued, by target site.",
		},
		[]string{"site"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dmcatalog_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	cards := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dmcatalog_cards_total",
			Help: "Card records assembled.",
		},
	)
	sets := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmcatalog_sets_total",
			Help: "Set pages processed, by outcome.",
		},
		[]string{"status"},
	)
	prices := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmcatalog_price_lookups_total",
			Help: "Marketplace price lookups, by outcome.",
		},
		[]string{"status"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dmcatalog_detail_cache_hits_total",
			Help: "Card detail lookups served from cache.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dmcatalog_retries_total",
			Help: "Retry attempts made.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmcatalog_errors_total",
			Help: "Request errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, cards, sets, prices, cacheHits, retries, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		CardsTotal:      cards,
		SetsTotal:       sets,
		PriceLookups:    prices,
		DetailCacheHits: cacheHits,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest counts a request to site.
func (m *Metrics) IncRequest(site string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(site).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncCards counts assembled card records.
func (m *Metrics) IncCards(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CardsTotal.Add(float64(n))
}

// IncSet counts a finished set by status.
func (m *Metrics) IncSet(status string) {
	if m == nil {
		return
	}
	m.SetsTotal.WithLabelValues(status).Inc()
}

// IncPriceLookup counts a price lookup by outcome.
func (m *Metrics) IncPriceLookup(status string) {
	if m == nil {
		return
	}
	m.PriceLookups.WithLabelValues(status).Inc()
}

// IncDetailCacheHit counts a detail lookup answered from cache.
func (m *Metrics) IncDetailCacheHit() {
	if m == nil {
		return
	}
	m.DetailCacheHits.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

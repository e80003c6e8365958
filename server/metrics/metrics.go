// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes Prometheus metrics for the dashboard server.
//
// All Record* methods are safe to call on a nil *Metrics, which is what the
// server holds when metrics are disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dashboard"

// Cache lookup results, used as the "result" label.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics contains the Prometheus collectors of the dashboard.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	renderTotal    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	limiterRejections *prometheus.CounterVec
}

// NewMetrics creates the dashboard collectors and registers them on registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

// NewDefault returns metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func NewDefault() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	return NewMetrics(registry)
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"method", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken to handle HTTP requests",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method"},
	)

	m.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "Size of HTTP response bodies in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 10), // 256B to 128K
		},
		[]string{"method"},
	)

	m.renderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Total number of component renders",
		},
		[]string{"component", "locale"},
	)

	m.renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time taken to render a component",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12), // 50µs to ~100ms
		},
		[]string{"component"},
	)

	m.renderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Total number of failed component renders",
		},
		[]string{"component"},
	)

	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragment_cache_lookups_total",
			Help:      "Fragment cache lookups by result",
		},
		[]string{"result"},
	)

	m.cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fragment_cache_entries",
			Help:      "Number of rendered fragments held in memory",
		},
	)

	m.limiterRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limiter_rejections_total",
			Help:      "Requests refused by the rate limiter",
		},
		[]string{"reason"},
	)
}

func (m *Metrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpResponseSize,
		m.renderTotal,
		m.renderDuration,
		m.renderErrors,
		m.cacheLookups,
		m.cacheEntries,
		m.limiterRejections,
	}
}

// Describe implements the Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(method string, statusCode, size int, duration time.Duration) {
	if m == nil {
		return
	}

	m.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method).Observe(float64(size))
}

// RecordRender records one render of component in locale.
// A non-nil err is counted as a failed render.
func (m *Metrics) RecordRender(component, locale string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	if err != nil {
		m.renderErrors.WithLabelValues(component).Inc()

		return
	}

	m.renderTotal.WithLabelValues(component, locale).Inc()
	m.renderDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordCacheLookup counts a fragment cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}

	result := ResultMiss
	if hit {
		result = ResultHit
	}

	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetCacheEntries reports the current number of cached fragments.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}

	m.cacheEntries.Set(float64(n))
}

// RecordLimiterRejection counts a request refused by the limiter for reason.
func (m *Metrics) RecordLimiterRejection(reason string) {
	if m == nil {
		return
	}

	m.limiterRejections.WithLabelValues(reason).Inc()
}

// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for streamgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolveDuration tracks end-to-end source resolution latency.
	ResolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamgate_resolve_duration_seconds",
		Help:    "Time taken to resolve stream sources for a content id",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"kind"})

	// ResolveTotal tracks resolution outcomes.
	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_resolve_total",
		Help: "Total number of resolve calls by kind and result",
	}, []string{"kind", "result"})

	// ResolveSources tracks how many sources survive the partner filter.
	ResolveSources = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamgate_resolve_sources",
		Help:    "Number of playable sources returned per resolve",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	}, []string{"kind"})

	// ResolveCacheTotal tracks resolver cache hits and misses.
	ResolveCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_resolve_cache_total",
		Help: "Resolver cache lookups by outcome",
	}, []string{"outcome"})
)

// ObserveResolve records a completed resolve call.
func ObserveResolve(kind string, ok bool, sources int, duration time.Duration) {
	result := "failure"
	if ok {
		result = "success"
	}
	ResolveDuration.WithLabelValues(kind).Observe(duration.Seconds())
	ResolveTotal.WithLabelValues(kind, result).Inc()
	ResolveSources.WithLabelValues(kind).Observe(float64(sources))
}

// IncResolveCache records a resolver cache lookup outcome.
func IncResolveCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	ResolveCacheTotal.WithLabelValues(outcome).Inc()
}

// statusClass collapses an HTTP status into its class label ("2xx", "4xx", ...).
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

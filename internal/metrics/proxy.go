// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProxyRequestsTotal tracks proxied requests by kind (manifest, segment, subtitle).
	ProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_proxy_requests_total",
		Help: "Total proxied requests by kind and upstream status class",
	}, []string{"kind", "status"})

	// ProxyBytesTotal tracks bytes relayed to clients by kind.
	ProxyBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_proxy_bytes_total",
		Help: "Total bytes relayed to clients by kind",
	}, []string{"kind"})

	// ManifestRewrites tracks rewritten URI lines per manifest.
	ManifestRewrites = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamgate_manifest_rewritten_lines",
		Help:    "URI lines rewritten per proxied manifest",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})
)

// IncProxyRequest records a proxied request outcome.
func IncProxyRequest(kind string, upstreamStatus int) {
	ProxyRequestsTotal.WithLabelValues(kind, statusClass(upstreamStatus)).Inc()
}

// AddProxyBytes records bytes relayed for a proxied response.
func AddProxyBytes(kind string, n int64) {
	if n > 0 {
		ProxyBytesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveManifestRewrites records how many lines were rewritten in a manifest.
func ObserveManifestRewrites(n int) {
	ManifestRewrites.Observe(float64(n))
}

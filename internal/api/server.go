// SPDX-License-Identifier: MIT

// Package api is the HTTP surface: source resolution, same-origin media
// proxying and the operational routes.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/streamgate/streamgate/internal/playback"
	"github.com/streamgate/streamgate/internal/progress"
	"github.com/streamgate/streamgate/internal/resolver"
	"github.com/streamgate/streamgate/internal/subtitle"
)

const (
	// proxyHLSPath is the manifest/segment proxy route; rewritten manifest
	// URIs point back at it.
	proxyHLSPath = "/proxy-hls"

	// maxManifestBytes caps a proxied playlist; manifests are text and never
	// legitimately large.
	maxManifestBytes = 10 << 20
)

// Options wires a Server.
type Options struct {
	Resolver  *resolver.Resolver
	Subtitles *subtitle.Fetcher
	Sessions  *playback.Registry
	Progress  *progress.Store
	// HTTPClient fetches proxied media; nil uses a 30s-timeout default.
	HTTPClient *http.Client
	// ProxyRequestsPerMinute rate-limits the proxy routes per client IP.
	ProxyRequestsPerMinute int
}

// Server holds the handler dependencies.
type Server struct {
	resolver  *resolver.Resolver
	subtitles *subtitle.Fetcher
	sessions  *playback.Registry
	progress  *progress.Store
	client    *http.Client
	proxyRPM  int
	manifests singleflight.Group
}

// NewServer creates the HTTP surface.
func NewServer(opts Options) *Server {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	subtitles := opts.Subtitles
	if subtitles == nil {
		subtitles = subtitle.NewFetcher(nil)
	}
	rpm := opts.ProxyRequestsPerMinute
	if rpm <= 0 {
		rpm = 300
	}
	return &Server{
		resolver:  opts.Resolver,
		subtitles: subtitles,
		sessions:  opts.Sessions,
		progress:  opts.Progress,
		client:    client,
		proxyRPM:  rpm,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(corsAll)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/resolve", s.handleResolve)
	r.Get("/sessions", s.handleSessions)
	r.Get("/continue-watching", s.handleContinueWatching)

	r.Group(func(pr chi.Router) {
		pr.Use(rateLimit(s.proxyRPM))
		pr.Get(proxyHLSPath, s.handleProxyHLS)
		pr.Get("/proxy-subtitle", s.handleProxySubtitle)
	})
	return r
}

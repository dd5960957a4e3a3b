// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/streamgate/streamgate/internal/hls"
	"github.com/streamgate/streamgate/internal/log"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/subtitle"
)

// handleProxyHLS serves GET /proxy-hls?url=. Playlists are rewritten so every
// URI points back at this route; segments stream through unmodified.
func (s *Server) handleProxyHLS(w http.ResponseWriter, r *http.Request) {
	target, ok := proxyTarget(w, r)
	if !ok {
		return
	}
	if hls.IsManifestPath(target.Path) {
		s.serveManifest(w, r, target)
		return
	}
	s.serveMedia(w, r, target)
}

// proxyTarget validates the url query parameter.
func proxyTarget(w http.ResponseWriter, r *http.Request) (*url.URL, bool) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "invalid url")
		return nil, false
	}
	return u, true
}

type manifestFetch struct {
	status int
	body   string
}

// serveManifest fetches a playlist (deduplicating concurrent fetches of the
// same URL), rewrites its URIs and serves it.
func (s *Server) serveManifest(w http.ResponseWriter, r *http.Request, target *url.URL) {
	v, err, _ := s.manifests.Do(target.String(), func() (any, error) {
		return s.fetchManifest(r.Context(), target.String())
	})
	if err != nil {
		l := log.WithComponentFromContext(r.Context(), "proxy")
		l.Warn().
			Err(err).Str(log.FieldURL, target.String()).Msg("manifest fetch failed")
		metrics.IncProxyRequest("manifest", http.StatusBadGateway)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	f := v.(manifestFetch)
	metrics.IncProxyRequest("manifest", f.status)

	if f.status < 200 || f.status > 299 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}
	s.writeRewritten(w, f.body, target)
}

func (s *Server) fetchManifest(ctx context.Context, rawURL string) (manifestFetch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return manifestFetch{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return manifestFetch{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return manifestFetch{}, err
	}
	return manifestFetch{status: resp.StatusCode, body: string(body)}, nil
}

// writeRewritten rewrites manifest URIs against their origin and serves the
// result with playlist headers.
func (s *Server) writeRewritten(w http.ResponseWriter, manifest string, base *url.URL) {
	rewritten, count := hls.Rewrite(manifest, base, proxyHLSPath)
	metrics.ObserveManifestRewrites(count)

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	n, _ := io.WriteString(w, rewritten)
	metrics.AddProxyBytes("manifest", int64(n))
}

// serveMedia streams a segment through unmodified, honoring Range requests.
// Upstreams that answer a segment-looking path with a playlist content type
// still get the rewrite treatment.
func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request, target *url.URL) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid url")
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		l := log.WithComponentFromContext(r.Context(), "proxy")
		l.Warn().
			Err(err).Str(log.FieldURL, target.String()).Msg("segment fetch failed")
		metrics.IncProxyRequest("segment", http.StatusBadGateway)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.IncProxyRequest("segment", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		return
	}

	if hls.IsManifestContentType(resp.Header.Get("Content-Type")) {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
		if err != nil {
			writeError(w, http.StatusBadGateway, "upstream read failed")
			return
		}
		s.writeRewritten(w, string(body), target)
		return
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "video/mp2t"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
	for _, h := range []string{"Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	n, _ := io.Copy(w, resp.Body)
	metrics.AddProxyBytes("segment", n)
}

// handleProxySubtitle serves GET /proxy-subtitle?url=, returning the caption
// body verbatim under a same-origin VTT content type.
func (s *Server) handleProxySubtitle(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	body, err := s.subtitles.Fetch(r.Context(), raw)
	if err != nil {
		code := subtitle.StatusFor(err)
		l := log.WithComponentFromContext(r.Context(), "proxy")
		l.Warn().
			Err(err).Str(log.FieldURL, raw).Msg("subtitle fetch failed")
		metrics.IncProxyRequest("subtitle", code)
		writeError(w, code, "subtitle fetch failed")
		return
	}
	metrics.IncProxyRequest("subtitle", http.StatusOK)

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.WriteString(w, body)
	metrics.AddProxyBytes("subtitle", int64(len(body)))
}

// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgate/streamgate/internal/playback"
	"github.com/streamgate/streamgate/internal/progress"
	"github.com/streamgate/streamgate/internal/provider"
	"github.com/streamgate/streamgate/internal/resolver"
)

func newResolveServer(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()
	res := resolver.New(
		provider.New(upstreamURL, 5*time.Second),
		nil, nil,
		resolver.Options{PartnerDomain: "partner.example", Timeout: 5 * time.Second},
	)
	return NewServer(Options{Resolver: res, Sessions: playback.NewRegistry()}).Routes()
}

func doGet(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestResolveParameterValidation(t *testing.T) {
	h := NewServer(Options{}).Routes()

	cases := []string{
		"/resolve",
		"/resolve?type=movie",
		"/resolve?id=603692",
		"/resolve?type=series&id=1",
		"/resolve?type=tv&id=1399",
		"/resolve?type=tv&id=1399&season=1",
		"/resolve?type=tv&id=1399&season=one&episode=2",
	}
	for _, target := range cases {
		rec := doGet(h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestResolveMovie(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/movie/603692", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("k"), "derived key travels with the request")
		_ = json.NewEncoder(w).Encode(provider.Payload{
			Sources: []provider.RawSource{
				{File: "https://cdn.partner.example/m/603692/master.m3u8", Label: "1080p"},
				{File: "https://rogue.example/other.m3u8", Label: "720p"},
			},
			Captions: []provider.RawCaption{
				{File: "https://cdn.partner.example/c/en.vtt", Label: "English - Rive", Language: "en"},
			},
		})
	}))
	defer upstream.Close()

	rec := doGet(newResolveServer(t, upstream.URL), "/resolve?type=movie&id=603692")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Streams, 1, "off-partner source is dropped")
	assert.Equal(t, "https://cdn.partner.example/m/603692/master.m3u8", resp.Streams[0].URL)
	require.Len(t, resp.Captions, 1)
	assert.Equal(t, "English", resp.Captions[0].Label)
	assert.Empty(t, resp.Error)
}

func TestResolveEmptyUpstreamIsStill200(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(provider.Payload{})
	}))
	defer upstream.Close()

	rec := doGet(newResolveServer(t, upstream.URL), "/resolve?type=movie&id=603692")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Streams)
	assert.Empty(t, resp.Streams)
}

func TestResolveSurfacesUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such title", http.StatusNotFound)
	}))
	defer upstream.Close()

	rec := doGet(newResolveServer(t, upstream.URL), "/resolve?type=movie&id=missing")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestResolveEpisodePath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tv/1399/2/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(provider.Payload{
			Sources: []provider.RawSource{{File: "https://cdn.partner.example/t/1399/master.m3u8"}},
		})
	}))
	defer upstream.Close()

	rec := doGet(newResolveServer(t, upstream.URL), "/resolve?type=tv&id=1399&season=2&episode=7")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Streams, 1)
	assert.Equal(t, "Auto", resp.Streams[0].Quality, "missing label falls back")
}

func TestSessionsEndpoint(t *testing.T) {
	registry := playback.NewRegistry()
	h := NewServer(Options{Sessions: registry}).Routes()

	rec := doGet(h, "/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	s := registry.Create("603692", resolver.KindMovie, "203.0.113.9", "tvOS/17")
	s.StateChanged(playback.StateLoading, playback.StatePlaying, 0)

	rec = doGet(h, "/sessions")
	var infos []playback.SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "603692", infos[0].ContentID)
	assert.Equal(t, playback.StatePlaying, infos[0].State)
}

func TestContinueWatchingEndpoint(t *testing.T) {
	store, err := progress.NewStore(nil)
	require.NoError(t, err)
	require.True(t, store.Save(progress.WatchProgress{
		Key:             progress.Key{ContentID: "603692", Kind: progress.KindMovie},
		PositionSeconds: 1200,
		DurationSeconds: 6000,
		Percent:         20,
	}))
	h := NewServer(Options{Progress: store}).Routes()

	rec := doGet(h, "/continue-watching")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []progress.WatchProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "603692", entries[0].ContentID)

	// Without a store the shelf is empty, not an error.
	rec = doGet(NewServer(Options{}).Routes(), "/continue-watching")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHealthzAndMetrics(t *testing.T) {
	h := NewServer(Options{}).Routes()

	rec := doGet(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPreflightAnswered(t *testing.T) {
	h := NewServer(Options{}).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/resolve", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestProxyRateLimit(t *testing.T) {
	h := NewServer(Options{ProxyRequestsPerMinute: 2}).Routes()

	for i := 0; i < 2; i++ {
		rec := doGet(h, "/proxy-subtitle")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "request %d passes the limiter", i+1)
	}
	rec := doGet(h, "/proxy-subtitle")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// The resolve route is not behind the proxy limiter.
	rec = doGet(h, "/resolve")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	h := NewServer(Options{}).Routes()

	rec := doGet(h, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

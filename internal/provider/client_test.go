// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestURL(t *testing.T) {
	c := New("https://agg.example/", 0)

	movie := c.requestURL(Request{ID: "603692", Key: "dG9r"})
	assert.Equal(t, "https://agg.example/api/v1/movie/603692?k=dG9r", movie)

	episode := c.requestURL(Request{ID: "1399", Episode: true, Season: 2, Number: 7, Key: "dG9r"})
	assert.Equal(t, "https://agg.example/api/v1/tv/1399/2/7?k=dG9r", episode)
}

func TestFetchSourcesDecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/movie/603692", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("k"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sources": [{"file": "https://edge.partner.example/hls/a.m3u8", "label": "1080p", "type": "hls"}],
			"captions": [{"file": "https://subs.example/en.vtt", "label": "English", "language": "en"}]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	p, err := c.FetchSources(context.Background(), Request{ID: "603692", Key: "dG9r"})
	require.NoError(t, err)
	require.Len(t, p.Sources, 1)
	require.Len(t, p.Captions, 1)
	assert.Equal(t, "1080p", p.Sources[0].Label)
	assert.Equal(t, "en", p.Captions[0].Language)
}

func TestFetchSourcesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.FetchSources(context.Background(), Request{ID: "x", Key: "k"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestFetchSourcesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New("http://127.0.0.1:0", time.Second)
	_, err := c.FetchSources(ctx, Request{ID: "x", Key: "k"})
	require.ErrorIs(t, err, context.Canceled)
}

// SPDX-License-Identifier: MIT

package subtitle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vttBody = "WEBVTT\n\n00:00.000 --> 00:04.000\nHello.\n"

func TestFetchReturnsBodyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(vttBody))
	}))
	defer srv.Close()

	body, err := NewFetcher(nil).Fetch(context.Background(), srv.URL+"/en.vtt")
	require.NoError(t, err)
	assert.Equal(t, vttBody, body)
}

func TestFetchRetriesServerErrorOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(vttBody))
	}))
	defer srv.Close()

	body, err := NewFetcher(nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, vttBody, body)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchGivesUpAfterTwoAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewFetcher(nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusFor(err))
	assert.Equal(t, int32(2), calls.Load(), "max two attempts")
}

func TestFetchClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	start := time.Now()
	_, err := NewFetcher(nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusFor(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), 400*time.Millisecond, "4xx must fail without the backoff sleep")
}

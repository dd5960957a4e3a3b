// SPDX-License-Identifier: MIT

// Package subtitle fetches caption files from arbitrary origins so they can
// be served same-origin with a caption content type.
package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/streamgate/streamgate/internal/retry"
)

// maxCaptionBytes caps a single caption file; real-world VTT files are far
// smaller.
const maxCaptionBytes = 4 << 20

// StatusError is a non-2xx response from the caption origin.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("subtitle upstream status %d", e.Code)
}

// Fetcher retrieves caption files with a short retry policy.
type Fetcher struct {
	http *http.Client
}

// NewFetcher creates a Fetcher with the given client; nil uses a default with
// a 15s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{http: client}
}

// Fetch returns the caption file body verbatim. Two attempts at most, 500ms
// initial delay; 5xx and 429 retry, other 4xx fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var body string
	err := retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		res, err := f.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()

		if res.StatusCode < 200 || res.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, res.Body)
			return &StatusError{Code: res.StatusCode}
		}
		b, err := io.ReadAll(io.LimitReader(res.Body, maxCaptionBytes))
		if err != nil {
			return err
		}
		body = string(b)
		return nil
	}, retry.Options{
		MaxRetries:   1,
		InitialDelay: 500 * time.Millisecond,
		Retryable:    retryable,
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return retry.RetryableStatus(se.Code)
	}
	return retry.RetryableError(err)
}

// StatusFor maps a Fetch error to the HTTP status surfaced to clients.
func StatusFor(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return http.StatusBadGateway
}

// SPDX-License-Identifier: MIT

// Package provider is the HTTP client for the upstream aggregation service.
// The service is undocumented; the request shape and the derived-key query
// parameter were reverse-engineered from its own web client.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Payload is the raw upstream response before filtering and normalization.
type Payload struct {
	Sources  []RawSource  `json:"sources"`
	Captions []RawCaption `json:"captions"`
}

// RawSource is one candidate stream as the aggregator reports it.
type RawSource struct {
	File  string `json:"file"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// RawCaption is one subtitle track as the aggregator reports it.
type RawCaption struct {
	File     string `json:"file"`
	Label    string `json:"label"`
	Language string `json:"language"`
}

// Request identifies the content to resolve upstream.
type Request struct {
	ID      string
	Episode bool // false = movie
	Season  int
	Number  int
	Key     string // derived access token
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Code)
}

// Client talks to the aggregator. A politeness limiter keeps request bursts
// below the upstream's unpublished ban threshold.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client for the given aggregator base URL.
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// FetchSources resolves a content identifier to raw sources and captions.
func (c *Client) FetchSources(ctx context.Context, r Request) (*Payload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(r), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &StatusError{Code: res.StatusCode, Body: string(body)}
	}

	var p Payload
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode upstream payload: %w", err)
	}
	return &p, nil
}

// requestURL builds the aggregator URL embedding the derived key.
func (c *Client) requestURL(r Request) string {
	q := url.Values{}
	q.Set("k", r.Key)
	if r.Episode {
		return c.base + "/api/v1/tv/" + url.PathEscape(r.ID) +
			"/" + strconv.Itoa(r.Season) + "/" + strconv.Itoa(r.Number) + "?" + q.Encode()
	}
	return c.base + "/api/v1/movie/" + url.PathEscape(r.ID) + "?" + q.Encode()
}

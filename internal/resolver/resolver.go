// SPDX-License-Identifier: MIT

// Package resolver turns a content identifier into a ranked list of playable
// stream sources and subtitle tracks.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/streamgate/streamgate/internal/cache"
	"github.com/streamgate/streamgate/internal/log"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/provider"
	"github.com/streamgate/streamgate/internal/resilience"
	"github.com/streamgate/streamgate/internal/retry"
	"github.com/streamgate/streamgate/internal/token"
)

// ErrTimeout marks a resolve that hit the hard cancellation ceiling.
var ErrTimeout = errors.New("resolver: upstream timeout")

const (
	defaultQuality  = "Auto"
	defaultProvider = "primary"

	// captionVendorSuffix is the branding the aggregator appends to caption
	// labels; it is stripped before tracks reach clients.
	captionVendorSuffix = " - Rive"
)

// Options configures a Resolver.
type Options struct {
	// PartnerDomain is the allow-listed partner-proxy domain marker; sources
	// whose URL does not contain it are dropped.
	PartnerDomain string
	// Timeout is the hard ceiling for one resolve (default 30s).
	Timeout time.Duration
	// CacheTTL bounds how long successful results are reused (default 2m).
	CacheTTL time.Duration
	// Retry tunes the upstream retry policy; zero value uses defaults.
	Retry retry.Options
}

// Resolver resolves content identifiers through the upstream aggregator.
type Resolver struct {
	upstream *provider.Client
	breaker  *resilience.CircuitBreaker
	cache    cache.Cache
	opts     Options
}

// New creates a Resolver. cache may be a no-op cache; breaker may be nil to
// disable fail-fast behaviour.
func New(upstream *provider.Client, breaker *resilience.CircuitBreaker, c cache.Cache, opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 2 * time.Minute
	}
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Resolver{upstream: upstream, breaker: breaker, cache: c, opts: opts}
}

// Resolve fetches, filters and normalizes sources for the request. It never
// panics past its boundary: on failure it returns an empty Result together
// with the error that StatusFor maps to an HTTP status.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	logger := log.WithComponentFromContext(ctx, "resolver")
	start := time.Now()

	if cached, ok := r.fromCache(ctx, req); ok {
		metrics.IncResolveCache(true)
		return cached, nil
	}
	metrics.IncResolveCache(false)

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	payload, err := r.fetch(ctx, req)
	if err != nil {
		mapped := r.mapError(ctx, err)
		logger.Warn().Err(err).
			Str(log.FieldContentID, req.ID).
			Str("kind", string(req.Kind)).
			Msg("resolve failed")
		metrics.ObserveResolve(string(req.Kind), false, 0, time.Since(start))
		return emptyResult(), mapped
	}

	result := r.normalize(payload)
	logger.Info().
		Str(log.FieldContentID, req.ID).
		Str("kind", string(req.Kind)).
		Int("streams", len(result.Streams)).
		Int("captions", len(result.Captions)).
		Msg("resolved sources")
	metrics.ObserveResolve(string(req.Kind), result.Success, len(result.Streams), time.Since(start))

	if result.Success {
		r.toCache(ctx, req, result)
	}
	return result, nil
}

func (r *Resolver) fetch(ctx context.Context, req Request) (*provider.Payload, error) {
	preq := provider.Request{
		ID:      req.ID,
		Episode: req.Kind == KindEpisode,
		Season:  req.Season,
		Number:  req.Episode,
		Key:     token.Derive(req.ID),
	}

	opts := r.opts.Retry
	opts.Retryable = retryableUpstream

	var payload *provider.Payload
	err := retry.Do(ctx, func(ctx context.Context) error {
		call := func() error {
			p, err := r.upstream.FetchSources(ctx, preq)
			if err != nil {
				return err
			}
			payload = p
			return nil
		}
		if r.breaker != nil {
			return r.breaker.Execute(call)
		}
		return call()
	}, opts)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// retryableUpstream retries 5xx/429 and transport failures, but never
// cancellation, client errors or an open breaker.
func retryableUpstream(err error) bool {
	var se *provider.StatusError
	if errors.As(err, &se) {
		return retry.RetryableStatus(se.Code)
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	return retry.RetryableError(err)
}

// normalize applies the partner-domain filter, substitutes default labels and
// strips the vendor suffix from caption labels. Source order is preserved.
func (r *Resolver) normalize(p *provider.Payload) Result {
	result := emptyResult()

	for _, s := range p.Sources {
		if s.File == "" {
			continue
		}
		if r.opts.PartnerDomain != "" && !strings.Contains(s.File, r.opts.PartnerDomain) {
			continue
		}
		src := StreamSource{
			URL:      s.File,
			Quality:  s.Label,
			Provider: defaultProvider,
			Delivery: DeliveryDirect,
		}
		if src.Quality == "" {
			src.Quality = defaultQuality
		}
		if strings.EqualFold(s.Type, "embed") || strings.EqualFold(s.Type, "iframe") {
			src.Delivery = DeliveryEmbed
		}
		result.Streams = append(result.Streams, src)
	}

	for _, c := range p.Captions {
		if c.File == "" {
			continue
		}
		result.Captions = append(result.Captions, StreamCaption{
			Label:    strings.TrimSuffix(c.Label, captionVendorSuffix),
			URL:      c.File,
			Language: c.Language,
		})
	}

	result.Success = len(result.Streams) > 0
	return result
}

// mapError folds any internal failure into the resolver taxonomy.
func (r *Resolver) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

// StatusFor maps a Resolve error to the HTTP status the API surfaces:
// 504 for the hard timeout, the upstream status for upstream failures,
// 503 while the breaker is open, 500 for everything unexpected.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	var se *provider.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func emptyResult() Result {
	return Result{
		Streams:  []StreamSource{},
		Captions: []StreamCaption{},
	}
}

func (r *Resolver) fromCache(ctx context.Context, req Request) (Result, bool) {
	raw, ok := r.cache.Get(ctx, cacheKey(req))
	if !ok {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Result{}, false
	}
	if result.Streams == nil || result.Captions == nil {
		return Result{}, false
	}
	return result, true
}

func (r *Resolver) toCache(ctx context.Context, req Request, result Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	r.cache.Set(ctx, cacheKey(req), string(raw), r.opts.CacheTTL)
}

func cacheKey(req Request) string {
	if req.Kind == KindEpisode {
		return fmt.Sprintf("resolve:%s:%s:%d:%d", req.Kind, req.ID, req.Season, req.Episode)
	}
	return "resolve:" + string(req.Kind) + ":" + req.ID
}

// String implements fmt.Stringer for log-friendly requests.
func (req Request) String() string {
	if req.Kind == KindEpisode {
		return string(req.Kind) + "/" + req.ID + "/s" + strconv.Itoa(req.Season) + "e" + strconv.Itoa(req.Episode)
	}
	return string(req.Kind) + "/" + req.ID
}

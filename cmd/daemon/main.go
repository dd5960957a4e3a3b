// SPDX-License-Identifier: MIT

// Command daemon runs the streamgate HTTP service: source resolution, HLS and
// subtitle proxying, and the operational routes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamgate/streamgate/internal/api"
	"github.com/streamgate/streamgate/internal/cache"
	"github.com/streamgate/streamgate/internal/config"
	"github.com/streamgate/streamgate/internal/log"
	"github.com/streamgate/streamgate/internal/playback"
	"github.com/streamgate/streamgate/internal/progress"
	"github.com/streamgate/streamgate/internal/provider"
	"github.com/streamgate/streamgate/internal/resilience"
	"github.com/streamgate/streamgate/internal/resolver"
	"github.com/streamgate/streamgate/internal/retry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("streamgate", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: "streamgate"})
	logger := log.WithComponent("daemon")
	logger.Info().Str("version", version).Str("listen", cfg.Listen).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resultCache, err := buildCache(cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Msg("cache init failed")
	}

	store, err := buildProgressStore(cfg.Progress)
	if err != nil {
		logger.Fatal().Err(err).Msg("progress store init failed")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("progress store close failed")
		}
	}()

	breaker := resilience.NewCircuitBreaker("upstream",
		cfg.Upstream.BreakerThreshold, cfg.Upstream.BreakerResetTimeout)

	res := resolver.New(
		provider.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout),
		breaker,
		resultCache,
		resolver.Options{
			PartnerDomain: cfg.Upstream.PartnerDomain,
			Timeout:       cfg.Upstream.Timeout,
			CacheTTL:      cfg.Cache.TTL,
			Retry: retry.Options{
				MaxRetries:   cfg.Upstream.MaxRetries,
				InitialDelay: cfg.Upstream.InitialDelay,
			},
		},
	)

	server := api.NewServer(api.Options{
		Resolver:               res,
		Sessions:               playback.NewRegistry(),
		Progress:               store,
		ProxyRequestsPerMinute: cfg.Proxy.RequestsPerMinute,
	})

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No blanket write timeout: segment streaming holds connections open
		// for as long as the client keeps reading.
		IdleTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", cfg.Listen).Msg("http server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown incomplete")
	}
	logger.Info().Msg("stopped")
}

func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{Addr: cfg.RedisAddr}, log.WithComponent("cache"))
	case "memory":
		return cache.NewMemoryCache(time.Minute), nil
	case "none":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func buildProgressStore(cfg config.ProgressConfig) (*progress.Store, error) {
	switch cfg.Backend {
	case "memory":
		return progress.NewStore(nil)
	case "file":
		return progress.NewStore(progress.NewFileBackend(cfg.Path))
	case "badger":
		backend, err := progress.NewBadgerBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		return progress.NewStore(backend)
	default:
		return nil, fmt.Errorf("unknown progress backend %q", cfg.Backend)
	}
}

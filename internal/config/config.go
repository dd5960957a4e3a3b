// SPDX-License-Identifier: MIT

// Package config loads the daemon configuration: defaults, then an optional
// YAML file, then STREAMGATE_ environment overrides. The result is a value
// snapshot; nothing reloads at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// LogLevel is the zerolog level name.
	LogLevel string `yaml:"logLevel"`

	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Progress ProgressConfig `yaml:"progress"`
	Proxy    ProxyConfig    `yaml:"proxy"`
}

// UpstreamConfig tunes the source aggregator client.
type UpstreamConfig struct {
	// BaseURL is the aggregator endpoint, e.g. https://aggregator.example.
	BaseURL string `yaml:"baseUrl"`
	// PartnerDomain marks first-party caption hosts that are filtered out of
	// responses.
	PartnerDomain string `yaml:"partnerDomain"`
	// Timeout caps one resolve end to end, retries included.
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is the retry budget per resolve.
	MaxRetries int `yaml:"maxRetries"`
	// InitialDelay seeds the exponential backoff.
	InitialDelay time.Duration `yaml:"initialDelay"`
	// BreakerThreshold opens the circuit after this many consecutive failures.
	BreakerThreshold int `yaml:"breakerThreshold"`
	// BreakerResetTimeout holds the circuit open before probing again.
	BreakerResetTimeout time.Duration `yaml:"breakerResetTimeout"`
}

// CacheConfig selects the resolver result cache.
type CacheConfig struct {
	// Backend is memory, redis or none.
	Backend string `yaml:"backend"`
	// RedisAddr is required for the redis backend.
	RedisAddr string `yaml:"redisAddr"`
	// TTL bounds how long resolved source lists are reused.
	TTL time.Duration `yaml:"ttl"`
}

// ProgressConfig selects the watch-progress persistence backend.
type ProgressConfig struct {
	// Backend is memory, file or badger.
	Backend string `yaml:"backend"`
	// Path is the snapshot file (file backend) or database directory (badger).
	Path string `yaml:"path"`
}

// ProxyConfig tunes the media proxy routes.
type ProxyConfig struct {
	// RequestsPerMinute is the per-client rate limit on proxy routes.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Upstream: UpstreamConfig{
			Timeout:             30 * time.Second,
			MaxRetries:          3,
			InitialDelay:        time.Second,
			BreakerThreshold:    5,
			BreakerResetTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     2 * time.Minute,
		},
		Progress: ProgressConfig{
			Backend: "memory",
		},
		Proxy: ProxyConfig{
			RequestsPerMinute: 300,
		},
	}
}

// Load builds the configuration: defaults, the YAML file at path (skipped
// when path is empty), then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Listen = ParseString("STREAMGATE_LISTEN", c.Listen)
	c.LogLevel = ParseString("STREAMGATE_LOG_LEVEL", c.LogLevel)

	c.Upstream.BaseURL = ParseString("STREAMGATE_UPSTREAM_URL", c.Upstream.BaseURL)
	c.Upstream.PartnerDomain = ParseString("STREAMGATE_PARTNER_DOMAIN", c.Upstream.PartnerDomain)
	c.Upstream.Timeout = ParseDuration("STREAMGATE_UPSTREAM_TIMEOUT", c.Upstream.Timeout)
	c.Upstream.MaxRetries = ParseInt("STREAMGATE_UPSTREAM_MAX_RETRIES", c.Upstream.MaxRetries)
	c.Upstream.InitialDelay = ParseDuration("STREAMGATE_UPSTREAM_INITIAL_DELAY", c.Upstream.InitialDelay)
	c.Upstream.BreakerThreshold = ParseInt("STREAMGATE_BREAKER_THRESHOLD", c.Upstream.BreakerThreshold)
	c.Upstream.BreakerResetTimeout = ParseDuration("STREAMGATE_BREAKER_RESET_TIMEOUT", c.Upstream.BreakerResetTimeout)

	c.Cache.Backend = ParseString("STREAMGATE_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisAddr = ParseString("STREAMGATE_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.TTL = ParseDuration("STREAMGATE_CACHE_TTL", c.Cache.TTL)

	c.Progress.Backend = ParseString("STREAMGATE_PROGRESS_BACKEND", c.Progress.Backend)
	c.Progress.Path = ParseString("STREAMGATE_PROGRESS_PATH", c.Progress.Path)

	c.Proxy.RequestsPerMinute = ParseInt("STREAMGATE_PROXY_RPM", c.Proxy.RequestsPerMinute)
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("config: upstream.baseUrl required (STREAMGATE_UPSTREAM_URL)")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("config: upstream.timeout must be positive")
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("config: upstream.maxRetries must not be negative")
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("config: cache.redisAddr required for redis backend")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Progress.Backend {
	case "memory":
	case "file", "badger":
		if c.Progress.Path == "" {
			return fmt.Errorf("config: progress.path required for %s backend", c.Progress.Backend)
		}
	default:
		return fmt.Errorf("config: unknown progress backend %q", c.Progress.Backend)
	}

	if c.Proxy.RequestsPerMinute <= 0 {
		return fmt.Errorf("config: proxy.requestsPerMinute must be positive")
	}
	return nil
}

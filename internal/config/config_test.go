// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithUpstreamFromEnv(t *testing.T) {
	t.Setenv("STREAMGATE_UPSTREAM_URL", "https://aggregator.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "https://aggregator.example", cfg.Upstream.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 3, cfg.Upstream.MaxRetries)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Progress.Backend)
	assert.Equal(t, 300, cfg.Proxy.RequestsPerMinute)
}

func TestLoadFailsWithoutUpstream(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream.baseUrl")
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := t.TempDir() + "/streamgate.yaml"
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
logLevel: debug
upstream:
  baseUrl: https://aggregator.example
  partnerDomain: partner.example
  timeout: 10s
cache:
  backend: redis
  redisAddr: localhost:6379
  ttl: 5m
progress:
  backend: file
  path: /var/lib/streamgate/progress.json
`), 0o600))

	t.Setenv("STREAMGATE_LISTEN", ":7070")
	t.Setenv("STREAMGATE_CACHE_TTL", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen, "env wins over file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "partner.example", cfg.Upstream.PartnerDomain)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "file", cfg.Progress.Backend)
}

func TestValidateRejectsBadBackends(t *testing.T) {
	cfg := Default()
	cfg.Upstream.BaseURL = "https://aggregator.example"

	cfg.Cache.Backend = "redis"
	assert.ErrorContains(t, cfg.Validate(), "redisAddr")

	cfg.Cache.Backend = "memcached"
	assert.ErrorContains(t, cfg.Validate(), "unknown cache backend")

	cfg = Default()
	cfg.Upstream.BaseURL = "https://aggregator.example"
	cfg.Progress.Backend = "badger"
	assert.ErrorContains(t, cfg.Validate(), "progress.path")
}

func TestParseHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("STREAMGATE_TEST_INT", "not-a-number")
	t.Setenv("STREAMGATE_TEST_DUR", "soon")
	t.Setenv("STREAMGATE_TEST_BOOL", "maybe")

	assert.Equal(t, 42, ParseInt("STREAMGATE_TEST_INT", 42))
	assert.Equal(t, time.Minute, ParseDuration("STREAMGATE_TEST_DUR", time.Minute))
	assert.True(t, ParseBool("STREAMGATE_TEST_BOOL", true))
	assert.Equal(t, "fallback", ParseString("STREAMGATE_TEST_MISSING", "fallback"))
}

// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/streamgate/streamgate/internal/log"
)

// ParseString reads a string environment variable, falling back to the
// default when unset or empty.
func ParseString(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultValue
}

// ParseInt reads an integer environment variable. Unparseable values fall
// back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).Str("value", v).Int("default", defaultValue).
			Msg("invalid integer, using default")
		return defaultValue
	}
	return i
}

// ParseBool reads a boolean environment variable (strconv syntax).
func ParseBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).Str("value", v).Bool("default", defaultValue).
			Msg("invalid boolean, using default")
		return defaultValue
	}
	return b
}

// ParseDuration reads a duration environment variable ("30s", "2m").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).Str("value", v).Dur("default", defaultValue).
			Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}

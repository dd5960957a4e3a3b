// SPDX-License-Identifier: MIT

package hls

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
)

// Variant is one #EXT-X-STREAM-INF entry of a master playlist.
type Variant struct {
	Bandwidth  int
	Codecs     string
	VideoRange string // SDR, PQ or HLG when declared
	Resolution string
	URI        string
}

// IsHDR reports whether the variant advertises a high-dynamic-range transfer
// function or a Dolby Vision codec.
func (v Variant) IsHDR() bool {
	switch strings.ToUpper(v.VideoRange) {
	case "PQ", "HLG":
		return true
	}
	for _, codec := range strings.Split(v.Codecs, ",") {
		codec = strings.TrimSpace(strings.ToLower(codec))
		if strings.HasPrefix(codec, "dvh1") || strings.HasPrefix(codec, "dvhe") {
			return true
		}
	}
	return false
}

// ParseVariants extracts the variant entries of a master playlist. Media
// playlists (no #EXT-X-STREAM-INF tags) yield an empty slice.
func ParseVariants(manifest string) []Variant {
	var out []Variant
	var pending *Variant

	scanner := bufio.NewScanner(strings.NewReader(manifest))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			v := parseStreamInf(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			pending = &v
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if pending != nil {
			pending.URI = line
			out = append(out, *pending)
			pending = nil
		}
	}
	return out
}

// HDRVariants filters to HDR-tagged variants, highest bandwidth first.
func HDRVariants(variants []Variant) []Variant {
	var out []Variant
	for _, v := range variants {
		if v.IsHDR() {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bandwidth > out[j].Bandwidth })
	return out
}

// parseStreamInf parses the attribute list of a STREAM-INF tag. Attribute
// values may be quoted and contain commas (CODECS does).
func parseStreamInf(attrs string) Variant {
	var v Variant
	for _, kv := range splitAttributes(attrs) {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "BANDWIDTH":
			if n, err := strconv.Atoi(value); err == nil {
				v.Bandwidth = n
			}
		case "CODECS":
			v.Codecs = value
		case "VIDEO-RANGE":
			v.VideoRange = value
		case "RESOLUTION":
			v.Resolution = value
		}
	}
	return v
}

// splitAttributes splits on commas that are not inside quoted values.
func splitAttributes(attrs string) []string {
	var out []string
	var b strings.Builder
	inQuotes := false
	for _, r := range attrs {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ',' && !inQuotes:
			out = append(out, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// SPDX-License-Identifier: MIT

// Package hls rewrites adaptive-streaming playlists so every URI they
// reference is fetched through the gateway's own origin, and parses variant
// metadata used for HDR level selection.
package hls

import (
	"bufio"
	"net/url"
	"strings"
)

// LineKind classifies a playlist line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineURI
)

// ManifestLine is one classified playlist line. Rewritten is only set for URI
// lines.
type ManifestLine struct {
	Kind      LineKind
	Raw       string
	Rewritten string
}

// Classify returns the kind of a single playlist line.
func Classify(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return LineBlank
	case strings.HasPrefix(trimmed, "#"):
		return LineComment
	default:
		return LineURI
	}
}

// RewriteLines classifies every line of a manifest and computes the proxied
// replacement for URI lines. Relative URIs are resolved against base (the
// manifest's own URL); absolute URIs are only query-escaped. Tag and blank
// lines pass through verbatim.
func RewriteLines(manifest string, base *url.URL, proxyPath string) []ManifestLine {
	var out []ManifestLine
	scanner := bufio.NewScanner(strings.NewReader(manifest))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		raw := scanner.Text()
		line := ManifestLine{Kind: Classify(raw), Raw: raw}
		if line.Kind == LineURI {
			line.Rewritten = proxyPath + "?url=" + url.QueryEscape(absoluteURI(strings.TrimSpace(raw), base))
		}
		out = append(out, line)
	}
	return out
}

// Rewrite returns the proxied form of a whole manifest.
func Rewrite(manifest string, base *url.URL, proxyPath string) (string, int) {
	lines := RewriteLines(manifest, base, proxyPath)
	var b strings.Builder
	b.Grow(len(manifest) + len(lines)*len(proxyPath))

	rewritten := 0
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line.Kind == LineURI {
			b.WriteString(line.Rewritten)
			rewritten++
			continue
		}
		b.WriteString(line.Raw)
	}
	if strings.HasSuffix(manifest, "\n") {
		b.WriteByte('\n')
	}
	return b.String(), rewritten
}

// absoluteURI resolves uri against the manifest base when it is not already
// absolute.
func absoluteURI(uri string, base *url.URL) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	if parsed.IsAbs() {
		return uri
	}
	if base == nil {
		return uri
	}
	return base.ResolveReference(parsed).String()
}

// IsManifestPath reports whether a request path looks like a playlist.
func IsManifestPath(p string) bool {
	p = strings.ToLower(p)
	return strings.HasSuffix(p, ".m3u8") || strings.HasSuffix(p, ".m3u")
}

// IsManifestContentType reports whether an upstream content type denotes a
// playlist.
func IsManifestContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "mpegurl") || strings.Contains(ct, "application/x-mpegurl")
}

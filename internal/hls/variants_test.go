// SPDX-License-Identifier: MIT

package hls

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720,CODECS="avc1.64001f,mp4a.40.2"
720p/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=8000000,RESOLUTION=3840x2160,CODECS="hvc1.2.4.L153.B0,mp4a.40.2",VIDEO-RANGE=PQ
2160p-hdr/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,CODECS="dvh1.05.06,mp4a.40.2"
1080p-dv/index.m3u8
`

func TestParseVariants(t *testing.T) {
	variants := ParseVariants(masterPlaylist)
	require.Len(t, variants, 3)

	assert.Equal(t, 2500000, variants[0].Bandwidth)
	assert.Equal(t, "1280x720", variants[0].Resolution)
	assert.Equal(t, "avc1.64001f,mp4a.40.2", variants[0].Codecs, "quoted comma inside CODECS must survive")
	assert.Equal(t, "720p/index.m3u8", variants[0].URI)

	assert.Equal(t, "PQ", variants[1].VideoRange)
	assert.Equal(t, "2160p-hdr/index.m3u8", variants[1].URI)
}

func TestHDRVariantsSortedByBandwidth(t *testing.T) {
	hdr := HDRVariants(ParseVariants(masterPlaylist))
	require.Len(t, hdr, 2)
	assert.Equal(t, "2160p-hdr/index.m3u8", hdr[0].URI, "highest bandwidth HDR level first")
	assert.Equal(t, "1080p-dv/index.m3u8", hdr[1].URI)
}

func TestIsHDR(t *testing.T) {
	assert.True(t, Variant{VideoRange: "PQ"}.IsHDR())
	assert.True(t, Variant{VideoRange: "hlg"}.IsHDR())
	assert.True(t, Variant{Codecs: "dvhe.08.07"}.IsHDR())
	assert.False(t, Variant{VideoRange: "SDR", Codecs: "avc1.64001f"}.IsHDR())
}

func TestParseVariantsMediaPlaylist(t *testing.T) {
	media := strings.Join([]string{"#EXTM3U", "#EXTINF:4,", "seg0.ts"}, "\n")
	assert.Empty(t, ParseVariants(media))
}

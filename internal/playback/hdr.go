// SPDX-License-Identifier: MIT

package playback

import (
	"github.com/streamgate/streamgate/internal/hls"
	"github.com/streamgate/streamgate/internal/log"
	"github.com/streamgate/streamgate/internal/resolver"
)

// hdrPreferred reports whether the display can render HDR. The probe runs at
// most once per engine; later source switches reuse the cached answer.
func (e *Engine) hdrPreferred() bool {
	e.hdrOnce.Do(func() {
		if e.cfg.HDRProbe == nil {
			return
		}
		supported, err := e.cfg.HDRProbe(e.ctx)
		if err != nil {
			e.lg.Debug().Err(err).Msg("hdr probe failed, staying on SDR")
			return
		}
		e.hdrSupported = supported
	})
	return e.hdrSupported
}

// applyHDRPreference pins the client to the highest-bandwidth HDR variant of
// the master playlist when the display supports it. Manifests without HDR
// variants leave adaptive selection untouched.
func (e *Engine) applyHDRPreference(client MediaClient, src resolver.StreamSource) {
	if e.cfg.FetchManifest == nil || !e.hdrPreferred() {
		return
	}
	manifest, err := e.cfg.FetchManifest(e.ctx, src.URL)
	if err != nil {
		e.lg.Debug().Err(err).Str(log.FieldURL, src.URL).Msg("manifest fetch for hdr selection failed")
		return
	}
	candidates := hls.HDRVariants(hls.ParseVariants(manifest))
	if len(candidates) == 0 {
		return
	}
	best := candidates[0]
	e.lg.Info().
		Int("bandwidth", best.Bandwidth).
		Str("video_range", best.VideoRange).
		Msg("pinning hdr variant")
	client.SelectVariant(best)
}

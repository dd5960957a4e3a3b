// SPDX-License-Identifier: MIT

package playback

import (
	"time"

	"github.com/streamgate/streamgate/internal/progress"
)

// checkpointLoop periodically checkpoints the watch position while playing.
func (e *Engine) checkpointLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.maybeCheckpoint()
		}
	}
}

// maybeCheckpoint saves a progress entry when all gates pass: the session is
// playing, the checkpoint interval has elapsed since the last save or source
// switch, and at least one second of media has played. Positions in the
// finished band are rejected by the store itself.
func (e *Engine) maybeCheckpoint() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.state != StatePlaying || e.client == nil || e.cfg.Progress == nil {
		return
	}
	now := e.clock()
	if now.Sub(e.lastCheckpoint) < checkpointInterval {
		return
	}
	pos := e.client.Position()
	dur := e.client.Duration()
	if pos < minPlayedSeconds || dur <= 0 {
		return
	}
	e.lastCheckpoint = now

	saved := e.cfg.Progress.Save(progress.WatchProgress{
		Key:             e.cfg.Identity,
		PositionSeconds: pos,
		DurationSeconds: dur,
		Percent:         pos / dur * 100,
		LastWatched:     now,
	})
	if saved {
		e.lg.Debug().Float64("position_seconds", pos).Msg("progress checkpoint")
	}
}

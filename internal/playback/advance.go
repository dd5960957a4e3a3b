// SPDX-License-Identifier: MIT

package playback

import (
	"sync"
	"time"
)

const (
	// advanceLimit is the number of consecutive auto-advances allowed before
	// the next one requires explicit confirmation.
	advanceLimit = 4
	// advanceWindow is the inactivity window after which the consecutive
	// counter starts over.
	advanceWindow = 30 * time.Minute
)

type advanceRun struct {
	count int
	last  time.Time
}

// AdvanceGate tracks consecutive episode auto-advances per show so binge
// sessions eventually get an "are you still watching" prompt. Safe for
// concurrent use.
type AdvanceGate struct {
	mu   sync.Mutex
	now  func() time.Time
	runs map[string]*advanceRun
}

// NewAdvanceGate returns an empty gate.
func NewAdvanceGate() *AdvanceGate {
	return &AdvanceGate{
		now:  time.Now,
		runs: make(map[string]*advanceRun),
	}
}

// ShouldConfirm reports whether the next auto-advance for the show needs
// explicit viewer confirmation.
func (g *AdvanceGate) ShouldConfirm(showID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	run, ok := g.runs[showID]
	if !ok {
		return false
	}
	if g.now().Sub(run.last) > advanceWindow {
		delete(g.runs, showID)
		return false
	}
	return run.count >= advanceLimit
}

// RecordAdvance counts one auto-advance. A gap longer than the inactivity
// window restarts the run.
func (g *AdvanceGate) RecordAdvance(showID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	run, ok := g.runs[showID]
	if !ok || now.Sub(run.last) > advanceWindow {
		run = &advanceRun{}
		g.runs[showID] = run
	}
	run.count++
	run.last = now
}

// Reset clears the run after explicit viewer interaction, confirmation
// included.
func (g *AdvanceGate) Reset(showID string) {
	g.mu.Lock()
	delete(g.runs, showID)
	g.mu.Unlock()
}

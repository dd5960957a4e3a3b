// SPDX-License-Identifier: MIT

// Package progress persists watch-position checkpoints so playback can resume
// where the viewer left off.
package progress

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/streamgate/streamgate/internal/metrics"
)

const (
	// maxEntries bounds the store to the most recent distinct keys.
	maxEntries = 50
	// continueWatchingCap bounds the continue-watching shelf.
	continueWatchingCap = 20

	// finishedPercent marks content as finished; checkpoints at or above it
	// are intentionally never stored so resuming cannot land seconds from
	// the end.
	finishedPercent = 90.0
)

// Kind mirrors the resolver content kinds without importing them.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// Key identifies one progress slot. Season and Episode are zero for movies.
type Key struct {
	ContentID string `json:"contentId"`
	Kind      Kind   `json:"kind"`
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
}

// String renders the key in its stable serialized form, also used by the
// durable backends.
func (k Key) String() string {
	if k.Kind == KindEpisode {
		return fmt.Sprintf("%s|%s|%d|%d", k.Kind, k.ContentID, k.Season, k.Episode)
	}
	return string(k.Kind) + "|" + k.ContentID
}

// WatchProgress is one persisted checkpoint.
type WatchProgress struct {
	Key
	PositionSeconds float64   `json:"positionSeconds"`
	DurationSeconds float64   `json:"durationSeconds"`
	Percent         float64   `json:"percent"`
	LastWatched     time.Time `json:"lastWatched"`
}

// Store is a bounded, most-recently-used progress store. All methods are safe
// for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*list.Element // value: *WatchProgress
	order   *list.List            // front = most recently watched
	backend Backend
	now     func() time.Time
}

// NewStore creates a store over the given backend (nil = memory only) and
// loads whatever the backend already holds.
func NewStore(backend Backend) (*Store, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		entries: make(map[Key]*list.Element),
		order:   list.New(),
		backend: backend,
		now:     time.Now,
	}

	loaded, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("progress: load backend: %w", err)
	}
	// Oldest first so list insertion leaves the most recent at the front.
	for i := len(loaded) - 1; i >= 0; i-- {
		p := loaded[i]
		s.insert(p)
	}
	return s, nil
}

// Save stores a checkpoint, overwriting any entry with the same key and
// bumping its recency. Checkpoints outside percent (0,90) are rejected.
func (s *Store) Save(p WatchProgress) bool {
	if p.Percent <= 0 || p.Percent >= finishedPercent {
		metrics.IncProgressSave(false)
		return false
	}
	if p.LastWatched.IsZero() {
		p.LastWatched = s.now()
	}

	s.mu.Lock()
	evicted := s.insert(p)
	s.mu.Unlock()

	_ = s.backend.Put(p)
	if evicted != nil {
		_ = s.backend.Remove(evicted.Key)
	}
	metrics.IncProgressSave(true)
	return true
}

// insert adds or refreshes an entry and returns the evicted entry, if any.
// Caller holds the lock (or is still single-goroutine during construction).
func (s *Store) insert(p WatchProgress) *WatchProgress {
	if el, ok := s.entries[p.Key]; ok {
		*el.Value.(*WatchProgress) = p
		s.order.MoveToFront(el)
		return nil
	}
	s.entries[p.Key] = s.order.PushFront(&p)
	if s.order.Len() <= maxEntries {
		return nil
	}
	oldest := s.order.Back()
	s.order.Remove(oldest)
	victim := oldest.Value.(*WatchProgress)
	delete(s.entries, victim.Key)
	return victim
}

// Get returns the checkpoint for a key.
func (s *Store) Get(k Key) (WatchProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[k]
	if !ok {
		return WatchProgress{}, false
	}
	return *el.Value.(*WatchProgress), true
}

// Delete removes the checkpoint for a key.
func (s *Store) Delete(k Key) {
	s.mu.Lock()
	el, ok := s.entries[k]
	if ok {
		s.order.Remove(el)
		delete(s.entries, k)
	}
	s.mu.Unlock()

	if ok {
		_ = s.backend.Remove(k)
	}
}

// List returns all checkpoints, most recent first.
func (s *Store) List() []WatchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WatchProgress, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*WatchProgress))
	}
	return out
}

// ContinueWatching returns the in-progress subset (percent strictly inside
// (0,90)), most recent first, capped to 20 entries.
func (s *Store) ContinueWatching() []WatchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WatchProgress, 0, continueWatchingCap)
	for el := s.order.Front(); el != nil && len(out) < continueWatchingCap; el = el.Next() {
		p := *el.Value.(*WatchProgress)
		if p.Percent > 0 && p.Percent < finishedPercent {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of stored checkpoints.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

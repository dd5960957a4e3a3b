// SPDX-License-Identifier: MIT

package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
)

// Backend is the durable side of the Store. Load returns entries most recent
// first; Put and Remove mirror Store mutations.
type Backend interface {
	Load() ([]WatchProgress, error)
	Put(p WatchProgress) error
	Remove(k Key) error
	Close() error
}

// memoryBackend keeps nothing; the Store's own map is the only copy.
type memoryBackend struct{}

// NewMemoryBackend returns a volatile backend.
func NewMemoryBackend() Backend {
	return memoryBackend{}
}

func (memoryBackend) Load() ([]WatchProgress, error) { return nil, nil }
func (memoryBackend) Put(WatchProgress) error        { return nil }
func (memoryBackend) Remove(Key) error               { return nil }
func (memoryBackend) Close() error                   { return nil }

// fileBackend snapshots the full entry set to a JSON file on every mutation,
// written atomically so a crash never leaves a torn file.
type fileBackend struct {
	mu      sync.Mutex
	path    string
	entries map[Key]WatchProgress
}

// NewFileBackend returns a backend persisting to the given JSON file.
func NewFileBackend(path string) Backend {
	return &fileBackend{
		path:    path,
		entries: make(map[Key]WatchProgress),
	}
}

func (b *fileBackend) Load() ([]WatchProgress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []WatchProgress
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("progress file %s: %w", b.path, err)
	}
	for _, p := range entries {
		b.entries[p.Key] = p
	}
	return sortedByRecency(entries), nil
}

func (b *fileBackend) Put(p WatchProgress) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[p.Key] = p
	return b.flush()
}

func (b *fileBackend) Remove(k Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, k)
	return b.flush()
}

func (b *fileBackend) Close() error { return nil }

// flush writes the snapshot; caller holds the lock.
func (b *fileBackend) flush() error {
	entries := make([]WatchProgress, 0, len(b.entries))
	for _, p := range b.entries {
		entries = append(entries, p)
	}
	raw, err := json.MarshalIndent(sortedByRecency(entries), "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(b.path, raw, 0o600)
}

func sortedByRecency(entries []WatchProgress) []WatchProgress {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastWatched.After(entries[j].LastWatched)
	})
	return entries
}

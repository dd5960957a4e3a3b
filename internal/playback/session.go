// SPDX-License-Identifier: MIT

package playback

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streamgate/streamgate/internal/resolver"
)

// Session is one tracked playback session. It implements Observer so the
// registry view follows the engine state machine.
type Session struct {
	ID        string
	ContentID string
	Kind      resolver.Kind
	ClientIP  string
	UserAgent string
	StartedAt time.Time

	mu          sync.Mutex
	state       State
	sourceIndex int
	lastEvent   time.Time
}

// StateChanged implements Observer.
func (s *Session) StateChanged(_, to State, sourceIndex int) {
	s.mu.Lock()
	s.state = to
	s.sourceIndex = sourceIndex
	s.lastEvent = time.Now()
	s.mu.Unlock()
}

// SessionInfo is the wire representation of a session.
type SessionInfo struct {
	ID          string        `json:"id"`
	ContentID   string        `json:"contentId"`
	Kind        resolver.Kind `json:"kind"`
	ClientIP    string        `json:"clientIp"`
	UserAgent   string        `json:"userAgent,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	State       State         `json:"state"`
	SourceIndex int           `json:"sourceIndex"`
	LastEvent   time.Time     `json:"lastEvent"`
}

// Snapshot returns a point-in-time copy of the session.
func (s *Session) Snapshot() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:          s.ID,
		ContentID:   s.ContentID,
		Kind:        s.Kind,
		ClientIP:    s.ClientIP,
		UserAgent:   s.UserAgent,
		StartedAt:   s.StartedAt,
		State:       s.state,
		SourceIndex: s.sourceIndex,
		LastEvent:   s.lastEvent,
	}
}

// Registry tracks active playback sessions for the operational API.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session and returns it.
func (r *Registry) Create(contentID string, kind resolver.Kind, clientIP, userAgent string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		ContentID: contentID,
		Kind:      kind,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		StartedAt: time.Now(),
		state:     StateIdle,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get looks a session up by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns all sessions, oldest first.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

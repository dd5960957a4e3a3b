// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"

	"github.com/streamgate/streamgate/internal/playback"
	"github.com/streamgate/streamgate/internal/progress"
	"github.com/streamgate/streamgate/internal/resolver"
)

// resolveResponse is the resolver result plus an optional error message.
type resolveResponse struct {
	resolver.Result
	Error string `json:"error,omitempty"`
}

// handleResolve serves GET /resolve?type={movie|tv}&id=&season=&episode=.
// Failed resolves still answer with the full envelope so clients can always
// read success/streams/captions.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := q.Get("type")
	id := q.Get("id")
	if typ == "" || id == "" {
		writeError(w, http.StatusBadRequest, "type and id are required")
		return
	}

	var req resolver.Request
	switch typ {
	case "movie":
		req = resolver.Request{Kind: resolver.KindMovie, ID: id}
	case "tv":
		season, serr := strconv.Atoi(q.Get("season"))
		episode, eerr := strconv.Atoi(q.Get("episode"))
		if serr != nil || eerr != nil || season < 0 || episode < 0 {
			writeError(w, http.StatusBadRequest, "season and episode are required for tv")
			return
		}
		req = resolver.Request{Kind: resolver.KindEpisode, ID: id, Season: season, Episode: episode}
	default:
		writeError(w, http.StatusBadRequest, "type must be movie or tv")
		return
	}

	result, err := s.resolver.Resolve(r.Context(), req)
	if err != nil {
		writeJSON(w, resolver.StatusFor(err), resolveResponse{Result: result, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Result: result})
}

// handleSessions lists active playback sessions.
func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	infos := []playback.SessionInfo{}
	if s.sessions != nil {
		infos = s.sessions.Snapshot()
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleContinueWatching serves the in-progress shelf, most recent first.
func (s *Server) handleContinueWatching(w http.ResponseWriter, _ *http.Request) {
	entries := []progress.WatchProgress{}
	if s.progress != nil {
		entries = s.progress.ContinueWatching()
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skyready/logbook-sync/internal/common"
	"github.com/skyready/logbook-sync/internal/server/models"
	"github.com/skyready/logbook-sync/internal/server/services"
)

// Wire shapes. Timestamps are epoch milliseconds; the cursor is an opaque
// numeric-offset string.

type pullRequest struct {
	LastPulledAt int64  `json:"lastPulledAt"`
	Cursor       string `json:"cursor"`
	Limit        int    `json:"limit,omitempty"`
}

// Pull responses return full entries in both created and updated, unlike
// the push request whose updated branch is id+data pairs.
type pullEntryChanges struct {
	Created []models.Entry `json:"created"`
	Updated []models.Entry `json:"updated"`
	Deleted []string       `json:"deleted"`
}

type pullChanges struct {
	LogbookEntries pullEntryChanges `json:"logbookEntries"`
}

type pullResponse struct {
	Changes   pullChanges `json:"changes"`
	Cursor    string      `json:"cursor"`
	HasMore   bool        `json:"hasMore"`
	Timestamp int64       `json:"timestamp"`
}

type pushRequest struct {
	LastPulledAt int64            `json:"lastPulledAt"`
	Changes      models.ChangeSet `json:"changes"`
}

type pushResponse struct {
	Timestamp int64             `json:"timestamp"`
	Conflicts []models.Conflict `json:"conflicts"`
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	result, err := s.pulls.Pull(r.Context(), UserID(r.Context()), services.PullRequest{
		LastPulledAt: req.LastPulledAt,
		Cursor:       req.Cursor,
		Limit:        req.Limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := pullResponse{
		Cursor:    result.Cursor,
		HasMore:   result.HasMore,
		Timestamp: result.Timestamp,
	}
	resp.Changes.LogbookEntries.Created = derefEntries(result.Created)
	resp.Changes.LogbookEntries.Updated = derefEntries(result.Updated)
	resp.Changes.LogbookEntries.Deleted = result.Deleted

	s.writeJSON(w, r, resp)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	result, err := s.pushes.Push(r.Context(), UserID(r.Context()), services.PushRequest{
		LastPulledAt: req.LastPulledAt,
		Changes:      req.Changes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, pushResponse{
		Timestamp: result.Timestamp,
		Conflicts: result.Conflicts,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), "response encode failed", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func derefEntries(in []*models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, *e)
	}
	return out
}

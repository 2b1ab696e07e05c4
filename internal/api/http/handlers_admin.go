package apihttp

import (
	"context"
	"encoding/json"
	"net/http"

	"reelstream/internal/domain"
)

func (s *Server) handleUpdateTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	var cfg domain.TrendingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
		return
	}
	if err := s.configs.SaveTrending(r.Context(), cfg); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	s.handleRecordMutation(w, r, "/api/v1/updateMovie/", s.movies.Update, s.movies.Delete)
}

func (s *Server) handleUpdateShow(w http.ResponseWriter, r *http.Request) {
	s.handleRecordMutation(w, r, "/api/v1/updateShow/", s.shows.Update, s.shows.Delete)
}

// handleRecordMutation serves PUT (partial field update) and DELETE for
// a catalog record. The update body is an arbitrary field map applied
// with set semantics; ids and quality arrays are not updatable here.
func (s *Server) handleRecordMutation(
	w http.ResponseWriter,
	r *http.Request,
	prefix string,
	update func(ctx context.Context, id int, fields map[string]any) error,
	remove func(ctx context.Context, id int) (int64, error),
) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, ok := numericTail(r.URL.Path, prefix)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "record id must be numeric")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
			return
		}
		for _, locked := range []string{"mid", "sid", "quality", "seasons"} {
			delete(fields, locked)
		}
		if len(fields) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "no updatable fields in body")
			return
		}
		if err := update(r.Context(), id, fields); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})

	case http.MethodDelete:
		count, err := remove(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		status := "success"
		if count == 0 {
			status = "not_found"
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": status, "deleted_count": count})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

package apihttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"reelstream/internal/domain"
)

type userListResponse struct {
	Results      []domain.UserRecord `json:"results"`
	TotalCount   int64               `json:"total_count"`
	Page         int64               `json:"page"`
	ItemsPerPage int64               `json:"items_per_page"`
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	page, err := parsePositiveQuery(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	perPage, err := parsePositiveQuery(r, "items_per_page", defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	users, total, err := s.users.List(r.Context(), (page-1)*perPage, perPage)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userListResponse{
		Results:      users,
		TotalCount:   total,
		Page:         page,
		ItemsPerPage: perPage,
	})
}

func (s *Server) handleUserSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < minSearchQueryLen {
		writeError(w, http.StatusBadRequest, "invalid_request", "query must be at least 2 characters")
		return
	}

	users, err := s.users.Search(r.Context(), query, maxSearchLimit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": users})
}

// userUpdateFields is the mutable subset of a user record. Pointer
// fields distinguish "absent" from zero values.
type userUpdateFields struct {
	StreamLimitDays *int  `json:"slimit"`
	IsActive        *bool `json:"is_active"`
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	tail, ok := pathTail(r.URL.Path, "/api/v1/users/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}
	userID, err := strconv.ParseInt(tail, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "user id must be numeric")
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.users.Get(r.Context(), userID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPut:
		var req userUpdateFields
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
			return
		}
		fields := make(map[string]any)
		if req.StreamLimitDays != nil {
			fields["slimit"] = *req.StreamLimitDays
		}
		if req.IsActive != nil {
			fields["is_active"] = *req.IsActive
		}
		if len(fields) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "no updatable fields in body")
			return
		}
		if err := s.users.Update(r.Context(), userID, fields); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})

	case http.MethodDelete:
		count, err := s.users.Delete(r.Context(), userID)
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

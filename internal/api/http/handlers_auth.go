package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"reelstream/internal/services/token"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleLogin serves POST /api/v1/login with form fields username and
// password, issuing an admin token on success.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	signed, err := s.tokens.Login(username, password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: signed, TokenType: "bearer"})
}

// handleAuthCheck validates the admin token carried in the Authorization
// header or the token query parameter.
func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	claims, err := s.tokens.VerifyAdmin(token.FromRequest(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"username": claims.Subject,
	})
}

type checkUserRequest struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

// handleCheckUser is the bot-facing variant of auth-check: the admin
// token travels in the JSON body, and the referenced user must exist.
func (s *Server) handleCheckUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var req checkUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
		return
	}
	if _, err := s.tokens.VerifyAdmin(req.Token); err != nil {
		writeAuthError(w, err)
		return
	}

	user, err := s.users.Get(r.Context(), req.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// requireAdmin gates a handler on a valid admin token. Returns false
// after writing the 401 response.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, err := s.tokens.VerifyAdmin(token.FromRequest(r)); err != nil {
		writeAuthError(w, err)
		return false
	}
	return true
}

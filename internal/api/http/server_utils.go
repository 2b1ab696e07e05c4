package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"reelstream/internal/domain"
	"reelstream/internal/services/token"
	"reelstream/internal/usecase"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, "auth_error", "token expired")
	case errors.Is(err, token.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "auth_error", "bad credentials")
	default:
		writeError(w, http.StatusUnauthorized, "auth_error", "invalid token")
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "record not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "repository_error", err.Error())
}

// writeStreamError maps stream resolution failures. A hash mismatch is
// reported as not_found so the response never confirms the file exists.
func writeStreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrHashMismatch):
		writeError(w, http.StatusNotFound, "not_found", "file not found")
	case errors.Is(err, usecase.ErrInvalidQualityIndex):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid quality index")
	case errors.Is(err, usecase.ErrUpstream):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", "upstream unavailable")
	case errors.Is(err, usecase.ErrRepository):
		writeError(w, http.StatusInternalServerError, "repository_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// pathTail returns the path segment after prefix, rejecting nested paths.
func pathTail(path, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func parseMediaType(value string) (domain.MediaType, bool) {
	switch domain.MediaType(value) {
	case domain.MediaMovie:
		return domain.MediaMovie, true
	case domain.MediaShow:
		return domain.MediaShow, true
	default:
		return "", false
	}
}

func parsePositiveQuery(r *http.Request, key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

var (
	errInvalidRange        = errors.New("invalid range")
	errRangeNotSatisfiable = errors.New("range not satisfiable")
)

// parseByteRange parses a "bytes=FROM-UNTIL" header against a known file
// size. A missing UNTIL means the end of the file; a window reaching past
// the last byte is not clamped but rejected as unsatisfiable.
func parseByteRange(value string, size int64) (int64, int64, error) {
	if size <= 0 {
		return 0, 0, errRangeNotSatisfiable
	}

	value = strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToLower(value), "bytes=") {
		return 0, 0, errInvalidRange
	}

	spec := strings.TrimSpace(value[len("bytes="):])
	if spec == "" || strings.Contains(spec, ",") {
		return 0, 0, errInvalidRange
	}

	startStr, endStr, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, errInvalidRange
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		if endStr == "" {
			return 0, 0, errInvalidRange
		}
		suffix, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || suffix <= 0 {
			return 0, 0, errInvalidRange
		}
		if suffix > size {
			suffix = size
		}
		return size - suffix, size - 1, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errInvalidRange
	}
	if start >= size {
		return 0, 0, errRangeNotSatisfiable
	}

	if endStr == "" {
		return start, size - 1, nil
	}

	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < 0 {
		return 0, 0, errInvalidRange
	}
	if end < start || end >= size {
		return 0, 0, errRangeNotSatisfiable
	}
	return start, end, nil
}

func contentTypeFor(loc domain.FileLocator, filename string) string {
	if loc.MimeType != "" {
		return loc.MimeType
	}
	return fallbackContentType(strings.ToLower(filepath.Ext(filename)))
}

func fallbackContentType(ext string) string {
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".m4v":
		return "video/x-m4v"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

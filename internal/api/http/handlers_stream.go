package apihttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"reelstream/internal/domain"
	"reelstream/internal/metrics"
	"reelstream/internal/services/stream"
	"reelstream/internal/services/token"
	"reelstream/internal/usecase"
)

// handleDownload serves GET /api/v1/dl/{id}. The stream token must be
// issued for the path id; its claims carry the content coordinates, so
// the URL itself exposes nothing beyond an opaque numeric id.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	id, ok := pathTail(r.URL.Path, "/api/v1/dl/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing content id")
		return
	}

	claims, err := s.tokens.VerifyStreamFor(token.FromRequest(r), id)
	if err != nil {
		metrics.StreamRequestsTotal.WithLabelValues("unauthorized").Inc()
		writeAuthError(w, err)
		return
	}

	contentID, err := strconv.Atoi(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "content id must be numeric")
		return
	}

	streamer, release, err := s.fleet.Acquire()
	if err != nil {
		metrics.StreamRequestsTotal.WithLabelValues("no_workers").Inc()
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", "no worker slots available")
		return
	}

	req := usecase.StreamRequest{
		ID:           contentID,
		MediaType:    domain.MediaType(claims.MediaType),
		QualityIndex: claims.QualityIndex,
	}
	if claims.SeasonNumber != nil {
		req.Season = *claims.SeasonNumber
	}
	if claims.EpisodeNumber != nil {
		req.Episode = *claims.EpisodeNumber
	}

	src, err := s.streamVideo.Execute(r.Context(), req, streamer)
	if err != nil {
		release()
		metrics.StreamRequestsTotal.WithLabelValues("rejected").Inc()
		writeStreamError(w, err)
		return
	}

	size := src.Locator.FileSize
	from, until := int64(0), size-1
	status := http.StatusOK

	if header := r.Header.Get("Range"); header != "" {
		from, until, err = parseByteRange(header, size)
		switch {
		case errors.Is(err, errRangeNotSatisfiable):
			release()
			metrics.StreamRequestsTotal.WithLabelValues("unsatisfiable").Inc()
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			writeError(w, http.StatusRequestedRangeNotSatisfiable, "range_not_satisfiable", "requested range not satisfiable")
			return
		case err != nil:
			release()
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed range header")
			return
		}
		status = http.StatusPartialContent
	}

	filename := usecase.DownloadFileName(src.Locator)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentTypeFor(src.Locator, filename))
	w.Header().Set("Content-Length", strconv.FormatInt(until-from+1, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if status == http.StatusPartialContent {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", from, until, size))
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		release()
		return
	}

	plan := stream.BuildPlan(size, from, until)
	if err := streamer.StreamRange(r.Context(), src.Locator, plan, flushWriter{w}, release); err != nil {
		// Headers are gone; a disconnect or upstream failure can only
		// be logged and counted.
		metrics.StreamRequestsTotal.WithLabelValues("aborted").Inc()
		s.logger.Warn("stream aborted",
			"id", contentID,
			"from", from,
			"until", until,
			"error", err,
		)
		return
	}
	metrics.StreamRequestsTotal.WithLabelValues("ok").Inc()
}

// flushWriter flushes after every chunk so playback starts before the
// response completes.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw flushWriter) Write(b []byte) (int, error) {
	n, err := fw.w.Write(b)
	if f, ok := fw.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

package apihttp

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"reelstream/internal/domain"
	"reelstream/internal/services/token"
)

const (
	minSearchQueryLen = 2
	maxSearchLimit    = 50
	defaultPageSize   = 20
	similarLimit      = 20
)

func (s *Server) handleHeroSlider(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": s.cache.HeroSlider()})
}

func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	tail, ok := pathTail(r.URL.Path, "/api/v1/getlatest/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing media type")
		return
	}
	mediaType, ok := parseMediaType(tail)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "media type must be movie or show")
		return
	}
	limit, err := parsePositiveQuery(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": s.cache.Latest(mediaType, int(limit))})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Trending())
}

type movieDetailsResponse struct {
	domain.MovieRecord
	// StreamTokens[i] authorizes /api/v1/dl/{mid} for Qualities[i].
	StreamTokens []string `json:"stream_tokens"`
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	mid, ok := numericTail(r.URL.Path, "/api/v1/getMovieDetails/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "movie id must be numeric")
		return
	}

	rec, err := s.movies.Get(r.Context(), mid)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := movieDetailsResponse{MovieRecord: rec, StreamTokens: make([]string, len(rec.Qualities))}
	for i := range rec.Qualities {
		signed, err := s.tokens.IssueStream(token.StreamClaims{
			ID:           strconv.Itoa(rec.MID),
			MediaType:    string(domain.MediaMovie),
			QualityIndex: i,
		})
		if err != nil {
			s.logger.Warn("stream token issue failed", "mid", rec.MID, "quality", i, "error", err)
			continue
		}
		resp.StreamTokens[i] = signed
	}
	writeJSON(w, http.StatusOK, resp)
}

type showDetailsResponse struct {
	domain.ShowRecord
	// StreamTokens maps "s{season}e{episode}" to per-quality tokens.
	StreamTokens map[string][]string `json:"stream_tokens"`
}

func (s *Server) handleShowDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	sid, ok := numericTail(r.URL.Path, "/api/v1/getShowDetails/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "show id must be numeric")
		return
	}

	rec, err := s.shows.Get(r.Context(), sid)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := showDetailsResponse{ShowRecord: rec, StreamTokens: make(map[string][]string)}
	for _, season := range rec.Seasons {
		for _, ep := range season.Episodes {
			seasonNum, episodeNum := season.SeasonNumber, ep.EpisodeNumber
			tokens := make([]string, len(ep.Qualities))
			for i := range ep.Qualities {
				signed, err := s.tokens.IssueStream(token.StreamClaims{
					ID:            strconv.Itoa(rec.SID),
					MediaType:     string(domain.MediaShow),
					QualityIndex:  i,
					SeasonNumber:  &seasonNum,
					EpisodeNumber: &episodeNum,
				})
				if err != nil {
					s.logger.Warn("stream token issue failed", "sid", rec.SID, "season", seasonNum, "episode", episodeNum, "error", err)
					continue
				}
				tokens[i] = signed
			}
			resp.StreamTokens["s"+strconv.Itoa(seasonNum)+"e"+strconv.Itoa(episodeNum)] = tokens
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type paginatedResponse struct {
	Results      []domain.MediaCard `json:"results"`
	TotalCount   int64              `json:"total_count"`
	Page         int64              `json:"page"`
	ItemsPerPage int64              `json:"items_per_page"`
}

func (s *Server) handlePaginated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	tail, ok := pathTail(r.URL.Path, "/api/v1/paginated/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing media type")
		return
	}
	mediaType, ok := parseMediaType(tail)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "media type must be movie or show")
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

	req := domain.PageRequest{
		Skip:  (page - 1) * perPage,
		Limit: perPage,
		Sort:  strings.TrimSpace(r.URL.Query().Get("sort_by")),
	}

	store := s.pickStore(mediaType)
	items, total, err := store.Paginated(r.Context(), req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paginatedResponse{
		Results:      items,
		TotalCount:   total,
		Page:         page,
		ItemsPerPage: perPage,
	})
}

// handleSearch merges fuzzy title matches across movies and shows,
// re-sorted by relevance score.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < minSearchQueryLen {
		writeError(w, http.StatusBadRequest, "invalid_request", "query must be at least 2 characters")
		return
	}
	limit, err := parsePositiveQuery(r, "limit", defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	movies, err := s.movies.Search(r.Context(), query, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	shows, err := s.shows.Search(r.Context(), query, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	merged := append(movies, shows...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if int64(len(merged)) > limit {
		merged = merged[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": merged})
}

func (s *Server) handleSearchSubstring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	tail, ok := pathTail(r.URL.Path, "/api/v1/search/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing media type")
		return
	}
	mediaType, ok := parseMediaType(tail)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "media type must be movie or show")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < minSearchQueryLen {
		writeError(w, http.StatusBadRequest, "invalid_request", "query must be at least 2 characters")
		return
	}
	limit, err := parsePositiveQuery(r, "limit", defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := s.pickStore(mediaType).SearchSubstring(r.Context(), query, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	mediaType, ok := parseMediaType(strings.TrimSpace(r.URL.Query().Get("media_type")))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "media type must be movie or show")
		return
	}
	genres := splitGenres(r.URL.Query().Get("genres"))
	if len(genres) < 1 || len(genres) > 2 {
		writeError(w, http.StatusBadRequest, "invalid_request", "between 1 and 2 genres required")
		return
	}

	results, err := s.pickStore(mediaType).Similar(r.Context(), genres, similarLimit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// pickStore returns the card-query surface shared by both stores.
func (s *Server) pickStore(mediaType domain.MediaType) cardStore {
	if mediaType == domain.MediaShow {
		return s.shows
	}
	return s.movies
}

type cardStore interface {
	Paginated(ctx context.Context, page domain.PageRequest) ([]domain.MediaCard, int64, error)
	SearchSubstring(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error)
	Similar(ctx context.Context, genres []string, limit int64) ([]domain.MediaCard, error)
}

func numericTail(path, prefix string) (int, bool) {
	tail, ok := pathTail(path, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(tail)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func splitGenres(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if g := strings.TrimSpace(part); g != "" {
			out = append(out, g)
		}
	}
	return out
}

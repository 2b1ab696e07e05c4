package apihttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelstream/internal/domain"
)

func catalogFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := newServerFixture(nil, domain.FileLocator{})
	t.Cleanup(f.server.Close)
	return f
}

func TestHeroSlider(t *testing.T) {
	f := catalogFixture(t)
	f.cache.hero = []domain.HeroItem{
		{ID: 603, Title: "The Matrix", MediaType: domain.MediaMovie},
		{ID: 1396, Title: "Breaking Bad", MediaType: domain.MediaShow},
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/heroslider", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Results []domain.HeroItem `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].Title != "The Matrix" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestGetLatest(t *testing.T) {
	f := catalogFixture(t)
	f.cache.latest = []domain.MediaCard{
		{ID: 1, Title: "A", MediaType: domain.MediaShow},
		{ID: 2, Title: "B", MediaType: domain.MediaShow},
		{ID: 3, Title: "C", MediaType: domain.MediaShow},
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/getlatest/show?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f.cache.lastType != domain.MediaShow || f.cache.lastLim != 2 {
		t.Errorf("cache queried with type=%s limit=%d", f.cache.lastType, f.cache.lastLim)
	}

	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/getlatest/anime", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown media type: status = %d, want 400", rec.Code)
	}
}

func TestMovieDetailsIssuesStreamTokens(t *testing.T) {
	f := catalogFixture(t)
	f.movies.recs[603] = domain.MovieRecord{
		MID:   603,
		Title: "The Matrix",
		Qualities: []domain.QualityVariant{
			{Type: "720p", FileHash: "AQADAg"},
			{Type: "1080p", FileHash: "BQBDEf"},
		},
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/getMovieDetails/603", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Title        string   `json:"title"`
		StreamTokens []string `json:"stream_tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Title != "The Matrix" || len(resp.StreamTokens) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	for i, signed := range resp.StreamTokens {
		claims, err := f.tokens.VerifyStreamFor(signed, "603")
		if err != nil {
			t.Fatalf("token %d invalid: %v", i, err)
		}
		if claims.QualityIndex != i || claims.MediaType != "movie" {
			t.Errorf("token %d claims = %+v", i, claims)
		}
	}
}

func TestMovieDetailsNotFound(t *testing.T) {
	f := catalogFixture(t)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/getMovieDetails/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestShowDetailsIssuesEpisodeTokens(t *testing.T) {
	f := catalogFixture(t)
	f.shows.recs[1396] = domain.ShowRecord{
		SID:   1396,
		Title: "Breaking Bad",
		Seasons: []domain.Season{{
			SeasonNumber: 5,
			Episodes: []domain.Episode{{
				EpisodeNumber: 14,
				Qualities:     []domain.QualityVariant{{Type: "1080p", FileHash: "CQCDGh"}},
			}},
		}},
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/getShowDetails/1396", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		StreamTokens map[string][]string `json:"stream_tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	tokens, ok := resp.StreamTokens["s5e14"]
	if !ok || len(tokens) != 1 {
		t.Fatalf("stream_tokens = %+v", resp.StreamTokens)
	}
	claims, err := f.tokens.VerifyStreamFor(tokens[0], "1396")
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.SeasonNumber == nil || *claims.SeasonNumber != 5 ||
		claims.EpisodeNumber == nil || *claims.EpisodeNumber != 14 {
		t.Errorf("claims = %+v", claims)
	}
}

func TestPaginatedPassesPageRequest(t *testing.T) {
	f := catalogFixture(t)
	f.movies.paginated = []domain.MediaCard{{ID: 1, Title: "A", MediaType: domain.MediaMovie}}
	f.movies.total = 41

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/paginated/movie?page=3&items_per_page=10&sort_by=most", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f.movies.lastPage.Skip != 20 || f.movies.lastPage.Limit != 10 || f.movies.lastPage.Sort != "most" {
		t.Errorf("page request = %+v", f.movies.lastPage)
	}
	var resp paginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TotalCount != 41 || resp.Page != 3 || resp.ItemsPerPage != 10 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchMergesAndSortsByScore(t *testing.T) {
	f := catalogFixture(t)
	f.movies.search = []domain.MediaCard{
		{ID: 1, Title: "Alien", MediaType: domain.MediaMovie, Score: 2.5},
	}
	f.shows.search = []domain.MediaCard{
		{ID: 2, Title: "Alien Nation", MediaType: domain.MediaShow, Score: 4.1},
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?query=alien", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Results []domain.MediaCard `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != 2 || resp.Results[1].ID != 1 {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchRejectsShortQuery(t *testing.T) {
	f := catalogFixture(t)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?query=a", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSimilarGenreBounds(t *testing.T) {
	f := catalogFixture(t)
	f.movies.similar = []domain.MediaCard{{ID: 1, MediaType: domain.MediaMovie}}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similar?media_type=movie&genres=Action,Sci-Fi", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(f.movies.genres) != 2 || f.movies.genres[0] != "Action" {
		t.Errorf("genres = %v", f.movies.genres)
	}

	for _, genres := range []string{"", "A,B,C"} {
		rec = httptest.NewRecorder()
		f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similar?media_type=movie&genres="+genres, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("genres %q: status = %d, want 400", genres, rec.Code)
		}
	}
}

func TestTrending(t *testing.T) {
	f := catalogFixture(t)
	f.cache.trending = domain.TrendingSnapshot{
		Movie: []domain.MediaCard{{ID: 603, MediaType: domain.MediaMovie}},
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trending", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp domain.TrendingSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Movie) != 1 || resp.Movie[0].ID != 603 {
		t.Errorf("resp = %+v", resp)
	}
}

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
)

const (
	tmdbBaseURL  = "https://api.themoviedb.org/3"
	tmdbImageURL = "https://image.tmdb.org/t/p/original"
)

// TMDBClient implements ports.MetadataProvider against the TMDB v3 API.
type TMDBClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewTMDBClient(apiKey string) *TMDBClient {
	return &TMDBClient{
		apiKey:  apiKey,
		baseURL: tmdbBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbSearchResult struct {
	ID int `json:"id"`
}

type tmdbGenre struct {
	Name string `json:"name"`
}

type tmdbCompany struct {
	Name string `json:"name"`
}

type tmdbDetails struct {
	ID               int           `json:"id"`
	Title            string        `json:"title"`
	Name             string        `json:"name"`
	OriginalTitle    string        `json:"original_title"`
	OriginalName     string        `json:"original_name"`
	ReleaseDate      string        `json:"release_date"`
	FirstAirDate     string        `json:"first_air_date"`
	Overview         string        `json:"overview"`
	PosterPath       string        `json:"poster_path"`
	BackdropPath     string        `json:"backdrop_path"`
	Runtime          int           `json:"runtime"`
	Popularity       float64       `json:"popularity"`
	VoteAverage      float64       `json:"vote_average"`
	VoteCount        int           `json:"vote_count"`
	Genres           []tmdbGenre   `json:"genres"`
	Companies        []tmdbCompany `json:"production_companies"`
	Status           string        `json:"status"`
	NumberOfSeasons  int           `json:"number_of_seasons"`
	NumberOfEpisodes int           `json:"number_of_episodes"`
}

type tmdbImagesResponse struct {
	Logos []struct {
		FilePath string `json:"file_path"`
		Language string `json:"iso_639_1"`
	} `json:"logos"`
}

type tmdbExternalIDs struct {
	IMDbID string `json:"imdb_id"`
}

type tmdbCreditsResponse struct {
	Cast []struct {
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

type tmdbVideosResponse struct {
	Results []struct {
		Site     string `json:"site"`
		Type     string `json:"type"`
		Name     string `json:"name"`
		Key      string `json:"key"`
		Official bool   `json:"official"`
	} `json:"results"`
}

type tmdbEpisode struct {
	Name      string `json:"name"`
	Overview  string `json:"overview"`
	StillPath string `json:"still_path"`
	AirDate   string `json:"air_date"`
	Runtime   int    `json:"runtime"`
}

func (c *TMDBClient) Find(ctx context.Context, mediaType domain.MediaType, title string, year int) (ports.TitleMatch, error) {
	searchPath, yearParam := "/search/movie", "year"
	if mediaType == domain.MediaShow {
		searchPath, yearParam = "/search/tv", "first_air_date_year"
	}

	params := url.Values{"query": {title}}
	if year > 0 {
		params.Set(yearParam, strconv.Itoa(year))
	}

	var search tmdbSearchResponse
	if err := c.get(ctx, searchPath, params, &search); err != nil {
		return ports.TitleMatch{}, err
	}
	if len(search.Results) == 0 {
		return ports.TitleMatch{}, fmt.Errorf("no metadata match for %q: %w", title, domain.ErrNotFound)
	}

	var details tmdbDetails
	if err := c.get(ctx, c.typePath(mediaType, search.Results[0].ID, ""), nil, &details); err != nil {
		return ports.TitleMatch{}, err
	}

	match := ports.TitleMatch{
		ID:            details.ID,
		Title:         details.Title,
		OriginalTitle: details.OriginalTitle,
		ReleaseDate:   details.ReleaseDate,
		Overview:      details.Overview,
		Poster:        imageURL(details.PosterPath),
		Backdrop:      imageURL(details.BackdropPath),
		Runtime:       details.Runtime,
		Popularity:    details.Popularity,
		VoteAverage:   details.VoteAverage,
		VoteCount:     details.VoteCount,
		Status:        details.Status,
		TotalSeasons:  details.NumberOfSeasons,
		TotalEpisodes: details.NumberOfEpisodes,
	}
	if mediaType == domain.MediaShow {
		match.Title = details.Name
		match.OriginalTitle = details.OriginalName
		match.ReleaseDate = details.FirstAirDate
	}
	for _, g := range details.Genres {
		match.Genres = append(match.Genres, g.Name)
	}
	for _, s := range details.Companies {
		match.Studios = append(match.Studios, s.Name)
	}
	return match, nil
}

func (c *TMDBClient) Logos(ctx context.Context, mediaType domain.MediaType, id int) ([]ports.LogoImage, error) {
	var images tmdbImagesResponse
	params := url.Values{"include_image_language": {"en,null"}}
	if err := c.get(ctx, c.typePath(mediaType, id, "/images"), params, &images); err != nil {
		return nil, err
	}
	logos := make([]ports.LogoImage, 0, len(images.Logos))
	for _, l := range images.Logos {
		logos = append(logos, ports.LogoImage{Path: imageURL(l.FilePath), Language: l.Language})
	}
	return logos, nil
}

func (c *TMDBClient) ExternalIDs(ctx context.Context, mediaType domain.MediaType, id int) (ports.ExternalIDs, error) {
	var ids tmdbExternalIDs
	if err := c.get(ctx, c.typePath(mediaType, id, "/external_ids"), nil, &ids); err != nil {
		return ports.ExternalIDs{}, err
	}
	return ports.ExternalIDs{IMDbID: ids.IMDbID}, nil
}

func (c *TMDBClient) Credits(ctx context.Context, mediaType domain.MediaType, id int) (ports.Credits, error) {
	var resp tmdbCreditsResponse
	if err := c.get(ctx, c.typePath(mediaType, id, "/credits"), nil, &resp); err != nil {
		return ports.Credits{}, err
	}
	credits := ports.Credits{}
	for _, m := range resp.Cast {
		credits.Cast = append(credits.Cast, domain.CastMember{
			Name:      m.Name,
			Character: m.Character,
			Profile:   imageURL(m.ProfilePath),
		})
	}
	for _, m := range resp.Crew {
		if m.Job == "Director" {
			credits.Directors = append(credits.Directors, m.Name)
		}
	}
	return credits, nil
}

func (c *TMDBClient) Videos(ctx context.Context, mediaType domain.MediaType, id int) ([]ports.Video, error) {
	var resp tmdbVideosResponse
	if err := c.get(ctx, c.typePath(mediaType, id, "/videos"), nil, &resp); err != nil {
		return nil, err
	}
	videos := make([]ports.Video, 0, len(resp.Results))
	for _, v := range resp.Results {
		videos = append(videos, ports.Video{
			Site:     v.Site,
			Type:     v.Type,
			Name:     v.Name,
			Key:      v.Key,
			Official: v.Official,
		})
	}
	return videos, nil
}

func (c *TMDBClient) EpisodeDetails(ctx context.Context, showID, season, episode int) (ports.EpisodeMeta, error) {
	var ep tmdbEpisode
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", showID, season, episode)
	if err := c.get(ctx, path, nil, &ep); err != nil {
		return ports.EpisodeMeta{}, err
	}
	return ports.EpisodeMeta{
		Name:      ep.Name,
		Overview:  ep.Overview,
		StillPath: imageURL(ep.StillPath),
		AirDate:   ep.AirDate,
		Runtime:   ep.Runtime,
	}, nil
}

func (c *TMDBClient) typePath(mediaType domain.MediaType, id int, suffix string) string {
	kind := "movie"
	if mediaType == domain.MediaShow {
		kind = "tv"
	}
	return fmt.Sprintf("/%s/%d%s", kind, id, suffix)
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("metadata request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("metadata %s: %w", path, domain.ErrNotFound)
	default:
		return fmt.Errorf("metadata %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("metadata %s: decode: %w", path, err)
	}
	return nil
}

func imageURL(path string) string {
	if path == "" {
		return ""
	}
	return tmdbImageURL + path
}

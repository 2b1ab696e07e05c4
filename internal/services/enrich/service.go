package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/metrics"
)

const cacheSize = 100

// Service resolves a parsed title into a full catalog record. The
// primary lookup is fatal; every secondary lookup (logos, external ids,
// credits, videos) degrades to an empty field on failure so one flaky
// endpoint never blocks ingestion.
type Service struct {
	provider ports.MetadataProvider
	logger   *slog.Logger

	movies   *lru.Cache[string, domain.MovieRecord]
	shows    *lru.Cache[string, domain.ShowRecord]
	episodes *lru.Cache[string, ports.EpisodeMeta]
}

func NewService(provider ports.MetadataProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	movies, _ := lru.New[string, domain.MovieRecord](cacheSize)
	shows, _ := lru.New[string, domain.ShowRecord](cacheSize)
	episodes, _ := lru.New[string, ports.EpisodeMeta](cacheSize)
	return &Service{
		provider: provider,
		logger:   logger,
		movies:   movies,
		shows:    shows,
		episodes: episodes,
	}
}

func (s *Service) Movie(ctx context.Context, title string, year int) (domain.MovieRecord, error) {
	key := cacheKey("movie", title, year, 0, 0)
	if rec, ok := s.movies.Get(key); ok {
		metrics.EnrichLookupsTotal.WithLabelValues("hit").Inc()
		return rec, nil
	}
	metrics.EnrichLookupsTotal.WithLabelValues("miss").Inc()

	match, err := s.provider.Find(ctx, domain.MediaMovie, title, year)
	if err != nil {
		return domain.MovieRecord{}, fmt.Errorf("find movie %q: %w", title, err)
	}
	extras := s.lookupExtras(ctx, domain.MediaMovie, match.ID)

	rec := domain.MovieRecord{
		MID:           match.ID,
		Title:         match.Title,
		OriginalTitle: match.OriginalTitle,
		ReleaseDate:   match.ReleaseDate,
		Overview:      match.Overview,
		Poster:        match.Poster,
		Backdrop:      match.Backdrop,
		Runtime:       match.Runtime,
		Popularity:    match.Popularity,
		VoteAverage:   match.VoteAverage,
		VoteCount:     match.VoteCount,
		Genres:        match.Genres,
		Studios:       match.Studios,
		Cast:          extras.cast,
		Directors:     extras.directors,
		Links:         extras.links,
		Logo:          extras.logo,
		Trailer:       extras.trailer,
	}
	s.movies.Add(key, rec)
	return rec, nil
}

func (s *Service) Show(ctx context.Context, title string, year int) (domain.ShowRecord, error) {
	key := cacheKey("show", title, year, 0, 0)
	if rec, ok := s.shows.Get(key); ok {
		metrics.EnrichLookupsTotal.WithLabelValues("hit").Inc()
		return rec, nil
	}
	metrics.EnrichLookupsTotal.WithLabelValues("miss").Inc()

	match, err := s.provider.Find(ctx, domain.MediaShow, title, year)
	if err != nil {
		return domain.ShowRecord{}, fmt.Errorf("find show %q: %w", title, err)
	}
	extras := s.lookupExtras(ctx, domain.MediaShow, match.ID)

	rec := domain.ShowRecord{
		SID:           match.ID,
		Title:         match.Title,
		OriginalTitle: match.OriginalTitle,
		FirstAirDate:  match.ReleaseDate,
		Overview:      match.Overview,
		Poster:        match.Poster,
		Backdrop:      match.Backdrop,
		Popularity:    match.Popularity,
		VoteAverage:   match.VoteAverage,
		VoteCount:     match.VoteCount,
		Genres:        match.Genres,
		Studios:       match.Studios,
		Cast:          extras.cast,
		Links:         extras.links,
		Logo:          extras.logo,
		Trailer:       extras.trailer,
		TotalSeasons:  match.TotalSeasons,
		TotalEpisodes: match.TotalEpisodes,
		Status:        match.Status,
	}
	s.shows.Add(key, rec)
	return rec, nil
}

// Episode fetches per-episode metadata. Failures degrade to an empty
// meta so an unindexed episode still lands in the catalog.
func (s *Service) Episode(ctx context.Context, showID, season, episode int) ports.EpisodeMeta {
	key := cacheKey("episode", "", showID, season, episode)
	if meta, ok := s.episodes.Get(key); ok {
		metrics.EnrichLookupsTotal.WithLabelValues("hit").Inc()
		return meta
	}
	metrics.EnrichLookupsTotal.WithLabelValues("miss").Inc()

	meta, err := s.provider.EpisodeDetails(ctx, showID, season, episode)
	if err != nil {
		s.logger.Warn("episode metadata lookup failed",
			"show_id", showID, "season", season, "episode", episode, "error", err)
		return ports.EpisodeMeta{}
	}
	s.episodes.Add(key, meta)
	return meta
}

type extras struct {
	logo      string
	links     []string
	cast      []domain.CastMember
	directors []string
	trailer   string
}

const maxCastMembers = 20

func (s *Service) lookupExtras(ctx context.Context, mediaType domain.MediaType, id int) extras {
	var ex extras

	if logos, err := s.provider.Logos(ctx, mediaType, id); err != nil {
		s.logger.Warn("logo lookup failed", "id", id, "error", err)
	} else {
		ex.logo = pickLogo(logos)
	}

	if ids, err := s.provider.ExternalIDs(ctx, mediaType, id); err != nil {
		s.logger.Warn("external id lookup failed", "id", id, "error", err)
	} else if ids.IMDbID != "" {
		ex.links = append(ex.links, "https://www.imdb.com/title/"+ids.IMDbID)
	}

	if credits, err := s.provider.Credits(ctx, mediaType, id); err != nil {
		s.logger.Warn("credits lookup failed", "id", id, "error", err)
	} else {
		ex.cast = credits.Cast
		if len(ex.cast) > maxCastMembers {
			ex.cast = ex.cast[:maxCastMembers]
		}
		ex.directors = credits.Directors
	}

	if videos, err := s.provider.Videos(ctx, mediaType, id); err != nil {
		s.logger.Warn("videos lookup failed", "id", id, "error", err)
	} else {
		ex.trailer = pickTrailer(videos)
	}

	return ex
}

// pickLogo takes an English logo, then an "in" one, else none.
func pickLogo(logos []ports.LogoImage) string {
	for _, lang := range []string{"en", "in"} {
		for _, l := range logos {
			if l.Language == lang && l.Path != "" {
				return l.Path
			}
		}
	}
	return ""
}

// pickTrailer prefers an official YouTube trailer, then any trailer
// whose name mentions "official", then the first YouTube trailer.
func pickTrailer(videos []ports.Video) string {
	var first string
	for _, v := range videos {
		if v.Site != "YouTube" || v.Type != "Trailer" || v.Key == "" {
			continue
		}
		if v.Official || strings.Contains(strings.ToLower(v.Name), "official") {
			return youtubeURL(v.Key)
		}
		if first == "" {
			first = youtubeURL(v.Key)
		}
	}
	return first
}

func youtubeURL(key string) string {
	return "https://www.youtube.com/watch?v=" + key
}

func cacheKey(kind, title string, a, b, c int) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", kind, strings.ToLower(title), a, b, c)
}

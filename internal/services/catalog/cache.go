package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/metrics"
	"reelstream/internal/services/notify"
)

const (
	refreshInterval    = 180 * time.Second
	refreshTimeout     = 60 * time.Second
	refreshConcurrency = 2

	heroPerType   = 3
	latestPerType = 21
)

// Cache keeps the front-page snapshot warm so catalog endpoints never
// block on the store. The refresh loop is supervised: a panic inside a
// cycle is reported and the loop restarts on the next tick.
type Cache struct {
	movies   ports.MovieStore
	shows    ports.ShowStore
	configs  ports.ConfigStore
	logger   *slog.Logger
	notifier *notify.Notifier

	mu       sync.RWMutex
	snapshot domain.CacheSnapshot
}

func NewCache(movies ports.MovieStore, shows ports.ShowStore, configs ports.ConfigStore, logger *slog.Logger, notifier *notify.Notifier) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		movies:   movies,
		shows:    shows,
		configs:  configs,
		logger:   logger,
		notifier: notifier,
	}
}

// Run refreshes once immediately, then on a fixed cadence until ctx ends.
func (c *Cache) Run(ctx context.Context) {
	c.refreshSupervised(ctx)

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshSupervised(ctx)
		}
	}
}

func (c *Cache) refreshSupervised(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("catalog refresh panicked", "panic", r)
			c.notifier.Errorf(ctx, "catalog cache refresh panicked: %v", r)
		}
	}()
	if err := c.Refresh(ctx); err != nil {
		c.logger.Error("catalog refresh failed", "error", err)
		metrics.CacheRefreshFailures.Inc()
	}
}

// UpdateAll triggers an immediate refresh, used after ingestion lands
// new content.
func (c *Cache) UpdateAll(ctx context.Context) {
	c.refreshSupervised(ctx)
}

// Refresh rebuilds the snapshot from the store. Any failure or timeout
// leaves the previous snapshot untouched, LastUpdated included.
func (c *Cache) Refresh(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	var (
		latestMovies []domain.MovieRecord
		latestShows  []domain.ShowRecord
		trending     domain.TrendingSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	g.Go(func() error {
		var err error
		latestMovies, err = c.movies.Latest(gctx, latestPerType)
		if err != nil {
			return fmt.Errorf("latest movies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		latestShows, err = c.shows.Latest(gctx, latestPerType)
		if err != nil {
			return fmt.Errorf("latest shows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		trending, err = c.loadTrending(gctx)
		if err != nil {
			return fmt.Errorf("trending: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	next := domain.CacheSnapshot{
		HeroSlider:   buildHero(latestMovies, latestShows),
		LatestMovies: movieCards(latestMovies),
		LatestShows:  showCards(latestShows),
		Trending:     trending,
		LastUpdated:  time.Now().UTC(),
	}

	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()

	metrics.CacheRefreshDuration.Observe(time.Since(start).Seconds())
	return nil
}

// loadTrending resolves the curated id lists into cards. A missing
// config is an empty front-page row, not an error.
func (c *Cache) loadTrending(ctx context.Context) (domain.TrendingSnapshot, error) {
	cfg, err := c.configs.GetTrending(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TrendingSnapshot{}, nil
		}
		return domain.TrendingSnapshot{}, err
	}

	var out domain.TrendingSnapshot
	if out.Movie, err = c.movies.GetMany(ctx, cfg.Movie); err != nil {
		return domain.TrendingSnapshot{}, err
	}
	if out.Show, err = c.shows.GetMany(ctx, cfg.Show); err != nil {
		return domain.TrendingSnapshot{}, err
	}
	return out, nil
}

func (c *Cache) Snapshot() domain.CacheSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *Cache) HeroSlider() []domain.HeroItem {
	return c.Snapshot().HeroSlider
}

func (c *Cache) Latest(mediaType domain.MediaType, limit int) []domain.MediaCard {
	snap := c.Snapshot()
	cards := snap.LatestMovies
	if mediaType == domain.MediaShow {
		cards = snap.LatestShows
	}
	if limit > 0 && limit < len(cards) {
		return cards[:limit]
	}
	return cards
}

func (c *Cache) Trending() domain.TrendingSnapshot {
	return c.Snapshot().Trending
}

func (c *Cache) LastUpdated() time.Time {
	return c.Snapshot().LastUpdated
}

// buildHero interleaves the newest movies and shows, newest-first
// within each type, up to three of each.
func buildHero(movies []domain.MovieRecord, shows []domain.ShowRecord) []domain.HeroItem {
	items := make([]domain.HeroItem, 0, heroPerType*2)
	for i := 0; i < heroPerType; i++ {
		if i < len(movies) {
			items = append(items, movieHero(movies[i]))
		}
		if i < len(shows) {
			items = append(items, showHero(shows[i]))
		}
	}
	return items
}

func movieHero(rec domain.MovieRecord) domain.HeroItem {
	return domain.HeroItem{
		ID:          rec.MID,
		Title:       rec.Title,
		MediaType:   domain.MediaMovie,
		Year:        yearOf(rec.ReleaseDate),
		Backdrop:    rec.Backdrop,
		Poster:      rec.Poster,
		Logo:        rec.Logo,
		Overview:    rec.Overview,
		VoteAverage: rec.VoteAverage,
	}
}

func showHero(rec domain.ShowRecord) domain.HeroItem {
	return domain.HeroItem{
		ID:          rec.SID,
		Title:       rec.Title,
		MediaType:   domain.MediaShow,
		Year:        yearOf(rec.FirstAirDate),
		Backdrop:    rec.Backdrop,
		Poster:      rec.Poster,
		Logo:        rec.Logo,
		Overview:    rec.Overview,
		VoteAverage: rec.VoteAverage,
	}
}

func movieCards(records []domain.MovieRecord) []domain.MediaCard {
	cards := make([]domain.MediaCard, 0, len(records))
	for _, rec := range records {
		cards = append(cards, domain.MediaCard{
			ID:          rec.MID,
			Title:       rec.Title,
			Year:        yearOf(rec.ReleaseDate),
			Poster:      rec.Poster,
			VoteAverage: rec.VoteAverage,
			VoteCount:   rec.VoteCount,
			MediaType:   domain.MediaMovie,
		})
	}
	return cards
}

func showCards(records []domain.ShowRecord) []domain.MediaCard {
	cards := make([]domain.MediaCard, 0, len(records))
	for _, rec := range records {
		cards = append(cards, domain.MediaCard{
			ID:          rec.SID,
			Title:       rec.Title,
			Year:        yearOf(rec.FirstAirDate),
			Poster:      rec.Poster,
			VoteAverage: rec.VoteAverage,
			VoteCount:   rec.VoteCount,
			MediaType:   domain.MediaShow,
		})
	}
	return cards
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, ch := range date[:4] {
		if ch < '0' || ch > '9' {
			return 0
		}
		year = year*10 + int(ch-'0')
	}
	return year
}

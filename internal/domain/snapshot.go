package domain

import "time"

type TrendingSnapshot struct {
	Movie []MediaCard `json:"movie"`
	Show  []MediaCard `json:"show"`
}

// CacheSnapshot is the front-page view refreshed in the background.
// Readers never touch the store; a failed refresh leaves the previous
// snapshot (and LastUpdated) intact.
type CacheSnapshot struct {
	HeroSlider   []HeroItem       `json:"hero_slider"`
	LatestMovies []MediaCard      `json:"latest_movies"`
	LatestShows  []MediaCard      `json:"latest_shows"`
	Trending     TrendingSnapshot `json:"trending"`
	LastUpdated  time.Time        `json:"last_updated"`
}

package ports

import (
	"context"

	"reelstream/internal/domain"
)

// TitleMatch is the primary lookup result from the metadata provider.
type TitleMatch struct {
	ID            int
	Title         string
	OriginalTitle string
	ReleaseDate   string
	Overview      string
	Poster        string
	Backdrop      string
	Runtime       int
	Popularity    float64
	VoteAverage   float64
	VoteCount     int
	Genres        []string
	Studios       []string
	Status        string
	TotalSeasons  int
	TotalEpisodes int
}

type LogoImage struct {
	Path     string
	Language string
}

type ExternalIDs struct {
	IMDbID string
}

type Credits struct {
	Cast      []domain.CastMember
	Directors []string
}

type Video struct {
	Site     string
	Type     string
	Name     string
	Key      string
	Official bool
}

type EpisodeMeta struct {
	Name      string
	Overview  string
	StillPath string
	AirDate   string
	Runtime   int
}

// MetadataProvider is the third-party title lookup service. Each call may
// fail independently; the enrichment layer tolerates partial failures.
type MetadataProvider interface {
	Find(ctx context.Context, mediaType domain.MediaType, title string, year int) (TitleMatch, error)
	Logos(ctx context.Context, mediaType domain.MediaType, id int) ([]LogoImage, error)
	ExternalIDs(ctx context.Context, mediaType domain.MediaType, id int) (ExternalIDs, error)
	Credits(ctx context.Context, mediaType domain.MediaType, id int) (Credits, error)
	Videos(ctx context.Context, mediaType domain.MediaType, id int) ([]Video, error)
	EpisodeDetails(ctx context.Context, showID, season, episode int) (EpisodeMeta, error)
}

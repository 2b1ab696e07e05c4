package ports

import (
	"context"

	"reelstream/internal/domain"
)

type MovieStore interface {
	Upsert(ctx context.Context, rec domain.MovieRecord) error
	Get(ctx context.Context, mid int) (domain.MovieRecord, error)
	Update(ctx context.Context, mid int, fields map[string]any) error
	Delete(ctx context.Context, mid int) (int64, error)
	Latest(ctx context.Context, limit int64) ([]domain.MovieRecord, error)
	Paginated(ctx context.Context, page domain.PageRequest) ([]domain.MediaCard, int64, error)
	Search(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error)
	SearchSubstring(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error)
	Similar(ctx context.Context, genres []string, limit int64) ([]domain.MediaCard, error)
	GetMany(ctx context.Context, mids []int) ([]domain.MediaCard, error)
}

type ShowStore interface {
	Upsert(ctx context.Context, rec domain.ShowRecord) error
	Get(ctx context.Context, sid int) (domain.ShowRecord, error)
	Update(ctx context.Context, sid int, fields map[string]any) error
	Delete(ctx context.Context, sid int) (int64, error)
	Latest(ctx context.Context, limit int64) ([]domain.ShowRecord, error)
	Paginated(ctx context.Context, page domain.PageRequest) ([]domain.MediaCard, int64, error)
	Search(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error)
	SearchSubstring(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error)
	Similar(ctx context.Context, genres []string, limit int64) ([]domain.MediaCard, error)
	GetMany(ctx context.Context, sids []int) ([]domain.MediaCard, error)
}

type UserStore interface {
	Register(ctx context.Context, user domain.UserRecord) error
	Get(ctx context.Context, userID int64) (domain.UserRecord, error)
	List(ctx context.Context, skip, limit int64) ([]domain.UserRecord, int64, error)
	Search(ctx context.Context, query string, limit int64) ([]domain.UserRecord, error)
	Update(ctx context.Context, userID int64, fields map[string]any) error
	Delete(ctx context.Context, userID int64) (int64, error)
}

type ConfigStore interface {
	GetTrending(ctx context.Context) (domain.TrendingConfig, error)
	SaveTrending(ctx context.Context, cfg domain.TrendingConfig) error
}

package apihttp

import (
	"context"
	"io"
	"log/slog"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/services/stream"
	"reelstream/internal/services/token"
	"reelstream/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMovieStore struct {
	recs      map[int]domain.MovieRecord
	paginated []domain.MediaCard
	total     int64
	lastPage  domain.PageRequest
	search    []domain.MediaCard
	substring []domain.MediaCard
	similar   []domain.MediaCard
	genres    []string
	updated   map[string]any
	deleted   int64
}

func (f *fakeMovieStore) Upsert(context.Context, domain.MovieRecord) error { return nil }
func (f *fakeMovieStore) Get(ctx context.Context, mid int) (domain.MovieRecord, error) {
	rec, ok := f.recs[mid]
	if !ok {
		return domain.MovieRecord{}, domain.ErrNotFound
	}
	return rec, nil
}
func (f *fakeMovieStore) Update(ctx context.Context, mid int, fields map[string]any) error {
	if _, ok := f.recs[mid]; !ok {
		return domain.ErrNotFound
	}
	f.updated = fields
	return nil
}
func (f *fakeMovieStore) Delete(context.Context, int) (int64, error) { return f.deleted, nil }
func (f *fakeMovieStore) Latest(context.Context, int64) ([]domain.MovieRecord, error) {
	return nil, nil
}
func (f *fakeMovieStore) Paginated(ctx context.Context, page domain.PageRequest) ([]domain.MediaCard, int64, error) {
	f.lastPage = page
	return f.paginated, f.total, nil
}
func (f *fakeMovieStore) Search(context.Context, string, int64) ([]domain.MediaCard, error) {
	return f.search, nil
}
func (f *fakeMovieStore) SearchSubstring(context.Context, string, int64) ([]domain.MediaCard, error) {
	return f.substring, nil
}
func (f *fakeMovieStore) Similar(ctx context.Context, genres []string, limit int64) ([]domain.MediaCard, error) {
	f.genres = genres
	return f.similar, nil
}
func (f *fakeMovieStore) GetMany(context.Context, []int) ([]domain.MediaCard, error) {
	return nil, nil
}

type fakeShowStore struct {
	recs    map[int]domain.ShowRecord
	search  []domain.MediaCard
	updated map[string]any
	deleted int64
}

func (f *fakeShowStore) Upsert(context.Context, domain.ShowRecord) error { return nil }
func (f *fakeShowStore) Get(ctx context.Context, sid int) (domain.ShowRecord, error) {
	rec, ok := f.recs[sid]
	if !ok {
		return domain.ShowRecord{}, domain.ErrNotFound
	}
	return rec, nil
}
func (f *fakeShowStore) Update(ctx context.Context, sid int, fields map[string]any) error {
	if _, ok := f.recs[sid]; !ok {
		return domain.ErrNotFound
	}
	f.updated = fields
	return nil
}
func (f *fakeShowStore) Delete(context.Context, int) (int64, error) { return f.deleted, nil }
func (f *fakeShowStore) Latest(context.Context, int64) ([]domain.ShowRecord, error) {
	return nil, nil
}
func (f *fakeShowStore) Paginated(context.Context, domain.PageRequest) ([]domain.MediaCard, int64, error) {
	return nil, 0, nil
}
func (f *fakeShowStore) Search(context.Context, string, int64) ([]domain.MediaCard, error) {
	return f.search, nil
}
func (f *fakeShowStore) SearchSubstring(context.Context, string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (f *fakeShowStore) Similar(context.Context, []string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (f *fakeShowStore) GetMany(context.Context, []int) ([]domain.MediaCard, error) {
	return nil, nil
}

type fakeUserStore struct {
	recs    map[int64]domain.UserRecord
	listed  []domain.UserRecord
	total   int64
	updated map[string]any
	deleted int64
}

func (f *fakeUserStore) Register(context.Context, domain.UserRecord) error { return nil }
func (f *fakeUserStore) Get(ctx context.Context, userID int64) (domain.UserRecord, error) {
	rec, ok := f.recs[userID]
	if !ok {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	return rec, nil
}
func (f *fakeUserStore) List(context.Context, int64, int64) ([]domain.UserRecord, int64, error) {
	return f.listed, f.total, nil
}
func (f *fakeUserStore) Search(context.Context, string, int64) ([]domain.UserRecord, error) {
	return f.listed, nil
}
func (f *fakeUserStore) Update(ctx context.Context, userID int64, fields map[string]any) error {
	if _, ok := f.recs[userID]; !ok {
		return domain.ErrNotFound
	}
	f.updated = fields
	return nil
}
func (f *fakeUserStore) Delete(context.Context, int64) (int64, error) { return f.deleted, nil }

type fakeConfigStore struct {
	saved *domain.TrendingConfig
}

func (f *fakeConfigStore) GetTrending(context.Context) (domain.TrendingConfig, error) {
	return domain.TrendingConfig{}, domain.ErrNotFound
}
func (f *fakeConfigStore) SaveTrending(ctx context.Context, cfg domain.TrendingConfig) error {
	f.saved = &cfg
	return nil
}

type fakeCache struct {
	hero     []domain.HeroItem
	latest   []domain.MediaCard
	lastType domain.MediaType
	lastLim  int
	trending domain.TrendingSnapshot
	updated  time.Time
}

func (f *fakeCache) HeroSlider() []domain.HeroItem { return f.hero }
func (f *fakeCache) Latest(mediaType domain.MediaType, limit int) []domain.MediaCard {
	f.lastType, f.lastLim = mediaType, limit
	if limit > 0 && limit < len(f.latest) {
		return f.latest[:limit]
	}
	return f.latest
}
func (f *fakeCache) Trending() domain.TrendingSnapshot { return f.trending }
func (f *fakeCache) LastUpdated() time.Time            { return f.updated }

// fakeUpstream serves a fixed byte slice as the file behind one message.
type fakeUpstream struct {
	file     []byte
	loc      domain.FileLocator
	resolves int
}

func (f *fakeUpstream) SlotID() int { return 0 }
func (f *fakeUpstream) HomeDC() int { return 2 }
func (f *fakeUpstream) ResolveFile(context.Context, int64, int) (domain.FileLocator, error) {
	f.resolves++
	loc := f.loc
	loc.FileSize = int64(len(f.file))
	return loc, nil
}
func (f *fakeUpstream) ExportAuthorization(context.Context, int) (domain.ExportedAuth, error) {
	return domain.ExportedAuth{}, nil
}
func (f *fakeUpstream) OpenMediaSession(context.Context, int) (ports.MediaSession, error) {
	return &fakeMediaSession{file: f.file}, nil
}
func (f *fakeUpstream) Close() error { return nil }

type fakeMediaSession struct {
	file []byte
}

func (s *fakeMediaSession) ImportAuthorization(context.Context, domain.ExportedAuth) error {
	return nil
}
func (s *fakeMediaSession) GetFile(ctx context.Context, loc domain.FileLocator, offset int64, limit int) ([]byte, error) {
	if offset >= int64(len(s.file)) {
		return nil, nil
	}
	end := offset + int64(limit)
	if end > int64(len(s.file)) {
		end = int64(len(s.file))
	}
	return s.file[offset:end], nil
}
func (s *fakeMediaSession) Close() error { return nil }

type fakeFleet struct {
	streamer *stream.Streamer
	err      error
	released int
}

func (f *fakeFleet) Acquire() (*stream.Streamer, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.streamer, func() { f.released++ }, nil
}

func (f *fakeFleet) Loads() map[int]int64 { return map[int]int64{0: 1} }

type serverFixture struct {
	server  *Server
	tokens  *token.Service
	movies  *fakeMovieStore
	shows   *fakeShowStore
	users   *fakeUserStore
	configs *fakeConfigStore
	cache   *fakeCache
	fleet   *fakeFleet
}

func newServerFixture(file []byte, loc domain.FileLocator) *serverFixture {
	movies := &fakeMovieStore{recs: map[int]domain.MovieRecord{}}
	shows := &fakeShowStore{recs: map[int]domain.ShowRecord{}}
	users := &fakeUserStore{recs: map[int64]domain.UserRecord{}}
	configs := &fakeConfigStore{}
	cache := &fakeCache{}
	tokens := token.NewService("test-secret", "admin", "hunter2")

	fleet := &fakeFleet{}
	if file != nil {
		upstream := &fakeUpstream{file: file, loc: loc}
		fleet.streamer = stream.NewStreamer(upstream, testLogger())
	}

	uc := &usecase.StreamVideo{Movies: movies, Shows: shows}
	server := NewServer(uc,
		WithFleet(fleet),
		WithTokens(tokens),
		WithMovieStore(movies),
		WithShowStore(shows),
		WithUserStore(users),
		WithConfigStore(configs),
		WithCatalogCache(cache),
		WithLogger(testLogger()),
	)
	return &serverFixture{
		server:  server,
		tokens:  tokens,
		movies:  movies,
		shows:   shows,
		users:   users,
		configs: configs,
		cache:   cache,
		fleet:   fleet,
	}
}

func (f *serverFixture) adminToken() string {
	signed, err := f.tokens.Login("admin", "hunter2")
	if err != nil {
		panic(err)
	}
	return signed
}

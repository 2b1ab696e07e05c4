package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelstream/internal/domain"
)

type stubMovies struct {
	rec domain.MovieRecord
	err error
}

func (s *stubMovies) Upsert(context.Context, domain.MovieRecord) error { return nil }
func (s *stubMovies) Get(ctx context.Context, mid int) (domain.MovieRecord, error) {
	if s.err != nil {
		return domain.MovieRecord{}, s.err
	}
	if mid != s.rec.MID {
		return domain.MovieRecord{}, domain.ErrNotFound
	}
	return s.rec, nil
}
func (s *stubMovies) Update(context.Context, int, map[string]any) error { return nil }
func (s *stubMovies) Delete(context.Context, int) (int64, error)       { return 0, nil }
func (s *stubMovies) Latest(context.Context, int64) ([]domain.MovieRecord, error) {
	return nil, nil
}
func (s *stubMovies) Paginated(context.Context, domain.PageRequest) ([]domain.MediaCard, int64, error) {
	return nil, 0, nil
}
func (s *stubMovies) Search(context.Context, string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (s *stubMovies) SearchSubstring(context.Context, string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (s *stubMovies) Similar(context.Context, []string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (s *stubMovies) GetMany(context.Context, []int) ([]domain.MediaCard, error) { return nil, nil }

type stubShows struct {
	rec domain.ShowRecord
}

func (s *stubShows) Upsert(context.Context, domain.ShowRecord) error { return nil }
func (s *stubShows) Get(ctx context.Context, sid int) (domain.ShowRecord, error) {
	if sid != s.rec.SID {
		return domain.ShowRecord{}, domain.ErrNotFound
	}
	return s.rec, nil
}
func (s *stubShows) Update(context.Context, int, map[string]any) error { return nil }
func (s *stubShows) Delete(context.Context, int) (int64, error)       { return 0, nil }
func (s *stubShows) Latest(context.Context, int64) ([]domain.ShowRecord, error) {
	return nil, nil
}
func (s *stubShows) Paginated(context.Context, domain.PageRequest) ([]domain.MediaCard, int64, error) {
	return nil, 0, nil
}
func (s *stubShows) Search(context.Context, string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (s *stubShows) SearchSubstring(context.Context, string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (s *stubShows) Similar(context.Context, []string, int64) ([]domain.MediaCard, error) {
	return nil, nil
}
func (s *stubShows) GetMany(context.Context, []int) ([]domain.MediaCard, error) { return nil, nil }

type stubResolver struct {
	loc domain.FileLocator
	err error
}

func (r *stubResolver) FileProperties(ctx context.Context, chatID int64, messageID int) (domain.FileLocator, error) {
	return r.loc, r.err
}

func testUsecase() *StreamVideo {
	return &StreamVideo{
		Movies: &stubMovies{rec: domain.MovieRecord{
			MID: 603,
			Qualities: []domain.QualityVariant{
				{Type: "720p", FileHash: "AQADAg", MsgID: 11, ChatID: -100555},
				{Type: "1080p", FileHash: "BQBDEf", MsgID: 12, ChatID: -100555},
			},
		}},
		Shows: &stubShows{rec: domain.ShowRecord{
			SID: 1396,
			Seasons: []domain.Season{{
				SeasonNumber: 5,
				Episodes: []domain.Episode{{
					EpisodeNumber: 14,
					Qualities:     []domain.QualityVariant{{Type: "720p", FileHash: "CQCDGh", MsgID: 77, ChatID: -100888}},
				}},
			}},
		}},
	}
}

func TestStreamVideoMovie(t *testing.T) {
	uc := testUsecase()
	resolver := &stubResolver{loc: domain.FileLocator{UniqueID: "BQBDEfXYZ", FileSize: 1 << 30}}

	src, err := uc.Execute(context.Background(), StreamRequest{
		ID: 603, MediaType: domain.MediaMovie, QualityIndex: 1,
	}, resolver)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if src.Variant.Type != "1080p" || src.Locator.FileSize != 1<<30 {
		t.Errorf("source = %+v", src)
	}
}

func TestStreamVideoEpisode(t *testing.T) {
	uc := testUsecase()
	resolver := &stubResolver{loc: domain.FileLocator{UniqueID: "CQCDGh123"}}

	src, err := uc.Execute(context.Background(), StreamRequest{
		ID: 1396, MediaType: domain.MediaShow, Season: 5, Episode: 14,
	}, resolver)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if src.Variant.MsgID != 77 {
		t.Errorf("variant = %+v", src.Variant)
	}
}

func TestStreamVideoHashMismatch(t *testing.T) {
	uc := testUsecase()
	resolver := &stubResolver{loc: domain.FileLocator{UniqueID: "DIFFERENT"}}

	_, err := uc.Execute(context.Background(), StreamRequest{
		ID: 603, MediaType: domain.MediaMovie, QualityIndex: 0,
	}, resolver)
	if !errors.Is(err, domain.ErrHashMismatch) {
		t.Errorf("err = %v, want ErrHashMismatch", err)
	}
}

func TestStreamVideoUnknownContent(t *testing.T) {
	uc := testUsecase()
	resolver := &stubResolver{}

	tests := []StreamRequest{
		{ID: 999, MediaType: domain.MediaMovie},
		{ID: 1396, MediaType: domain.MediaShow, Season: 9, Episode: 1},
		{ID: 1396, MediaType: domain.MediaShow, Season: 5, Episode: 99},
	}
	for _, req := range tests {
		if _, err := uc.Execute(context.Background(), req, resolver); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("req %+v: err = %v, want ErrNotFound", req, err)
		}
	}
}

func TestStreamVideoQualityIndexOutOfRange(t *testing.T) {
	uc := testUsecase()
	resolver := &stubResolver{}

	for _, index := range []int{-1, 2, 99} {
		_, err := uc.Execute(context.Background(), StreamRequest{
			ID: 603, MediaType: domain.MediaMovie, QualityIndex: index,
		}, resolver)
		if !errors.Is(err, ErrInvalidQualityIndex) {
			t.Errorf("index %d: err = %v, want ErrInvalidQualityIndex", index, err)
		}
	}
}

func TestStreamVideoResolverFailure(t *testing.T) {
	uc := testUsecase()

	resolver := &stubResolver{err: errors.New("dc unreachable")}
	_, err := uc.Execute(context.Background(), StreamRequest{ID: 603, MediaType: domain.MediaMovie}, resolver)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}

	resolver.err = domain.ErrNotFound
	_, err = uc.Execute(context.Background(), StreamRequest{ID: 603, MediaType: domain.MediaMovie}, resolver)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound passthrough", err)
	}
}

func TestDownloadFileName(t *testing.T) {
	if got := DownloadFileName(domain.FileLocator{FileName: "movie.mkv"}); got != "movie.mkv" {
		t.Errorf("got %q", got)
	}

	got := DownloadFileName(domain.FileLocator{MimeType: "video/mp4"})
	if !strings.HasSuffix(got, ".mp4") || len(got) != len("ABCD.mp4") {
		t.Errorf("fallback name = %q, want 4 hex chars + .mp4", got)
	}
	for _, ch := range strings.TrimSuffix(got, ".mp4") {
		if !strings.ContainsRune("0123456789ABCDEF", ch) {
			t.Errorf("fallback name %q not upper hex", got)
		}
	}

	if got := DownloadFileName(domain.FileLocator{}); !strings.HasSuffix(got, ".unknown") {
		t.Errorf("got %q, want .unknown suffix", got)
	}
}

package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
)

// FileResolver resolves a stored chat message to its live file locator.
// Satisfied by a streamer acquired from the worker fleet.
type FileResolver interface {
	FileProperties(ctx context.Context, chatID int64, messageID int) (domain.FileLocator, error)
}

type StreamRequest struct {
	ID           int
	MediaType    domain.MediaType
	QualityIndex int
	Season       int
	Episode      int
}

// StreamSource is everything the range handler needs to serve bytes.
type StreamSource struct {
	Variant domain.QualityVariant
	Locator domain.FileLocator
}

// StreamVideo maps a verified stream token to a live file. The stored
// hash must still prefix the live unique id: a repost under the same
// message id silently swaps the file, and serving it would hand the
// client mismatched bytes.
type StreamVideo struct {
	Movies ports.MovieStore
	Shows  ports.ShowStore
}

func (uc *StreamVideo) Execute(ctx context.Context, req StreamRequest, resolver FileResolver) (StreamSource, error) {
	variant, err := uc.variant(ctx, req)
	if err != nil {
		return StreamSource{}, err
	}

	loc, err := resolver.FileProperties(ctx, variant.ChatID, variant.MsgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return StreamSource{}, err
		}
		return StreamSource{}, wrapUpstream(err)
	}

	if variant.FileHash != "" && !strings.HasPrefix(loc.UniqueID, variant.FileHash) {
		return StreamSource{}, domain.ErrHashMismatch
	}
	return StreamSource{Variant: variant, Locator: loc}, nil
}

func (uc *StreamVideo) variant(ctx context.Context, req StreamRequest) (domain.QualityVariant, error) {
	if req.MediaType == domain.MediaMovie {
		rec, err := uc.Movies.Get(ctx, req.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.QualityVariant{}, err
			}
			return domain.QualityVariant{}, wrapRepo(err)
		}
		return pickQuality(rec.Qualities, req.QualityIndex)
	}

	rec, err := uc.Shows.Get(ctx, req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.QualityVariant{}, err
		}
		return domain.QualityVariant{}, wrapRepo(err)
	}
	for _, season := range rec.Seasons {
		if season.SeasonNumber != req.Season {
			continue
		}
		for _, ep := range season.Episodes {
			if ep.EpisodeNumber == req.Episode {
				return pickQuality(ep.Qualities, req.QualityIndex)
			}
		}
	}
	return domain.QualityVariant{}, domain.ErrNotFound
}

func pickQuality(qualities []domain.QualityVariant, index int) (domain.QualityVariant, error) {
	if index < 0 || index >= len(qualities) {
		return domain.QualityVariant{}, ErrInvalidQualityIndex
	}
	return qualities[index], nil
}

// DownloadFileName returns the upstream file name, or a short random
// hex name with an extension guessed from the mime subtype.
func DownloadFileName(loc domain.FileLocator) string {
	if loc.FileName != "" {
		return loc.FileName
	}

	var buf [2]byte
	_, _ = rand.Read(buf[:])
	name := strings.ToUpper(hex.EncodeToString(buf[:]))

	ext := "unknown"
	if _, sub, ok := strings.Cut(loc.MimeType, "/"); ok && sub != "" {
		ext = sub
	}
	return name + "." + ext
}

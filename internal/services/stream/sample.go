package stream

import (
	"bytes"
	"context"

	"reelstream/internal/domain"
)

// Sample resolves a chat message to its file and reads up to maxBytes
// from the start, enough container header for a probe pass.
func (s *Streamer) Sample(ctx context.Context, chatID int64, messageID int, maxBytes int64) (domain.FileLocator, []byte, error) {
	loc, err := s.FileProperties(ctx, chatID, messageID)
	if err != nil {
		return domain.FileLocator{}, nil, err
	}
	if loc.FileSize <= 0 || maxBytes <= 0 {
		return loc, nil, nil
	}

	until := maxBytes
	if until > loc.FileSize {
		until = loc.FileSize
	}
	plan := BuildPlan(loc.FileSize, 0, until-1)

	var buf bytes.Buffer
	if err := s.StreamRange(ctx, loc, plan, &buf, func() {}); err != nil {
		return loc, nil, err
	}
	return loc, buf.Bytes(), nil
}

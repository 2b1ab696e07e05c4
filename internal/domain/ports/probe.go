package ports

import (
	"context"
	"io"

	"reelstream/internal/domain"
)

// MediaProber inspects the first streamed chunk of a file and reports
// its track layout and quality label.
type MediaProber interface {
	Probe(ctx context.Context, sample io.Reader, uniqueID string) (domain.MediaInfo, error)
}

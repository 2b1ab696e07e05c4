package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reelstream/internal/domain"
)

// DeepLink encodes the exact content coordinate delivered through the
// bot's start payload: file_<id>_<m|s>_<qualityIdx>_<season>_<episode>.
type DeepLink struct {
	ID           int
	MediaType    domain.MediaType
	QualityIndex int
	Season       int
	Episode      int
}

const deepLinkPrefix = "file_"

var ErrBadDeepLink = errors.New("malformed deep link payload")

func (l DeepLink) Payload() string {
	kind := "m"
	if l.MediaType == domain.MediaShow {
		kind = "s"
	}
	return fmt.Sprintf("%s%d_%s_%d_%d_%d", deepLinkPrefix, l.ID, kind, l.QualityIndex, l.Season, l.Episode)
}

func ParseDeepLink(payload string) (DeepLink, error) {
	rest, ok := strings.CutPrefix(payload, deepLinkPrefix)
	if !ok {
		return DeepLink{}, fmt.Errorf("%w: %q", ErrBadDeepLink, payload)
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 5 {
		return DeepLink{}, fmt.Errorf("%w: want 5 fields, got %d", ErrBadDeepLink, len(parts))
	}

	var link DeepLink
	switch parts[1] {
	case "m":
		link.MediaType = domain.MediaMovie
	case "s":
		link.MediaType = domain.MediaShow
	default:
		return DeepLink{}, fmt.Errorf("%w: media kind %q", ErrBadDeepLink, parts[1])
	}

	var err error
	if link.ID, err = strconv.Atoi(parts[0]); err != nil || link.ID <= 0 {
		return DeepLink{}, fmt.Errorf("%w: id %q", ErrBadDeepLink, parts[0])
	}
	if link.QualityIndex, err = strconv.Atoi(parts[2]); err != nil || link.QualityIndex < 0 {
		return DeepLink{}, fmt.Errorf("%w: quality index %q", ErrBadDeepLink, parts[2])
	}
	if link.Season, err = strconv.Atoi(parts[3]); err != nil || link.Season < 0 {
		return DeepLink{}, fmt.Errorf("%w: season %q", ErrBadDeepLink, parts[3])
	}
	if link.Episode, err = strconv.Atoi(parts[4]); err != nil || link.Episode < 0 {
		return DeepLink{}, fmt.Errorf("%w: episode %q", ErrBadDeepLink, parts[4])
	}
	if link.MediaType == domain.MediaShow && (link.Season == 0 || link.Episode == 0) {
		return DeepLink{}, fmt.Errorf("%w: show link without episode coordinate", ErrBadDeepLink)
	}
	return link, nil
}

package ingest

import (
	"errors"
	"testing"

	"reelstream/internal/domain"
)

func TestDeepLinkRoundTrip(t *testing.T) {
	tests := []DeepLink{
		{ID: 603, MediaType: domain.MediaMovie},
		{ID: 603, MediaType: domain.MediaMovie, QualityIndex: 2},
		{ID: 1396, MediaType: domain.MediaShow, QualityIndex: 1, Season: 5, Episode: 14},
	}
	for _, link := range tests {
		got, err := ParseDeepLink(link.Payload())
		if err != nil {
			t.Fatalf("ParseDeepLink(%q): %v", link.Payload(), err)
		}
		if got != link {
			t.Errorf("round trip: got %+v, want %+v", got, link)
		}
	}
}

func TestDeepLinkPayloadFormat(t *testing.T) {
	link := DeepLink{ID: 1396, MediaType: domain.MediaShow, QualityIndex: 1, Season: 5, Episode: 14}
	if got := link.Payload(); got != "file_1396_s_1_5_14" {
		t.Errorf("Payload = %q", got)
	}
	movie := DeepLink{ID: 603, MediaType: domain.MediaMovie}
	if got := movie.Payload(); got != "file_603_m_0_0_0" {
		t.Errorf("Payload = %q", got)
	}
}

func TestParseDeepLinkRejects(t *testing.T) {
	tests := []string{
		"",
		"start",
		"file_",
		"file_603_m_0_0",        // too few fields
		"file_603_x_0_0_0",      // unknown kind
		"file_abc_m_0_0_0",      // non-numeric id
		"file_0_m_0_0_0",        // zero id
		"file_603_m_-1_0_0",     // negative quality index
		"file_1396_s_0_0_0",     // show without episode coordinate
		"file_1396_s_0_5_0",     // show without episode
		"file_603_m_0_0_0_junk", // trailing field
	}
	for _, payload := range tests {
		if _, err := ParseDeepLink(payload); !errors.Is(err, ErrBadDeepLink) {
			t.Errorf("ParseDeepLink(%q) err = %v, want ErrBadDeepLink", payload, err)
		}
	}
}

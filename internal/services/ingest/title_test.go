package ingest

import (
	"errors"
	"testing"
)

func TestParseMediaNameMovies(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		title string
		year  int
	}{
		{"dotted release name", "The.Matrix.1999.1080p.BluRay.x264.mkv", "The Matrix", 1999},
		{"underscores", "Blade_Runner_2049_2017_WEB-DL.mp4", "Blade Runner 2049", 2017},
		{"no year", "Inception.2160p.HEVC.mkv", "Inception", 0},
		{"plain name", "Coherence.mkv", "Coherence", 0},
		{"bracketed tag", "Dune [Part Two].mkv", "Dune", 0},
		{"quality before year", "Heat.1080p.1995.mkv", "Heat", 1995},
		{"spaces", "Mad Max Fury Road 2015 720p.mkv", "Mad Max Fury Road", 2015},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMediaName(tt.in)
			if err != nil {
				t.Fatalf("ParseMediaName(%q): %v", tt.in, err)
			}
			if got.Title != tt.title || got.Year != tt.year {
				t.Errorf("got %+v, want title %q year %d", got, tt.title, tt.year)
			}
			if got.Season != 0 || got.Episode != 0 {
				t.Errorf("movie parsed with episode coordinate: %+v", got)
			}
		})
	}
}

func TestParseMediaNameEpisodes(t *testing.T) {
	tests := []struct {
		in      string
		title   string
		season  int
		episode int
		year    int
	}{
		{"Breaking.Bad.S05E14.1080p.WEB-DL.mkv", "Breaking Bad", 5, 14, 0},
		{"The.Expanse.2015.S01E01.720p.mkv", "The Expanse", 1, 1, 2015},
		{"Fargo 2x03 HDTV.mp4", "Fargo", 2, 3, 0},
		{"dark.s03e08.mkv", "dark", 3, 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMediaName(tt.in)
			if err != nil {
				t.Fatalf("ParseMediaName(%q): %v", tt.in, err)
			}
			if got.Title != tt.title || got.Season != tt.season || got.Episode != tt.episode || got.Year != tt.year {
				t.Errorf("got %+v, want {%q %d S%dE%d}", got, tt.title, tt.year, tt.season, tt.episode)
			}
		})
	}
}

func TestParseMediaNameStripsUploaderTags(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		title string
		year  int
	}{
		{"leading handle", "@ChannelName_Movie_Name_2020_1080p.mkv", "Movie Name", 2020},
		{"inline handle", "Movie_@cinerips_2020.mkv", "Movie", 2020},
		{"spaced handle", "@ChannelName Heat 1995.mkv", "Heat", 1995},
		{"uploads suffix", "TeamX_Uploads_Dune_2021_2160p.mkv", "Dune", 2021},
		{"by prefix", "by_uploader_Alien_1979.mkv", "Alien", 1979},
		{"bracketed channel", "[MovieHub] Inception 2010 720p.mkv", "Inception", 2010},
		{"parenthesized channel", "(cinerips) Heat 1995.mkv", "Heat", 1995},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMediaName(tt.in)
			if err != nil {
				t.Fatalf("ParseMediaName(%q): %v", tt.in, err)
			}
			if got.Title != tt.title || got.Year != tt.year {
				t.Errorf("got %+v, want title %q year %d", got, tt.title, tt.year)
			}
		})
	}
}

func TestSanitizeNameFirstPatternWins(t *testing.T) {
	// A leading handle and an inline handle are both present; only the
	// first matching rule applies, the inline tag is cut later with the
	// release markers.
	got := sanitizeName("@ChannelName_Movie_@mirror_2020.mkv")
	if got != " Movie_@mirror_2020.mkv" {
		t.Errorf("sanitizeName = %q", got)
	}
}

func TestParseMediaNameRejects(t *testing.T) {
	tests := []string{
		"",
		".mkv",
		"Better.Call.Saul.Season.3.mkv", // season pack without episode
		"Show.S02.1080p.mkv",
	}
	for _, in := range tests {
		if _, err := ParseMediaName(in); !errors.Is(err, ErrUnparsableName) {
			t.Errorf("ParseMediaName(%q) err = %v, want ErrUnparsableName", in, err)
		}
	}
}

func TestParseMediaNameFirstMarkerWins(t *testing.T) {
	// Both a codec and a source tag are present; the cut happens at the
	// earliest marker in the ordered rule list that matches.
	got, err := ParseMediaName("Arrival.2016.BluRay.x264.AAC.mkv")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Arrival" || got.Year != 2016 {
		t.Errorf("got %+v", got)
	}
}

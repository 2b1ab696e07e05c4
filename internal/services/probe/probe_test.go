package probe

import (
	"strings"
	"testing"
)

func TestQualityLabel(t *testing.T) {
	tests := []struct {
		height int
		want   string
	}{
		{0, ""},
		{-1, ""},
		{240, "360p"},
		{360, "360p"},
		{361, "480p"},
		{480, "480p"},
		{540, "540p"},
		{576, "720p"},
		{720, "720p"},
		{1080, "1080p"},
		{1088, "2160p"},
		{2160, "2160p"},
		{4320, "4320p"},
		{5000, "8640p"},
	}
	for _, tt := range tests {
		if got := QualityLabel(tt.height); got != tt.want {
			t.Errorf("QualityLabel(%d) = %q, want %q", tt.height, got, tt.want)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	payload := `{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "height": 1080},
			{"codec_type": "audio", "codec_name": "aac", "tags": {"language": "eng"}},
			{"codec_type": "audio", "codec_name": "ac3", "tags": {"title": "Commentary"}},
			{"codec_type": "subtitle", "codec_name": "subrip", "tags": {"language": "rus"}}
		],
		"format": {"format_name": "matroska,webm"}
	}`

	info, err := parseProbeOutput([]byte(payload))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if info.FileType != "matroska" {
		t.Errorf("FileType = %q, want matroska", info.FileType)
	}
	if info.VideoCodec != "h264" {
		t.Errorf("VideoCodec = %q", info.VideoCodec)
	}
	if info.Height != 1080 || info.Quality != "1080p" {
		t.Errorf("Height/Quality = %d/%q", info.Height, info.Quality)
	}
	if info.Audio != "eng, Commentary" {
		t.Errorf("Audio = %q", info.Audio)
	}
	if info.Subtitle != "rus" {
		t.Errorf("Subtitle = %q", info.Subtitle)
	}
}

func TestParseProbeOutputPicksTallestVideoStream(t *testing.T) {
	payload := `{
		"streams": [
			{"codec_type": "video", "codec_name": "mjpeg", "height": 120},
			{"codec_type": "video", "codec_name": "h264", "height": 2160}
		],
		"format": {"format_name": "mp4"}
	}`
	info, err := parseProbeOutput([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if info.Height != 2160 || info.Quality != "2160p" {
		t.Errorf("Height/Quality = %d/%q", info.Height, info.Quality)
	}
	// The first video stream wins the codec slot even if a later one is taller.
	if info.VideoCodec != "mjpeg" {
		t.Errorf("VideoCodec = %q", info.VideoCodec)
	}
}

func TestParseProbeOutputRejectsGarbage(t *testing.T) {
	if _, err := parseProbeOutput([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWriteSampleTruncatesUniqueID(t *testing.T) {
	p := New("ffprobe", t.TempDir())
	path, err := p.writeSample(strings.NewReader("header bytes"), "AQADAgAT6bFaTz34567890EXTRA")
	if err != nil {
		t.Fatalf("writeSample: %v", err)
	}
	if !strings.HasSuffix(path, "sample_AQADAgAT6bFa") {
		t.Errorf("path = %q, want 12-char suffix", path)
	}
}

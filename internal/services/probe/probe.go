package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reelstream/internal/domain"
)

const maxProbeTimeout = 30 * time.Second

// Prober runs ffprobe over the first streamed chunk of a file. The
// sample is written to a temp file under dir because ffprobe seeks
// within container headers and pipes break that for some formats.
type Prober struct {
	binary string
	dir    string
}

func New(binary, dir string) *Prober {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		bin = "ffprobe"
	}
	if strings.TrimSpace(dir) == "" {
		dir = "mediainfo"
	}
	return &Prober{binary: bin, dir: dir}
}

func (p *Prober) Probe(ctx context.Context, sample io.Reader, uniqueID string) (domain.MediaInfo, error) {
	if sample == nil {
		return domain.MediaInfo{}, errors.New("sample reader is required")
	}

	path, err := p.writeSample(sample, uniqueID)
	if err != nil {
		return domain.MediaInfo{}, err
	}
	defer os.Remove(path)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxProbeTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	info, parseErr := parseProbeOutput(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return domain.MediaInfo{}, fmt.Errorf("ffprobe failed: %w", runErr)
			}
			return domain.MediaInfo{}, fmt.Errorf("ffprobe failed: %w: %s", runErr, msg)
		}
		return domain.MediaInfo{}, fmt.Errorf("ffprobe output parse failed: %w", parseErr)
	}

	// ffprobe exits non-zero on truncated input but usually still emits
	// usable stream metadata. Keep it when present.
	if runErr != nil && info.Height == 0 && info.FileType == "" {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return domain.MediaInfo{}, fmt.Errorf("ffprobe failed: %w", runErr)
		}
		return domain.MediaInfo{}, fmt.Errorf("ffprobe failed: %w: %s", runErr, msg)
	}

	return info, nil
}

func (p *Prober) writeSample(sample io.Reader, uniqueID string) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create sample dir: %w", err)
	}
	name := strings.TrimSpace(uniqueID)
	if len(name) > 12 {
		name = name[:12]
	}
	if name == "" {
		name = "anon"
	}
	path := filepath.Join(p.dir, "sample_"+name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create sample file: %w", err)
	}
	if _, err := io.Copy(f, sample); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write sample: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close sample: %w", err)
	}
	return path, nil
}

// probePayload is the subset of ffprobe JSON output we parse.
type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Height    int               `json:"height"`
	Tags      map[string]string `json:"tags"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
}

func parseProbeOutput(data []byte) (domain.MediaInfo, error) {
	var payload probePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.MediaInfo{}, err
	}

	var info domain.MediaInfo
	var audio, subs []string

	for _, stream := range payload.Streams {
		switch stream.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = stream.CodecName
			}
			if stream.Height > info.Height {
				info.Height = stream.Height
			}
		case "audio":
			audio = appendTrackLabel(audio, stream)
		case "subtitle":
			subs = appendTrackLabel(subs, stream)
		}
	}

	info.FileType = firstFormatName(payload.Format.FormatName)
	info.Audio = strings.Join(audio, ", ")
	info.Subtitle = strings.Join(subs, ", ")
	info.Quality = QualityLabel(info.Height)
	return info, nil
}

func appendTrackLabel(labels []string, stream probeStream) []string {
	label := strings.TrimSpace(stream.Tags["title"])
	if label == "" {
		label = strings.TrimSpace(stream.Tags["language"])
	}
	if label == "" {
		label = stream.CodecName
	}
	if label == "" {
		return labels
	}
	return append(labels, label)
}

// firstFormatName picks the first entry from ffprobe's comma-joined
// format_name list (e.g. "mov,mp4,m4a,3gp,3g2,mj2").
func firstFormatName(name string) string {
	name, _, _ = strings.Cut(strings.TrimSpace(name), ",")
	return name
}

// QualityLabel maps a video height in pixels to the catalog's quality
// bucket. Heights between standard resolutions round up.
func QualityLabel(height int) string {
	switch {
	case height <= 0:
		return ""
	case height <= 360:
		return "360p"
	case height <= 480:
		return "480p"
	case height <= 540:
		return "540p"
	case height <= 720:
		return "720p"
	case height <= 1080:
		return "1080p"
	case height <= 2160:
		return "2160p"
	case height <= 4320:
		return "4320p"
	default:
		return "8640p"
	}
}

package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedName is the content coordinate extracted from a file name or
// caption. Season zero means a movie.
type ParsedName struct {
	Title   string
	Year    int
	Season  int
	Episode int
}

var ErrUnparsableName = errors.New("unparsable media name")

var (
	seasonEpisodeRe = regexp.MustCompile(`(?i)\bS(\d{1,2})[ ._-]?E(\d{1,3})\b`)
	episodeAltRe    = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`)
	seasonOnlyRe    = regexp.MustCompile(`(?i)\bS(?:eason[ ._-]?)?(\d{1,2})\b`)
	yearRe          = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// uploaderMarkers strip channel handles and promo prefixes that
// uploaders prepend to file names. The list is ordered and only the
// first matching pattern is substituted.
var uploaderMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^@[\w.-]+?_`),
	regexp.MustCompile(`_@[A-Za-z]+_|@[A-Za-z]+_|[\[\]\s@]*@[^.\s\[\]]+[\]\[\s@]*`),
	regexp.MustCompile(`^[\w.-]+?_Uploads_`),
	regexp.MustCompile(`^(?:by|from)[\s_-]+[\w.-]+?_`),
	regexp.MustCompile(`^\[[\w.-]+?\][\s_-]*`),
	regexp.MustCompile(`^\([\w.-]+?\)[\s_-]*`),
}

var edgeSeparatorRe = regexp.MustCompile(`^[_\s-]+|[_\s-]+$`)

// sanitizeName removes uploader tags from a raw name so they never
// leak into the title or the metadata lookup.
func sanitizeName(raw string) string {
	for _, re := range uploaderMarkers {
		if re.MatchString(raw) {
			raw = re.ReplaceAllString(raw, " ")
			break
		}
	}
	return edgeSeparatorRe.ReplaceAllString(raw, " ")
}

// cutMarkers truncate the name at the first matching release tag. The
// list is ordered and only the first match applies.
var cutMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(2160|1080|720|540|480|360)p\b`),
	regexp.MustCompile(`(?i)\b4k\b`),
	regexp.MustCompile(`(?i)\b(blu-?ray|bdrip|brrip|web-?dl|web-?rip|hdtv|dvdrip|camrip|hdrip)\b`),
	regexp.MustCompile(`(?i)\b(x264|x265|h264|h265|hevc|avc|av1)\b`),
	regexp.MustCompile(`(?i)\b(aac|ac3|dts|ddp?5\.?1|atmos)\b`),
	regexp.MustCompile(`(?i)\b(remux|proper|repack|extended|unrated|imax)\b`),
	regexp.MustCompile(`\[[^\]]*\]`),
}

// ParseMediaName derives {title, year, season, episode} from a release
// style file name. A season marker without an episode is an error: a
// bare season pack cannot be mapped to one catalog entry.
func ParseMediaName(raw string) (ParsedName, error) {
	name := sanitizeName(raw)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ParsedName{}, fmt.Errorf("%w: empty name", ErrUnparsableName)
	}

	var parsed ParsedName
	cut := len(name)

	if m := seasonEpisodeRe.FindStringSubmatchIndex(name); m != nil {
		parsed.Season = atoi(name[m[2]:m[3]])
		parsed.Episode = atoi(name[m[4]:m[5]])
		cut = min(cut, m[0])
	} else if m := episodeAltRe.FindStringSubmatchIndex(name); m != nil {
		parsed.Season = atoi(name[m[2]:m[3]])
		parsed.Episode = atoi(name[m[4]:m[5]])
		cut = min(cut, m[0])
	} else if m := seasonOnlyRe.FindStringSubmatchIndex(name); m != nil {
		return ParsedName{}, fmt.Errorf("%w: season marker without episode in %q", ErrUnparsableName, raw)
	}

	// Titles can themselves contain a year ("Blade Runner 2049"), so the
	// release year is the last match, and it must leave something in
	// front to be a marker rather than the whole title.
	if all := yearRe.FindAllStringIndex(name, -1); len(all) > 0 {
		m := all[len(all)-1]
		if m[0] > 0 {
			parsed.Year = atoi(name[m[0]:m[1]])
			cut = min(cut, m[0])
		}
	}

	title := name[:cut]
	for _, re := range cutMarkers {
		if m := re.FindStringIndex(title); m != nil {
			title = title[:m[0]]
			break
		}
	}

	parsed.Title = strings.TrimRight(strings.TrimSpace(title), " ([")
	if parsed.Title == "" {
		return ParsedName{}, fmt.Errorf("%w: no title in %q", ErrUnparsableName, raw)
	}
	return parsed, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

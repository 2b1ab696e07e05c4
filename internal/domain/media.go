package domain

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaShow  MediaType = "show"
)

// QualityVariant is one physical file behind a movie or episode at a
// specific resolution. FileHash is the 6-character prefix of the upstream
// unique file id and is re-checked against the live locator before any
// byte is streamed.
type QualityVariant struct {
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	Audio      string `json:"audio"`
	VideoCodec string `json:"video_codec"`
	FileType   string `json:"file_type"`
	Subtitle   string `json:"subtitle"`
	FileHash   string `json:"file_hash"`
	MsgID      int    `json:"msg_id"`
	ChatID     int64  `json:"chat_id"`
	Runtime    int    `json:"runtime,omitempty"` // episodes only
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Profile   string `json:"profile,omitempty"`
}

type MovieRecord struct {
	MID           int              `json:"mid"`
	Title         string           `json:"title"`
	OriginalTitle string           `json:"original_title,omitempty"`
	ReleaseDate   string           `json:"release_date,omitempty"`
	Overview      string           `json:"overview,omitempty"`
	Poster        string           `json:"poster,omitempty"`
	Backdrop      string           `json:"backdrop,omitempty"`
	Runtime       int              `json:"runtime,omitempty"`
	Popularity    float64          `json:"popularity,omitempty"`
	VoteAverage   float64          `json:"vote_average,omitempty"`
	VoteCount     int              `json:"vote_count,omitempty"`
	Genres        []string         `json:"genres,omitempty"`
	Cast          []CastMember     `json:"cast,omitempty"`
	Directors     []string         `json:"directors,omitempty"`
	Studios       []string         `json:"studios,omitempty"`
	Links         []string         `json:"links,omitempty"`
	Logo          string           `json:"logo,omitempty"`
	Trailer       string           `json:"trailer,omitempty"`
	Qualities     []QualityVariant `json:"quality"`
	// Extra carries observed fields the schema does not model. Never
	// discarded on read.
	Extra map[string]any `json:"-"`
}

type Episode struct {
	EpisodeNumber int              `json:"episode_number"`
	Name          string           `json:"name,omitempty"`
	Overview      string           `json:"overview,omitempty"`
	StillPath     string           `json:"still_path,omitempty"`
	AirDate       string           `json:"air_date,omitempty"`
	Qualities     []QualityVariant `json:"quality"`
}

type Season struct {
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

type ShowRecord struct {
	SID           int            `json:"sid"`
	Title         string         `json:"title"`
	OriginalTitle string         `json:"original_title,omitempty"`
	FirstAirDate  string         `json:"first_air_date,omitempty"`
	Overview      string         `json:"overview,omitempty"`
	Poster        string         `json:"poster,omitempty"`
	Backdrop      string         `json:"backdrop,omitempty"`
	Popularity    float64        `json:"popularity,omitempty"`
	VoteAverage   float64        `json:"vote_average,omitempty"`
	VoteCount     int            `json:"vote_count,omitempty"`
	Genres        []string       `json:"genres,omitempty"`
	Cast          []CastMember   `json:"cast,omitempty"`
	Studios       []string       `json:"studios,omitempty"`
	Links         []string       `json:"links,omitempty"`
	Logo          string         `json:"logo,omitempty"`
	Trailer       string         `json:"trailer,omitempty"`
	Seasons       []Season       `json:"seasons"`
	TotalSeasons  int            `json:"total_seasons,omitempty"`
	TotalEpisodes int            `json:"total_episodes,omitempty"`
	Status        string         `json:"status,omitempty"`
	Extra         map[string]any `json:"-"`
}

// MediaCard is the projection used by listing, search and cache endpoints.
type MediaCard struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year,omitempty"`
	Poster      string    `json:"poster,omitempty"`
	VoteAverage float64   `json:"vote_average,omitempty"`
	VoteCount   int       `json:"vote_count,omitempty"`
	MediaType   MediaType `json:"media_type"`
	Score       float64   `json:"score,omitempty"` // search relevance only
}

// HeroItem is the metadata-lite projection shown on the front-page slider.
type HeroItem struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	MediaType   MediaType `json:"media_type"`
	Year        int       `json:"year,omitempty"`
	Backdrop    string    `json:"backdrop,omitempty"`
	Poster      string    `json:"poster,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Overview    string    `json:"overview,omitempty"`
	VoteAverage float64   `json:"vote_average,omitempty"`
}

type TrendingConfig struct {
	Movie []int `json:"movie"`
	Show  []int `json:"show"`
}

// PageRequest describes a paginated catalog listing. Sort accepts
// "new", "most" and "date"; anything else falls back to "new".
type PageRequest struct {
	Skip  int64
	Limit int64
	Sort  string
}

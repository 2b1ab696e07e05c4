package app

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr      string
	MongoURI      string
	MongoDatabase string
	LogLevel      string
	LogFormat     string

	// Upstream auth.
	APIID       int64
	APIHash     string
	BotToken    string
	RelayURL    string
	MultiTokens map[int]string // auxiliary slot id -> bot token

	// Chats.
	OwnerIDs  []int64
	AuthChats []int64
	LogsChat  int64
	PostChat  int64

	// Admin and signing.
	AdminUsername string
	AdminPassword string
	SigningSecret string

	// Enrichment.
	TMDBAPIKey  string
	FFProbePath string
	ProbeDir    string

	// Site behavior.
	SiteName            string
	SiteLink            string
	RegistrationEnabled bool
	PostUpdates         bool
	UseCaption          bool
	DeleteAfterMinutes  int
	MergeMovieQualities bool

	CORSAllowedOrigins []string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DB", "reelstream"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),

		APIID:       getEnvInt64("API_ID", 0),
		APIHash:     getEnv("API_HASH", ""),
		BotToken:    getEnv("BOT_TOKEN", ""),
		RelayURL:    getEnv("RELAY_URL", "http://localhost:8081"),
		MultiTokens: parseTokenMap(os.Getenv("MULTI_TOKENS")),

		OwnerIDs:  parseIDList(os.Getenv("OWNER_IDS")),
		AuthChats: parseIDList(os.Getenv("AUTH_CHATS")),
		LogsChat:  getEnvInt64Signed("LOGS_CHAT", 0),
		PostChat:  getEnvInt64Signed("POST_CHAT", 0),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		SigningSecret: getEnv("SIGNING_SECRET", ""),

		TMDBAPIKey:  getEnv("TMDB_API_KEY", ""),
		FFProbePath: getEnv("FFPROBE_PATH", "ffprobe"),
		ProbeDir:    getEnv("PROBE_DIR", "mediainfo"),

		SiteName:            getEnv("SITE_NAME", "reelstream"),
		SiteLink:            getEnv("SITE_LINK", ""),
		RegistrationEnabled: getEnvBool("REGISTRATION_ENABLED", true),
		PostUpdates:         getEnvBool("POST_UPDATES", false),
		UseCaption:          getEnvBool("USE_CAPTION", false),
		DeleteAfterMinutes:  int(getEnvInt64("DELETE_AFTER_MINUTES", 10)),
		MergeMovieQualities: getEnvBool("MERGE_MOVIE_QUALITIES", false),

		CORSAllowedOrigins: parseCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

// getEnvInt64Signed is getEnvInt64 without the non-negative guard;
// chat ids are negative for channels.
func getEnvInt64Signed(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseIDList parses a space-separated list of chat/user ids.
func parseIDList(value string) []int64 {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseTokenMap parses "1:token 2:token" into slot id -> token.
// Slot 0 is reserved for the primary bot token.
func parseTokenMap(value string) map[int]string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	out := make(map[int]string, len(fields))
	for _, f := range fields {
		idx := strings.IndexByte(f, ':')
		if idx <= 0 || idx == len(f)-1 {
			continue
		}
		slot, err := strconv.Atoi(f[:idx])
		if err != nil || slot <= 0 {
			continue
		}
		out[slot] = f[idx+1:]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

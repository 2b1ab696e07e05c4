package app

import (
	"os"
	"testing"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func clearEnvs(t *testing.T, keys []string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnvs(t, []string{
		"HTTP_ADDR", "MONGO_URI", "MONGO_DB", "LOG_LEVEL", "LOG_FORMAT",
		"API_ID", "API_HASH", "BOT_TOKEN", "RELAY_URL", "MULTI_TOKENS",
		"OWNER_IDS", "AUTH_CHATS", "LOGS_CHAT", "POST_CHAT",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "SIGNING_SECRET",
		"TMDB_API_KEY", "FFPROBE_PATH", "PROBE_DIR",
		"SITE_NAME", "SITE_LINK", "REGISTRATION_ENABLED",
		"POST_UPDATES", "USE_CAPTION", "DELETE_AFTER_MINUTES",
		"MERGE_MOVIE_QUALITIES", "CORS_ALLOWED_ORIGINS",
	})

	cfg := LoadConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"MongoURI", cfg.MongoURI, "mongodb://localhost:27017"},
		{"MongoDatabase", cfg.MongoDatabase, "reelstream"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"RelayURL", cfg.RelayURL, "http://localhost:8081"},
		{"AdminUsername", cfg.AdminUsername, "admin"},
		{"FFProbePath", cfg.FFProbePath, "ffprobe"},
		{"ProbeDir", cfg.ProbeDir, "mediainfo"},
		{"SiteName", cfg.SiteName, "reelstream"},
		{"RegistrationEnabled", cfg.RegistrationEnabled, true},
		{"PostUpdates", cfg.PostUpdates, false},
		{"UseCaption", cfg.UseCaption, false},
		{"DeleteAfterMinutes", cfg.DeleteAfterMinutes, 10},
		{"MergeMovieQualities", cfg.MergeMovieQualities, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}

	if cfg.MultiTokens != nil {
		t.Errorf("MultiTokens: got %v, want nil", cfg.MultiTokens)
	}
	if cfg.OwnerIDs != nil {
		t.Errorf("OwnerIDs: got %v, want nil", cfg.OwnerIDs)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"HTTP_ADDR":             ":9090",
		"MONGO_URI":             "mongodb://remote:27017",
		"MONGO_DB":              "mydb",
		"LOG_LEVEL":             "DEBUG",
		"LOG_FORMAT":            "JSON",
		"API_ID":                "12345",
		"API_HASH":              "abcdef",
		"BOT_TOKEN":             "123:primary",
		"RELAY_URL":             "http://relay:9000",
		"MULTI_TOKENS":          "1:tok-one 2:tok-two",
		"OWNER_IDS":             "111 222",
		"AUTH_CHATS":            "-1001 -1002",
		"LOGS_CHAT":             "-100999",
		"POST_CHAT":             "-100888",
		"ADMIN_USERNAME":        "root",
		"ADMIN_PASSWORD":        "secret",
		"SIGNING_SECRET":        "hmac-key",
		"DELETE_AFTER_MINUTES":  "5",
		"POST_UPDATES":          "true",
		"USE_CAPTION":           "yes",
		"MERGE_MOVIE_QUALITIES": "1",
		"CORS_ALLOWED_ORIGINS":  "http://localhost:3000, https://example.com",
	})

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("log settings not lowercased: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.APIID != 12345 {
		t.Errorf("APIID: got %d", cfg.APIID)
	}
	if cfg.LogsChat != -100999 {
		t.Errorf("LogsChat: got %d, want -100999", cfg.LogsChat)
	}
	if len(cfg.MultiTokens) != 2 || cfg.MultiTokens[1] != "tok-one" || cfg.MultiTokens[2] != "tok-two" {
		t.Errorf("MultiTokens: got %v", cfg.MultiTokens)
	}
	if len(cfg.OwnerIDs) != 2 || cfg.OwnerIDs[0] != 111 || cfg.OwnerIDs[1] != 222 {
		t.Errorf("OwnerIDs: got %v", cfg.OwnerIDs)
	}
	if len(cfg.AuthChats) != 2 || cfg.AuthChats[0] != -1001 {
		t.Errorf("AuthChats: got %v", cfg.AuthChats)
	}
	if !cfg.PostUpdates || !cfg.UseCaption || !cfg.MergeMovieQualities {
		t.Errorf("bool toggles not parsed: %+v", cfg)
	}
	if cfg.DeleteAfterMinutes != 5 {
		t.Errorf("DeleteAfterMinutes: got %d", cfg.DeleteAfterMinutes)
	}

	wantOrigins := []string{"http://localhost:3000", "https://example.com"}
	if len(cfg.CORSAllowedOrigins) != len(wantOrigins) {
		t.Fatalf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
	for i, got := range cfg.CORSAllowedOrigins {
		if got != wantOrigins[i] {
			t.Errorf("CORSAllowedOrigins[%d]: got %q, want %q", i, got, wantOrigins[i])
		}
	}
}

func TestParseTokenMap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[int]string
	}{
		{"empty", "", nil},
		{"single", "1:abc", map[int]string{1: "abc"}},
		{"multiple", "1:a 3:c", map[int]string{1: "a", 3: "c"}},
		{"slot zero rejected", "0:primary 2:b", map[int]string{2: "b"}},
		{"malformed entries skipped", "nope 4: :x 5:ok", map[int]string{5: "ok"}},
		{"token with colon", "1:123:abc", map[int]string{1: "123:abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTokenMap(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseTokenMap(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseTokenMap(%q)[%d] = %q, want %q", tt.input, k, got[k], v)
				}
			}
		})
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int64
	}{
		{"empty", "", nil},
		{"single", "42", []int64{42}},
		{"negative channel ids", "-1001 -1002", []int64{-1001, -1002}},
		{"garbage skipped", "a 7 b 9", []int64{7, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseIDList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseIDList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("parseIDList(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		val      string
		fallback bool
		want     bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"YES", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL_VAR", tt.val)
		if got := getEnvBool("TEST_BOOL_VAR", tt.fallback); got != tt.want {
			t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.val, tt.fallback, got, tt.want)
		}
	}
}

package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/services/stream"
	"reelstream/internal/services/token"
	"reelstream/internal/usecase"
)

type StreamVideoUseCase interface {
	Execute(ctx context.Context, req usecase.StreamRequest, resolver usecase.FileResolver) (usecase.StreamSource, error)
}

// WorkerFleet hands out the least-loaded streaming slot. The release
// callback must run on every exit path.
type WorkerFleet interface {
	Acquire() (*stream.Streamer, func(), error)
	Loads() map[int]int64
}

type TokenService interface {
	IssueStream(claims token.StreamClaims) (string, error)
	VerifyStreamFor(raw, pathID string) (token.StreamClaims, error)
	VerifyAdmin(raw string) (token.AdminClaims, error)
	Login(username, password string) (string, error)
}

// CatalogCache serves front-page reads from the background snapshot.
type CatalogCache interface {
	HeroSlider() []domain.HeroItem
	Latest(mediaType domain.MediaType, limit int) []domain.MediaCard
	Trending() domain.TrendingSnapshot
	LastUpdated() time.Time
}

type QueueDepther interface {
	Depth() int
}

type Server struct {
	streamVideo    StreamVideoUseCase
	fleet          WorkerFleet
	tokens         TokenService
	movies         ports.MovieStore
	shows          ports.ShowStore
	users          ports.UserStore
	configs        ports.ConfigStore
	cache          CatalogCache
	queue          QueueDepther
	allowedOrigins []string
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithFleet(fleet WorkerFleet) ServerOption {
	return func(s *Server) {
		s.fleet = fleet
	}
}

func WithTokens(tokens TokenService) ServerOption {
	return func(s *Server) {
		s.tokens = tokens
	}
}

func WithMovieStore(store ports.MovieStore) ServerOption {
	return func(s *Server) {
		s.movies = store
	}
}

func WithShowStore(store ports.ShowStore) ServerOption {
	return func(s *Server) {
		s.shows = store
	}
}

func WithUserStore(store ports.UserStore) ServerOption {
	return func(s *Server) {
		s.users = store
	}
}

func WithConfigStore(store ports.ConfigStore) ServerOption {
	return func(s *Server) {
		s.configs = store
	}
}

func WithCatalogCache(cache CatalogCache) ServerOption {
	return func(s *Server) {
		s.cache = cache
	}
}

func WithQueue(queue QueueDepther) ServerOption {
	return func(s *Server) {
		s.queue = queue
	}
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(streamVideo StreamVideoUseCase, opts ...ServerOption) *Server {
	s := &Server{
		streamVideo: streamVideo,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", s.handleLogin)
	mux.HandleFunc("/api/v1/auth-check", s.handleAuthCheck)
	mux.HandleFunc("/api/v1/checkUser", s.handleCheckUser)
	mux.HandleFunc("/api/v1/heroslider", s.handleHeroSlider)
	mux.HandleFunc("/api/v1/getlatest/", s.handleGetLatest)
	mux.HandleFunc("/api/v1/getMovieDetails/", s.handleMovieDetails)
	mux.HandleFunc("/api/v1/getShowDetails/", s.handleShowDetails)
	mux.HandleFunc("/api/v1/paginated/", s.handlePaginated)
	mux.HandleFunc("/api/v1/trending", s.handleTrending)
	mux.HandleFunc("/api/v1/update_trending", s.handleUpdateTrending)
	mux.HandleFunc("/api/v1/search", s.handleSearch)
	mux.HandleFunc("/api/v1/search/", s.handleSearchSubstring)
	mux.HandleFunc("/api/v1/similar", s.handleSimilar)
	mux.HandleFunc("/api/v1/dl/", s.handleDownload)
	mux.HandleFunc("/api/v1/users", s.handleUsers)
	mux.HandleFunc("/api/v1/users/search", s.handleUserSearch)
	mux.HandleFunc("/api/v1/users/", s.handleUserByID)
	mux.HandleFunc("/api/v1/updateMovie/", s.handleUpdateMovie)
	mux.HandleFunc("/api/v1/updateShow/", s.handleUpdateShow)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "reelstream",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics" && r.URL.Path != "/ws"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(100, 200, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

type statusSnapshot struct {
	WorkerLoads  map[int]int64 `json:"worker_loads"`
	QueueDepth   int           `json:"queue_depth"`
	CacheUpdated time.Time     `json:"cache_updated"`
}

// BroadcastStatus pushes worker loads, queue depth and cache freshness
// to all connected WebSocket clients.
func (s *Server) BroadcastStatus() {
	if s.wsHub == nil {
		return
	}
	status := statusSnapshot{}
	if s.fleet != nil {
		status.WorkerLoads = s.fleet.Loads()
	}
	if s.queue != nil {
		status.QueueDepth = s.queue.Depth()
	}
	if s.cache != nil {
		status.CacheUpdated = s.cache.LastUpdated()
	}
	s.wsHub.Broadcast("status", status)
}

// Close shuts down the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	apihttp "reelstream/internal/api/http"
	"reelstream/internal/app"
	"reelstream/internal/domain"
	"reelstream/internal/metrics"
	mongorepo "reelstream/internal/repository/mongo"
	"reelstream/internal/services/bot"
	"reelstream/internal/services/catalog"
	"reelstream/internal/services/enrich"
	"reelstream/internal/services/ingest"
	"reelstream/internal/services/notify"
	"reelstream/internal/services/probe"
	"reelstream/internal/services/stream"
	"reelstream/internal/services/token"
	"reelstream/internal/telemetry"
	"reelstream/internal/upstream/relay"
	"reelstream/internal/usecase"
)

const serviceName = "reelstream"

func main() {
	cfg := app.LoadConfig()

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.Register(prometheus.DefaultRegisterer)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Init(rootCtx, serviceName)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				logger.Warn("tracer shutdown", "error", err)
			}
		}()
	}

	logger.Info("starting",
		"http_addr", cfg.HTTPAddr,
		"mongo_db", cfg.MongoDatabase,
		"relay_url", cfg.RelayURL,
		"aux_slots", len(cfg.MultiTokens),
	)

	connectCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	mongoClient, err := mongorepo.Connect(connectCtx, cfg.MongoURI,
		options.Client().SetMonitor(otelmongo.NewMonitor()))
	cancel()
	if err != nil {
		logger.Error("mongo connect", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect", "error", err)
		}
	}()

	movies := mongorepo.NewMovieRepository(mongoClient, cfg.MongoDatabase, cfg.MergeMovieQualities)
	shows := mongorepo.NewShowRepository(mongoClient, cfg.MongoDatabase)
	users := mongorepo.NewUserRepository(mongoClient, cfg.MongoDatabase)
	configs := mongorepo.NewConfigRepository(mongoClient, cfg.MongoDatabase)
	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{movies, shows, users, configs} {
		if err := idx.EnsureIndexes(rootCtx); err != nil {
			logger.Warn("ensure indexes", "error", err)
		}
	}

	primary, err := relay.Dial(rootCtx, cfg.RelayURL, cfg.BotToken, 0)
	if err != nil {
		logger.Error("relay dial", "slot", 0, "error", err)
		os.Exit(1)
	}

	fleet := stream.NewFleet(logger)
	fleet.Add(primary)
	for slot, botToken := range cfg.MultiTokens {
		aux, err := relay.Dial(rootCtx, cfg.RelayURL, botToken, slot)
		if err != nil {
			logger.Warn("relay dial", "slot", slot, "error", err)
			continue
		}
		fleet.Add(aux)
	}
	go fleet.Run(rootCtx)
	defer fleet.Close()

	tokens := token.NewService(cfg.SigningSecret, cfg.AdminUsername, cfg.AdminPassword)
	notifier := notify.New(primary, cfg.LogsChat, logger)
	enricher := enrich.NewService(enrich.NewTMDBClient(cfg.TMDBAPIKey), logger)
	prober := probe.New(cfg.FFProbePath, cfg.ProbeDir)

	cache := catalog.NewCache(movies, shows, configs, logger, notifier)
	go cache.Run(rootCtx)

	sampler, ok := fleet.Primary()
	if !ok {
		logger.Error("no primary streamer")
		os.Exit(1)
	}

	queue := ingest.NewQueue(logger)
	seeder := ingest.NewSeeder(primary, queue, logger)
	worker := ingest.NewWorker(queue, movies, shows, enricher, sampler, prober, cache, primary, notifier,
		ingest.WorkerConfig{
			UseCaption:  cfg.UseCaption,
			PostUpdates: cfg.PostUpdates,
			PostChat:    cfg.PostChat,
			SiteLink:    cfg.SiteLink,
		}, logger)
	worker.Run(rootCtx)

	router := bot.NewRouter(worker, seeder, users, movies, shows, primary, notifier,
		bot.RouterConfig{
			OwnerIDs:            cfg.OwnerIDs,
			AuthChats:           cfg.AuthChats,
			RegistrationEnabled: cfg.RegistrationEnabled,
			DeleteAfterMinutes:  cfg.DeleteAfterMinutes,
			SiteName:            cfg.SiteName,
			SiteLink:            cfg.SiteLink,
		}, logger)
	go pollUpdates(rootCtx, primary, router, logger)

	uc := &usecase.StreamVideo{Movies: movies, Shows: shows}

	handler := apihttp.NewServer(uc,
		apihttp.WithFleet(fleet),
		apihttp.WithTokens(tokens),
		apihttp.WithMovieStore(movies),
		apihttp.WithShowStore(shows),
		apihttp.WithUserStore(users),
		apihttp.WithConfigStore(configs),
		apihttp.WithCatalogCache(cache),
		apihttp.WithQueue(queue),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithLogger(logger),
	)
	go broadcastStatus(rootCtx, handler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // long-lived streaming responses
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server", "error", err)
	}

	handler.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := queue.Join(shutdownCtx); err != nil {
		logger.Warn("ingest drain", "error", err)
	}

	logger.Info("stopped")
}

// pollUpdates long-polls the relay gateway and feeds the chat router.
// The offset advances past every delivered batch so restarts within the
// gateway's retention window never replay handled updates.
func pollUpdates(ctx context.Context, client *relay.Client, router *bot.Router, logger *slog.Logger) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := client.PollUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if seconds, ok := domain.AsFloodWait(err); ok {
				logger.Warn("update poll rate limited", "seconds", seconds)
				sleepCtx(ctx, time.Duration(seconds)*time.Second)
				continue
			}
			logger.Warn("update poll", "error", err)
			sleepCtx(ctx, 3*time.Second)
			continue
		}
		for _, u := range updates {
			router.Handle(ctx, bot.Update{
				ChatID:    u.ChatID,
				UserID:    u.UserID,
				Username:  u.Username,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Text:      u.Text,
				Media:     u.Media(),
			})
			if u.Offset >= offset {
				offset = u.Offset + 1
			}
		}
	}
}

func broadcastStatus(ctx context.Context, handler *apihttp.Server) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			handler.BroadcastStatus()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(levelRaw)}
	var handler slog.Handler
	if formatRaw == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

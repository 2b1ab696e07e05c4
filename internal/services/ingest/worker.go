package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/metrics"
	"reelstream/internal/services/notify"
)

// sampleWindow is how much of the file head is fetched for probing.
const sampleWindow int64 = 1 << 20

var errSkipped = errors.New("item skipped")

// Enricher resolves a parsed title into a catalog record.
type Enricher interface {
	Movie(ctx context.Context, title string, year int) (domain.MovieRecord, error)
	Show(ctx context.Context, title string, year int) (domain.ShowRecord, error)
	Episode(ctx context.Context, showID, season, episode int) ports.EpisodeMeta
}

// Sampler reads the head of an upstream file for probing.
type Sampler interface {
	Sample(ctx context.Context, chatID int64, messageID int, maxBytes int64) (domain.FileLocator, []byte, error)
}

// CacheRefresher is poked after every successful ingest so new content
// reaches the front page without waiting for the next cycle.
type CacheRefresher interface {
	UpdateAll(ctx context.Context)
}

type WorkerConfig struct {
	// UseCaption derives the title from the message caption's first line
	// instead of the file name.
	UseCaption bool
	// PostUpdates posts a poster card to PostChat after each ingest.
	PostUpdates bool
	PostChat    int64
	SiteLink    string
}

// Worker consumes the ingestion queue: parse, enrich, probe, store.
// Errors never propagate past one item; a rate-limit signal re-enqueues
// the item at the tail after the mandated wait.
type Worker struct {
	queue     *Queue
	movies    ports.MovieStore
	shows     ports.ShowStore
	enricher  Enricher
	sampler   Sampler
	prober    ports.MediaProber
	cache     CacheRefresher
	messenger ports.Messenger
	notifier  *notify.Notifier
	cfg       WorkerConfig
	logger    *slog.Logger

	pause func(ctx context.Context, d time.Duration) error
}

func NewWorker(
	queue *Queue,
	movies ports.MovieStore,
	shows ports.ShowStore,
	enricher Enricher,
	sampler Sampler,
	prober ports.MediaProber,
	cache CacheRefresher,
	messenger ports.Messenger,
	notifier *notify.Notifier,
	cfg WorkerConfig,
	logger *slog.Logger,
) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:     queue,
		movies:    movies,
		shows:     shows,
		enricher:  enricher,
		sampler:   sampler,
		prober:    prober,
		cache:     cache,
		messenger: messenger,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		pause:     sleepCtx,
	}
}

// Run binds the worker to its queue. Returns immediately; consumption
// happens on the queue's consumer goroutine.
func (w *Worker) Run(ctx context.Context) {
	w.queue.Start(ctx, w.process)
}

func (w *Worker) Enqueue(item domain.InboundMedia) {
	w.queue.Enqueue(item)
}

func (w *Worker) process(ctx context.Context, item domain.InboundMedia) {
	err := w.ingest(ctx, item)
	switch {
	case err == nil:
		metrics.IngestItemsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, errSkipped):
		metrics.IngestItemsTotal.WithLabelValues("skipped").Inc()
	default:
		if seconds, isFlood := domain.AsFloodWait(err); isFlood {
			metrics.FloodWaitsTotal.Inc()
			w.logger.Warn("rate limited during ingest, re-enqueueing",
				"message_id", item.MessageID, "wait_seconds", seconds)
			if w.pause(ctx, time.Duration(seconds)*time.Second) == nil {
				w.queue.Enqueue(item)
			}
			return
		}
		metrics.IngestItemsTotal.WithLabelValues("failed").Inc()
		w.logger.Error("ingest failed",
			"chat_id", item.ChatID, "message_id", item.MessageID, "file", item.FileName, "error", err)
		w.notifier.Errorf(ctx, "ingest failed for %q (msg %d): %v", item.FileName, item.MessageID, err)
		w.replyFailure(ctx, item, err)
	}
}

// replyFailure answers the triggering message so the uploading chat
// sees the rejection, not just the logs chat.
func (w *Worker) replyFailure(ctx context.Context, item domain.InboundMedia, cause error) {
	if w.messenger == nil || item.ChatID == 0 {
		return
	}
	text := fmt.Sprintf("Error processing media: %v", cause)
	if _, err := w.messenger.SendMessage(ctx, item.ChatID, text); err != nil {
		w.logger.Warn("failure reply not delivered", "chat_id", item.ChatID, "error", err)
	}
}

func (w *Worker) ingest(ctx context.Context, item domain.InboundMedia) error {
	if !item.Kind.Streamable() {
		return fmt.Errorf("%w: media kind %q", errSkipped, item.Kind)
	}

	parsed, err := ParseMediaName(w.titleSource(item))
	if err != nil {
		return err
	}

	loc, sample, err := w.sampler.Sample(ctx, item.ChatID, item.MessageID, sampleWindow)
	if err != nil {
		return fmt.Errorf("sample file: %w", err)
	}

	variant, err := w.buildVariant(ctx, item, loc, sample)
	if err != nil {
		return fmt.Errorf("derive quality for %q: %w", item.FileName, err)
	}

	var title string
	if parsed.Season > 0 {
		title, err = w.ingestShow(ctx, parsed, variant)
	} else {
		title, err = w.ingestMovie(ctx, parsed, variant)
	}
	if err != nil {
		return err
	}

	w.cache.UpdateAll(ctx)
	w.logger.Info("ingested",
		"title", title, "season", parsed.Season, "episode", parsed.Episode,
		"quality", variant.Type, "size", variant.Size)
	return nil
}

func (w *Worker) titleSource(item domain.InboundMedia) string {
	if w.cfg.UseCaption && strings.TrimSpace(item.Caption) != "" {
		first, _, _ := strings.Cut(item.Caption, "\n")
		return first
	}
	return item.FileName
}

// buildVariant probes the sampled head. An item whose quality cannot
// be derived is rejected rather than stored untyped.
func (w *Worker) buildVariant(ctx context.Context, item domain.InboundMedia, loc domain.FileLocator, sample []byte) (domain.QualityVariant, error) {
	variant := domain.QualityVariant{
		Size:     loc.FileSize,
		FileHash: fileHash(loc.UniqueID),
		MsgID:    item.MessageID,
		ChatID:   item.ChatID,
	}
	if len(sample) == 0 {
		return variant, errors.New("empty media sample")
	}

	info, err := w.prober.Probe(ctx, bytes.NewReader(sample), loc.UniqueID)
	if err != nil {
		return variant, fmt.Errorf("probe: %w", err)
	}
	if info.Quality == "" {
		return variant, errors.New("no video track height")
	}
	variant.Type = info.Quality
	variant.Audio = info.Audio
	variant.VideoCodec = info.VideoCodec
	variant.FileType = info.FileType
	variant.Subtitle = info.Subtitle
	return variant, nil
}

func (w *Worker) ingestMovie(ctx context.Context, parsed ParsedName, variant domain.QualityVariant) (string, error) {
	rec, err := w.enricher.Movie(ctx, parsed.Title, parsed.Year)
	if err != nil {
		return "", err
	}
	rec.Qualities = []domain.QualityVariant{variant}
	if err := w.movies.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("upsert movie %d: %w", rec.MID, err)
	}
	w.postUpdate(ctx, rec.Title, rec.ReleaseDate, rec.Poster)
	return rec.Title, nil
}

func (w *Worker) ingestShow(ctx context.Context, parsed ParsedName, variant domain.QualityVariant) (string, error) {
	rec, err := w.enricher.Show(ctx, parsed.Title, parsed.Year)
	if err != nil {
		return "", err
	}

	meta := w.enricher.Episode(ctx, rec.SID, parsed.Season, parsed.Episode)
	variant.Runtime = meta.Runtime
	rec.Seasons = []domain.Season{{
		SeasonNumber: parsed.Season,
		Episodes: []domain.Episode{{
			EpisodeNumber: parsed.Episode,
			Name:          meta.Name,
			Overview:      meta.Overview,
			StillPath:     meta.StillPath,
			AirDate:       meta.AirDate,
			Qualities:     []domain.QualityVariant{variant},
		}},
	}}

	if err := w.shows.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("upsert show %d: %w", rec.SID, err)
	}
	w.postUpdate(ctx, rec.Title, rec.FirstAirDate, rec.Poster)
	return rec.Title, nil
}

// postUpdate announces new content in the configured chat. Failures are
// logged only; the item is already stored.
func (w *Worker) postUpdate(ctx context.Context, title, date, poster string) {
	if !w.cfg.PostUpdates || w.cfg.PostChat == 0 || w.messenger == nil || poster == "" {
		return
	}
	caption := title
	if len(date) >= 4 {
		caption = fmt.Sprintf("%s (%s)", title, date[:4])
	}
	if w.cfg.SiteLink != "" {
		caption += "\n" + w.cfg.SiteLink
	}
	if _, err := w.messenger.SendPhoto(ctx, w.cfg.PostChat, poster, caption); err != nil {
		w.logger.Warn("poster post failed", "title", title, "error", err)
	}
}

func fileHash(uniqueID string) string {
	if len(uniqueID) > 6 {
		return uniqueID[:6]
	}
	return uniqueID
}

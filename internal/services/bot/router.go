package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/services/ingest"
	"reelstream/internal/services/notify"
)

// Update is one normalized inbound chat event.
type Update struct {
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Text      string
	Media     *domain.InboundMedia
}

type batchRunner interface {
	Run(ctx context.Context, fromLink, toLink string) (int, error)
}

type enqueuer interface {
	Enqueue(item domain.InboundMedia)
}

type RouterConfig struct {
	OwnerIDs  []int64
	AuthChats []int64
	// RegistrationEnabled auto-registers users on /start.
	RegistrationEnabled bool
	// DeleteAfterMinutes is how long a delivered file stays in the chat.
	DeleteAfterMinutes int
	SiteName           string
	SiteLink           string
}

// Router dispatches chat updates: media from authorized chats feeds the
// ingestion queue, commands drive seeding and deep-link file delivery.
type Router struct {
	worker    enqueuer
	seeder    batchRunner
	users     ports.UserStore
	movies    ports.MovieStore
	shows     ports.ShowStore
	messenger ports.Messenger
	notifier  *notify.Notifier
	cfg       RouterConfig
	logger    *slog.Logger

	// schedule is stubbed in tests.
	schedule func(d time.Duration, f func())
}

func NewRouter(
	worker enqueuer,
	seeder batchRunner,
	users ports.UserStore,
	movies ports.MovieStore,
	shows ports.ShowStore,
	messenger ports.Messenger,
	notifier *notify.Notifier,
	cfg RouterConfig,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		worker:    worker,
		seeder:    seeder,
		users:     users,
		movies:    movies,
		shows:     shows,
		messenger: messenger,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		schedule:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

func (r *Router) Handle(ctx context.Context, up Update) {
	if up.Media != nil {
		if slices.Contains(r.cfg.AuthChats, up.ChatID) {
			r.worker.Enqueue(*up.Media)
		}
		return
	}

	text := strings.TrimSpace(up.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		r.handleStart(ctx, up, strings.TrimSpace(strings.TrimPrefix(text, "/start")))
	case strings.HasPrefix(text, "/batch"):
		r.handleBatch(ctx, up, strings.Fields(text)[1:])
	}
}

func (r *Router) handleStart(ctx context.Context, up Update, payload string) {
	r.registerUser(ctx, up)

	if strings.HasPrefix(payload, "file_") {
		if err := r.deliver(ctx, up.ChatID, payload); err != nil {
			r.logger.Warn("delivery failed", "chat_id", up.ChatID, "payload", payload, "error", err)
			r.reply(ctx, up.ChatID, "That file is not available anymore.")
		}
		return
	}

	welcome := fmt.Sprintf("Welcome to %s!", r.cfg.SiteName)
	if r.cfg.SiteLink != "" {
		welcome += " Browse the catalog at " + r.cfg.SiteLink
	}
	r.reply(ctx, up.ChatID, welcome)
}

func (r *Router) registerUser(ctx context.Context, up Update) {
	if !r.cfg.RegistrationEnabled || r.users == nil || up.UserID == 0 {
		return
	}
	err := r.users.Register(ctx, domain.UserRecord{
		UserID:    up.UserID,
		Username:  up.Username,
		FirstName: up.FirstName,
		LastName:  up.LastName,
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		r.logger.Warn("user registration failed", "user_id", up.UserID, "error", err)
	}
}

// deliver forwards the stored file for a deep-link payload and schedules
// its removal from the user's chat.
func (r *Router) deliver(ctx context.Context, chatID int64, payload string) error {
	link, err := ingest.ParseDeepLink(payload)
	if err != nil {
		return err
	}

	variant, err := r.resolveVariant(ctx, link)
	if err != nil {
		return err
	}

	messageID, err := r.messenger.ForwardMessage(ctx, chatID, variant.ChatID, variant.MsgID, true)
	if err != nil {
		return fmt.Errorf("forward file: %w", err)
	}

	if minutes := r.cfg.DeleteAfterMinutes; minutes > 0 {
		r.reply(ctx, chatID, fmt.Sprintf("The file will be removed from this chat in %d minutes.", minutes))
		r.schedule(time.Duration(minutes)*time.Minute, func() {
			if err := r.messenger.DeleteMessage(context.Background(), chatID, messageID); err != nil {
				r.logger.Warn("scheduled delete failed", "chat_id", chatID, "message_id", messageID, "error", err)
			}
		})
	}
	return nil
}

func (r *Router) resolveVariant(ctx context.Context, link ingest.DeepLink) (domain.QualityVariant, error) {
	if link.MediaType == domain.MediaMovie {
		rec, err := r.movies.Get(ctx, link.ID)
		if err != nil {
			return domain.QualityVariant{}, err
		}
		return pickVariant(rec.Qualities, link.QualityIndex)
	}

	rec, err := r.shows.Get(ctx, link.ID)
	if err != nil {
		return domain.QualityVariant{}, err
	}
	for _, season := range rec.Seasons {
		if season.SeasonNumber != link.Season {
			continue
		}
		for _, ep := range season.Episodes {
			if ep.EpisodeNumber == link.Episode {
				return pickVariant(ep.Qualities, link.QualityIndex)
			}
		}
	}
	return domain.QualityVariant{}, domain.ErrNotFound
}

func pickVariant(qualities []domain.QualityVariant, index int) (domain.QualityVariant, error) {
	if index < 0 || index >= len(qualities) {
		return domain.QualityVariant{}, fmt.Errorf("quality index %d out of range: %w", index, domain.ErrNotFound)
	}
	return qualities[index], nil
}

func (r *Router) handleBatch(ctx context.Context, up Update, args []string) {
	if !slices.Contains(r.cfg.OwnerIDs, up.UserID) {
		return
	}
	if len(args) != 2 {
		r.reply(ctx, up.ChatID, "Usage: /batch <first message link> <last message link>")
		return
	}

	n, err := r.seeder.Run(ctx, args[0], args[1])
	if err != nil {
		r.logger.Error("batch seed failed", "error", err)
		r.reply(ctx, up.ChatID, fmt.Sprintf("Batch failed after %d items: %v", n, err))
		r.notifier.Errorf(ctx, "batch seed failed: %v", err)
		return
	}
	r.reply(ctx, up.ChatID, fmt.Sprintf("Batch complete: %d media messages queued.", n))
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if _, err := r.messenger.SendMessage(ctx, chatID, text); err != nil {
		r.logger.Warn("reply failed", "chat_id", chatID, "error", err)
	}
}

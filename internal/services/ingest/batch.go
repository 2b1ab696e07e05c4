package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/metrics"
)

var messageLinkRe = regexp.MustCompile(`https://t\.me/(?:c/)?([^/]+)/(\d+)`)

var ErrBadMessageLink = errors.New("malformed message link")

// parseMessageLink splits a public or private message link into its
// chat reference and message id. Private links carry the bare internal
// chat id, which gets the -100 marker prefix; public links carry a
// username and no prefix.
func parseMessageLink(link string) (domain.ChatRef, int, error) {
	m := messageLinkRe.FindStringSubmatch(link)
	if m == nil {
		return domain.ChatRef{}, 0, fmt.Errorf("%w: %q", ErrBadMessageLink, link)
	}
	messageID, err := strconv.Atoi(m[2])
	if err != nil || messageID <= 0 {
		return domain.ChatRef{}, 0, fmt.Errorf("%w: message id %q", ErrBadMessageLink, m[2])
	}

	if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
		full, err := strconv.ParseInt("-100"+m[1], 10, 64)
		if err != nil {
			return domain.ChatRef{}, 0, fmt.Errorf("%w: chat id %d overflows", ErrBadMessageLink, id)
		}
		return domain.ChatRef{ID: full}, messageID, nil
	}
	return domain.ChatRef{Username: m[1]}, messageID, nil
}

// Seeder walks a message-id range of one chat and feeds every media
// message into the ingestion queue. Iteration is deliberately slow,
// with a random pause per message, to stay under upstream rate limits.
type Seeder struct {
	messenger ports.Messenger
	queue     *Queue
	logger    *slog.Logger

	// pause is stubbed in tests.
	pause func(ctx context.Context, d time.Duration) error
}

const (
	seedPauseMin = 30 * time.Second
	seedPauseMax = 60 * time.Second
)

func NewSeeder(messenger ports.Messenger, queue *Queue, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		messenger: messenger,
		queue:     queue,
		logger:    logger,
		pause:     sleepCtx,
	}
}

// Run seeds every message between the two links, both inclusive. The
// links must point into the same chat; a reversed range is swapped.
// Returns the number of media messages enqueued.
func (s *Seeder) Run(ctx context.Context, fromLink, toLink string) (int, error) {
	chat, from, err := parseMessageLink(fromLink)
	if err != nil {
		return 0, err
	}
	toChat, to, err := parseMessageLink(toLink)
	if err != nil {
		return 0, err
	}
	if chat != toChat {
		return 0, fmt.Errorf("%w: links point to different chats", ErrBadMessageLink)
	}
	if from > to {
		from, to = to, from
	}

	enqueued := 0
	for id := from; id <= to; id++ {
		media, ok, err := s.fetch(ctx, chat, id)
		if err != nil {
			if ctx.Err() != nil {
				return enqueued, ctx.Err()
			}
			s.logger.Warn("seed fetch failed", "chat", chat, "message_id", id, "error", err)
		} else if ok {
			s.queue.Enqueue(media)
			enqueued++
		}

		if id < to {
			if err := s.pause(ctx, seedPause()); err != nil {
				return enqueued, err
			}
		}
	}
	s.logger.Info("seed range complete", "chat", chat, "from", from, "to", to, "enqueued", enqueued)
	return enqueued, nil
}

// fetch retries the same message after honoring a rate-limit wait.
func (s *Seeder) fetch(ctx context.Context, chat domain.ChatRef, messageID int) (domain.InboundMedia, bool, error) {
	for {
		media, ok, err := s.messenger.GetMessage(ctx, chat, messageID)
		if seconds, isFlood := domain.AsFloodWait(err); isFlood {
			metrics.FloodWaitsTotal.Inc()
			s.logger.Warn("rate limited while seeding", "wait_seconds", seconds, "message_id", messageID)
			if err := s.pause(ctx, time.Duration(seconds)*time.Second); err != nil {
				return domain.InboundMedia{}, false, err
			}
			continue
		}
		return media, ok, err
	}
}

func seedPause() time.Duration {
	return seedPauseMin + time.Duration(rand.Int63n(int64(seedPauseMax-seedPauseMin)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/metrics"
)

const (
	cacheCleanInterval = 30 * time.Minute
	getFileRetries     = 3
	importAuthAttempts = 6
)

type chatMsgKey struct {
	chatID    int64
	messageID int
}

// Streamer serves chunked file reads through one worker client. It owns
// the client's per-data-center media sessions and the file-properties
// cache; both are flushed by the periodic cleaner.
type Streamer struct {
	client ports.Client
	logger *slog.Logger

	// retryBase is the first GetFile backoff delay; it doubles per
	// attempt. Overridable in tests.
	retryBase time.Duration

	sessMu   sync.Mutex
	sessions map[int]ports.MediaSession

	propsMu     sync.RWMutex
	propsByChat map[chatMsgKey]domain.FileLocator
	propsByMsg  map[int]domain.FileLocator
}

func NewStreamer(client ports.Client, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{
		client:      client,
		logger:      logger,
		retryBase:   time.Second,
		sessions:    make(map[int]ports.MediaSession),
		propsByChat: make(map[chatMsgKey]domain.FileLocator),
		propsByMsg:  make(map[int]domain.FileLocator),
	}
}

// FileProperties resolves a chat message to its file locator, memoized
// by (chat, message).
func (s *Streamer) FileProperties(ctx context.Context, chatID int64, messageID int) (domain.FileLocator, error) {
	key := chatMsgKey{chatID: chatID, messageID: messageID}

	s.propsMu.RLock()
	loc, ok := s.propsByChat[key]
	s.propsMu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := s.client.ResolveFile(ctx, chatID, messageID)
	if err != nil {
		return domain.FileLocator{}, err
	}

	s.propsMu.Lock()
	s.propsByChat[key] = loc
	s.propsByMsg[messageID] = loc
	s.propsMu.Unlock()
	return loc, nil
}

// FlushCaches drops all memoized file locators. Stale locators are
// re-resolved on the next request.
func (s *Streamer) FlushCaches() {
	s.propsMu.Lock()
	s.propsByChat = make(map[chatMsgKey]domain.FileLocator)
	s.propsByMsg = make(map[int]domain.FileLocator)
	s.propsMu.Unlock()
	s.logger.Debug("file properties cache flushed", slog.Int("slot", s.client.SlotID()))
}

// RunCacheCleaner flushes the locator caches every 30 minutes until the
// context is cancelled.
func (s *Streamer) RunCacheCleaner(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.FlushCaches()
		}
	}
}

// session returns the media session for a data center, bootstrapping it
// on first use. Cross-DC sessions are authorized by exporting from the
// primary session and importing into the new one; invalid auth bytes
// are retried up to 6 times, any other error aborts the bootstrap.
func (s *Streamer) session(ctx context.Context, dcID int) (ports.MediaSession, error) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	if sess, ok := s.sessions[dcID]; ok {
		return sess, nil
	}

	sess, err := s.client.OpenMediaSession(ctx, dcID)
	if err != nil {
		return nil, fmt.Errorf("open media session dc %d: %w", dcID, err)
	}

	if dcID != s.client.HomeDC() {
		if err := s.bootstrapSession(ctx, sess, dcID); err != nil {
			_ = sess.Close()
			return nil, err
		}
	}

	s.sessions[dcID] = sess
	metrics.MediaSessionsOpen.Inc()
	s.logger.Info("media session opened",
		slog.Int("slot", s.client.SlotID()),
		slog.Int("dc", dcID),
	)
	return sess, nil
}

func (s *Streamer) bootstrapSession(ctx context.Context, sess ports.MediaSession, dcID int) error {
	var lastErr error
	for attempt := 1; attempt <= importAuthAttempts; attempt++ {
		auth, err := s.client.ExportAuthorization(ctx, dcID)
		if err != nil {
			return fmt.Errorf("export authorization dc %d: %w", dcID, err)
		}
		err = sess.ImportAuthorization(ctx, auth)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrAuthBytesInvalid) {
			return fmt.Errorf("import authorization dc %d: %w", dcID, err)
		}
		lastErr = err
		s.logger.Debug("auth import rejected, retrying",
			slog.Int("dc", dcID),
			slog.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("import authorization dc %d: %w", dcID, lastErr)
}

// StreamRange writes the plan's byte window to w in increasing offset
// order. The release callback runs on every exit path; a write error
// (client disconnect) stops the chunk loop immediately.
func (s *Streamer) StreamRange(ctx context.Context, loc domain.FileLocator, plan ChunkPlan, w io.Writer, release func()) error {
	defer func() {
		release()
		s.logger.Debug("stream finished",
			slog.Int("slot", s.client.SlotID()),
			slog.Int64("offset", plan.Offset),
			slog.Int64("parts", plan.PartCount),
		)
	}()

	sess, err := s.session(ctx, loc.DCID)
	if err != nil {
		return err
	}

	offset := plan.Offset
	for part := int64(1); part <= plan.PartCount; part++ {
		chunk, err := s.getChunk(ctx, sess, loc, offset, int(plan.ChunkSize))
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}

		piece := trimChunk(chunk, part, plan)
		if len(piece) > 0 {
			if _, err := w.Write(piece); err != nil {
				return err
			}
			metrics.StreamBytesTotal.Add(float64(len(piece)))
		}

		offset += plan.ChunkSize
	}
	return nil
}

// getChunk issues one upstream read with a 3-retry exponential backoff
// (1s, 2s, 4s). Context cancellation is never retried.
func (s *Streamer) getChunk(ctx context.Context, sess ports.MediaSession, loc domain.FileLocator, offset int64, limit int) ([]byte, error) {
	delay := s.retryBase
	for attempt := 0; ; attempt++ {
		chunk, err := sess.GetFile(ctx, loc, offset, limit)
		if err == nil {
			return chunk, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= getFileRetries {
			return nil, fmt.Errorf("get file at offset %d: %w", offset, err)
		}

		metrics.ChunkRetriesTotal.Inc()
		s.logger.Warn("chunk fetch failed, retrying",
			slog.Int64("offset", offset),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

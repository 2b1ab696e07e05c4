package ingest

import (
	"context"
	"log/slog"
	"sync"

	"reelstream/internal/domain"
	"reelstream/internal/metrics"
)

// Queue is an unbounded FIFO of inbound media with a single consumer.
// The consumer goroutine exits when the queue drains and is respawned
// by the next Enqueue, so an idle service holds no worker goroutine.
type Queue struct {
	logger *slog.Logger

	mu      sync.Mutex
	items   []domain.InboundMedia
	running bool
	ctx     context.Context
	handler func(context.Context, domain.InboundMedia)

	pending sync.WaitGroup
}

func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Start binds the consumer handler and base context. Items enqueued
// before Start sit in the queue until the first post-Start Enqueue.
func (q *Queue) Start(ctx context.Context, handler func(context.Context, domain.InboundMedia)) {
	q.mu.Lock()
	q.ctx = ctx
	q.handler = handler
	spawn := !q.running && len(q.items) > 0
	if spawn {
		q.running = true
	}
	q.mu.Unlock()
	if spawn {
		go q.consume()
	}
}

func (q *Queue) Enqueue(item domain.InboundMedia) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.pending.Add(1)
	metrics.IngestQueueDepth.Set(float64(len(q.items)))
	spawn := !q.running && q.handler != nil
	if spawn {
		q.running = true
	}
	q.mu.Unlock()
	if spawn {
		go q.consume()
	}
}

func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Join blocks until every enqueued item has been fully processed or
// ctx expires. Used on shutdown to bound the drain.
func (q *Queue) Join(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) consume() {
	for {
		q.mu.Lock()
		if q.ctx.Err() != nil {
			// Shutdown: account for the leftovers so Join can return.
			for range q.items {
				q.pending.Done()
			}
			q.items = nil
			q.running = false
			metrics.IngestQueueDepth.Set(0)
			q.mu.Unlock()
			return
		}
		if len(q.items) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		metrics.IngestQueueDepth.Set(float64(len(q.items)))
		handler, ctx := q.handler, q.ctx
		q.mu.Unlock()

		q.process(ctx, handler, item)
	}
}

// process marks the item done exactly once, panics included.
func (q *Queue) process(ctx context.Context, handler func(context.Context, domain.InboundMedia), item domain.InboundMedia) {
	defer q.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("ingest handler panicked",
				"chat_id", item.ChatID, "message_id", item.MessageID, "panic", r)
		}
	}()
	handler(ctx, item)
}

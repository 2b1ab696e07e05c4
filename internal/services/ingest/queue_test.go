package ingest

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"reelstream/internal/domain"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

func TestQueueProcessesInOrder(t *testing.T) {
	q := NewQueue(testLogger())

	var mu sync.Mutex
	var got []int
	q.Start(context.Background(), func(_ context.Context, item domain.InboundMedia) {
		mu.Lock()
		got = append(got, item.MessageID)
		mu.Unlock()
	})

	for i := 1; i <= 5; i++ {
		q.Enqueue(domain.InboundMedia{MessageID: i})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Join(ctx); err != nil {
		t.Fatalf("Join: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("processed %d items, want 5", len(got))
	}
	for i, id := range got {
		if id != i+1 {
			t.Errorf("order broken: got %v", got)
			break
		}
	}
}

func TestQueueConsumerRespawnsAfterDrain(t *testing.T) {
	q := NewQueue(testLogger())

	var mu sync.Mutex
	processed := 0
	q.Start(context.Background(), func(context.Context, domain.InboundMedia) {
		mu.Lock()
		processed++
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q.Enqueue(domain.InboundMedia{MessageID: 1})
	if err := q.Join(ctx); err != nil {
		t.Fatal(err)
	}

	// The consumer has exited; the next enqueue must bring it back.
	q.Enqueue(domain.InboundMedia{MessageID: 2})
	if err := q.Join(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
}

func TestQueueSurvivesHandlerPanic(t *testing.T) {
	q := NewQueue(testLogger())

	var mu sync.Mutex
	var got []int
	q.Start(context.Background(), func(_ context.Context, item domain.InboundMedia) {
		if item.MessageID == 2 {
			panic("boom")
		}
		mu.Lock()
		got = append(got, item.MessageID)
		mu.Unlock()
	})

	for i := 1; i <= 3; i++ {
		q.Enqueue(domain.InboundMedia{MessageID: i})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Join(ctx); err != nil {
		t.Fatalf("Join after panic: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("got %v, want [1 3]", got)
	}
}

func TestQueueEnqueueBeforeStartIsHeld(t *testing.T) {
	q := NewQueue(testLogger())
	q.Enqueue(domain.InboundMedia{MessageID: 1})
	q.Enqueue(domain.InboundMedia{MessageID: 2})

	if depth := q.Depth(); depth != 2 {
		t.Fatalf("depth = %d, want 2", depth)
	}

	var mu sync.Mutex
	processed := 0
	q.Start(context.Background(), func(context.Context, domain.InboundMedia) {
		mu.Lock()
		processed++
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Join(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
}

func TestQueueJoinHonorsContext(t *testing.T) {
	q := NewQueue(testLogger())
	q.Enqueue(domain.InboundMedia{MessageID: 1}) // never started, never drains

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Join(ctx); err == nil {
		t.Fatal("Join must fail when the queue cannot drain in time")
	}
}

package stream

import (
	"context"
	"log/slog"
	"sync"

	"reelstream/internal/domain/ports"
)

// Fleet pairs the worker pool with one Streamer per slot, so a request
// acquired from the pool streams through the matching client's media
// sessions and locator cache.
type Fleet struct {
	pool   *Pool
	logger *slog.Logger

	mu        sync.RWMutex
	streamers map[int]*Streamer
}

func NewFleet(logger *slog.Logger) *Fleet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fleet{
		pool:      NewPool(logger),
		logger:    logger,
		streamers: make(map[int]*Streamer),
	}
}

func (f *Fleet) Add(client ports.Client) {
	f.pool.Add(client)
	f.mu.Lock()
	f.streamers[client.SlotID()] = NewStreamer(client, f.logger)
	f.mu.Unlock()
}

// Acquire picks the least-loaded slot and returns its streamer. The
// caller must hand the returned release to StreamRange (or call it
// directly on early failure).
func (f *Fleet) Acquire() (*Streamer, func(), error) {
	slot, _, err := f.pool.Acquire()
	if err != nil {
		return nil, nil, err
	}
	f.mu.RLock()
	streamer := f.streamers[slot]
	f.mu.RUnlock()

	var once sync.Once
	release := func() {
		once.Do(func() { f.pool.Release(slot) })
	}
	return streamer, release, nil
}

// Primary returns the slot-0 streamer used for ingestion-side reads.
func (f *Fleet) Primary() (*Streamer, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.streamers[0]
	return s, ok
}

func (f *Fleet) Size() int {
	return f.pool.Size()
}

func (f *Fleet) Loads() map[int]int64 {
	return f.pool.Loads()
}

// Run starts the per-streamer cache cleaners and blocks until ctx ends.
func (f *Fleet) Run(ctx context.Context) {
	f.mu.RLock()
	streamers := make([]*Streamer, 0, len(f.streamers))
	for _, s := range f.streamers {
		streamers = append(streamers, s)
	}
	f.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range streamers {
		wg.Add(1)
		go func(s *Streamer) {
			defer wg.Done()
			s.RunCacheCleaner(ctx)
		}(s)
	}
	wg.Wait()
}

func (f *Fleet) Close() {
	f.pool.Close()
}

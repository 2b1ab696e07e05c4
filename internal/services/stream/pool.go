package stream

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
	"reelstream/internal/metrics"
)

// Pool holds the fleet of authenticated worker clients and their
// in-flight counters. Slot 0 is the primary; auxiliary slots are added
// at startup and never removed until shutdown.
//
// Pick-and-acquire is a single critical section so the least-loaded
// choice cannot race with a concurrent acquire.
type Pool struct {
	mu      sync.Mutex
	clients map[int]ports.Client
	loads   map[int]int64
	logger  *slog.Logger
}

func NewPool(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		clients: make(map[int]ports.Client),
		loads:   make(map[int]int64),
		logger:  logger,
	}
}

func (p *Pool) Add(client ports.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot := client.SlotID()
	p.clients[slot] = client
	p.loads[slot] = 0
	p.logger.Info("worker slot added", slog.Int("slot", slot))
}

func (p *Pool) Client(slot int) (ports.Client, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[slot]
	return c, ok
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Acquire picks the slot with the minimum in-flight count (ties broken
// by lowest slot id) and increments its counter.
func (p *Pool) Acquire() (int, ports.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.clients) == 0 {
		return 0, nil, domain.ErrNoWorkers
	}

	best := -1
	var bestLoad int64
	for slot := range p.clients {
		load := p.loads[slot]
		if best == -1 || load < bestLoad || (load == bestLoad && slot < best) {
			best = slot
			bestLoad = load
		}
	}

	p.loads[best]++
	metrics.WorkerInFlight.WithLabelValues(strconv.Itoa(best)).Set(float64(p.loads[best]))
	return best, p.clients[best], nil
}

// Release decrements the slot counter. Callers must invoke it exactly
// once per successful Acquire, on every exit path.
func (p *Pool) Release(slot int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loads[slot] > 0 {
		p.loads[slot]--
	}
	metrics.WorkerInFlight.WithLabelValues(strconv.Itoa(slot)).Set(float64(p.loads[slot]))
}

// Loads returns a copy of the in-flight counters keyed by slot id.
func (p *Pool) Loads() map[int]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[int]int64, len(p.loads))
	for slot, load := range p.loads {
		out[slot] = load
	}
	return out
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	slots := make([]int, 0, len(p.clients))
	for slot := range p.clients {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	for _, slot := range slots {
		if err := p.clients[slot].Close(); err != nil {
			p.logger.Warn("worker close failed", slog.Int("slot", slot), slog.String("error", err.Error()))
		}
	}
}

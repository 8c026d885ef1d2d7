package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweets-api/internal/core/domain"
	"github.com/sweetshop/sweets-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

var (
	ErrQueueFull    = errors.New("stock movement queue full")
	ErrQueueStopped = errors.New("stock movement queue stopped")
)

// Dispatcher writes stock movements off the request path. Movements are routed
// to a fixed set of workers by hashing the sweet id, so the audit trail of a
// single sweet is written in order.
//
// Dispatcher satisfies ports.StockMovementRepository and wraps the real store.
type Dispatcher struct {
	workers []chan domain.StockMovement
	store   ports.StockMovementRepository
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, store ports.StockMovementRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.StockMovement, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StockMovement, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx is passed to the store on every
// write; Stop is what ends the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Insert enqueues m without blocking. It fails with ErrQueueFull when the
// worker's buffer is saturated.
func (d *Dispatcher) Insert(_ context.Context, m *domain.StockMovement) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrQueueStopped
	}

	select {
	case d.workers[d.shardIndex(m.SweetID)] <- *m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queues and waits until every buffered movement is written.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps a sweet id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sweetID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sweetID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StockMovement) {
	defer d.wg.Done()
	for m := range ch {
		if err := d.store.Insert(context.WithoutCancel(ctx), &m); err != nil {
			d.log.Error().Err(err).
				Str("sweet_id", m.SweetID).
				Str("kind", string(m.Kind)).
				Int("worker_id", id).
				Msg("stock movement write failed")
		}
	}
}

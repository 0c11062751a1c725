package push

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned once the queue has been closed.
var ErrQueueClosed = errors.New("push queue closed")

// DefaultQueueCapacity is used when a non-positive capacity is requested.
const DefaultQueueCapacity = 256

// Queue is a bounded FIFO of job ids shared by request handlers and the worker.
type Queue struct {
	ch     chan uuid.UUID
	done   chan struct{}
	closer sync.Once
}

// NewQueue creates a queue holding at most capacity ids.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan uuid.UUID, capacity), done: make(chan struct{})}
}

// Enqueue blocks until the id is queued, ctx is done or the queue closes.
func (q *Queue) Enqueue(ctx context.Context, id uuid.UUID) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- id:
		pushQueueDepth.Set(float64(len(q.ch)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}
}

// TryEnqueue queues the id only if there is room right now.
func (q *Queue) TryEnqueue(id uuid.UUID) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- id:
		pushQueueDepth.Set(float64(len(q.ch)))
		return true
	default:
		return false
	}
}

// Take blocks until an id is available, ctx is done or the queue closes.
func (q *Queue) Take(ctx context.Context) (uuid.UUID, error) {
	select {
	case id := <-q.ch:
		pushQueueDepth.Set(float64(len(q.ch)))
		return id, nil
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	case <-q.done:
		return uuid.Nil, ErrQueueClosed
	}
}

// Len returns the number of queued ids.
func (q *Queue) Len() int { return len(q.ch) }

// Close stops the queue. Queued ids are discarded.
func (q *Queue) Close() {
	q.closer.Do(func() { close(q.done) })
}

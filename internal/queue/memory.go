package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue implements Queue in process memory with the same push-left/
// pop-right semantics as RedisQueue. It is used in tests and for local
// development without a Redis instance; it offers no durability.
type MemoryQueue struct {
	mu    sync.Mutex
	items [][]byte
	wake  chan struct{}
}

// NewMemoryQueue returns an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{wake: make(chan struct{}, 1)}
}

// Ping always succeeds.
func (q *MemoryQueue) Ping(_ context.Context) error {
	return nil
}

// Push appends an envelope to the left end.
func (q *MemoryQueue) Push(_ context.Context, env *Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.items = append([][]byte{data}, q.items...)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the oldest envelope from the right end, blocking up to timeout.
// Removal happens under the lock, so concurrent consumers never receive the
// same envelope.
func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if n := len(q.items); n > 0 {
			data := q.items[n-1]
			q.items = q.items[:n-1]
			remaining := n - 1
			q.mu.Unlock()
			if remaining > 0 {
				// Rapid pushes collapse into one wake token; hand it on so
				// another waiter picks up the leftover item.
				select {
				case q.wake <- struct{}{}:
				default:
				}
			}
			return DecodeEnvelope(data)
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrEmpty
		case <-q.wake:
			// An item may already have been taken by another consumer; loop.
		}
	}
}

// Len reports the number of queued items.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

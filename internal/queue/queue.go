// Package queue provides the durable FIFO hand-off between the ingestion
// boundary and the dispatch workers. Envelopes are pushed onto the left end
// of a list and popped from the right end, so per-sender push order is
// preserved and each envelope is delivered to exactly one consumer.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrMalformedEnvelope is returned by Pop when an item cannot be decoded.
// The item has already been removed from the queue and will not be retried.
var ErrMalformedEnvelope = errors.New("malformed queue envelope")

// ErrEmpty is returned by Pop when no envelope became available within the
// pop timeout.
var ErrEmpty = errors.New("queue is empty")

// Queue is the durable queue shared by the ingestion path and the dispatch
// workers. Push and Pop must be safe for concurrent use; Pop must remove
// atomically so two consumers never receive the same envelope.
type Queue interface {
	// Push appends an envelope to the queue.
	Push(ctx context.Context, env *Envelope) error

	// Pop blocks up to timeout for the oldest envelope. It returns ErrEmpty
	// when the timeout elapses and ErrMalformedEnvelope when the popped item
	// cannot be decoded (the item is dropped).
	Pop(ctx context.Context, timeout time.Duration) (*Envelope, error)

	// Ping checks the queue backend connection.
	Ping(ctx context.Context) error
}

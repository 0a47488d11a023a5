// Package batcher coalesces rapid-fire inbound messages from the same sender
// into a single queue envelope. Each sender has an independent debounce
// window; a new message while the window is open resets the timer and appends
// to the pending batch.
package batcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oppscout/oppscout/internal/queue"
)

type pendingBatch struct {
	texts []string
	timer *time.Timer
}

// Batcher accumulates per-sender message batches and flushes them to the
// queue when the debounce window elapses without further messages.
type Batcher struct {
	queue  queue.Queue
	log    *slog.Logger
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingBatch
	wg      sync.WaitGroup
	stopped bool
}

// New creates a Batcher flushing into q after window of sender silence.
func New(q queue.Queue, window time.Duration, log *slog.Logger) *Batcher {
	return &Batcher{
		queue:   q,
		log:     log.With("component", "batcher"),
		window:  window,
		pending: make(map[string]*pendingBatch),
	}
}

// Add records an inbound message for sender. The message joins the sender's
// open batch if one exists, otherwise it opens a new one. Either way the
// sender's debounce timer restarts from now. Messages from other senders are
// unaffected.
func (b *Batcher) Add(sender, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		// Shutdown already flushed the pending batches. Push directly so the
		// message is not lost.
		b.log.Warn("Message received after batcher stop, pushing directly", "sender", sender)
		b.pushBatch(sender, []string{text})
		return
	}

	if batch, ok := b.pending[sender]; ok {
		if batch.timer.Stop() {
			batch.texts = append(batch.texts, text)
			batch.timer.Reset(b.window)
		} else {
			// The timer already fired and its flush is waiting on the lock.
			// Replace the map entry so that flush finds a stale batch and
			// no-ops, and the message still gets a full quiet window.
			fresh := &pendingBatch{texts: append(batch.texts, text)}
			fresh.timer = time.AfterFunc(b.window, func() { b.flush(sender, fresh) })
			b.pending[sender] = fresh
			batch = fresh
		}
		b.log.Debug("Extended pending batch", "sender", sender, "size", len(batch.texts))
		return
	}

	batch := &pendingBatch{texts: []string{text}}
	batch.timer = time.AfterFunc(b.window, func() { b.flush(sender, batch) })
	b.pending[sender] = batch
	b.log.Debug("Opened new batch", "sender", sender)
}

// flush removes the sender's batch from the pending map and pushes it to the
// queue. Called from the debounce timer goroutine. The batch argument guards
// against a fired timer whose batch was replaced before the flush got the
// lock; such a flush must not touch the successor batch.
func (b *Batcher) flush(sender string, batch *pendingBatch) {
	b.mu.Lock()
	if b.pending[sender] != batch {
		b.mu.Unlock()
		return
	}
	delete(b.pending, sender)
	texts := batch.texts
	b.mu.Unlock()

	b.pushBatch(sender, texts)
}

func (b *Batcher) pushBatch(sender string, texts []string) {
	b.wg.Add(1)
	defer b.wg.Done()

	env := queue.NewInbound(sender, texts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.queue.Push(ctx, env); err != nil {
		b.log.Error("Failed to push batch to queue", "sender", sender, "messages", len(texts), "error", err)
		return
	}
	b.log.Info("Flushed batch to queue", "sender", sender, "messages", len(texts))
}

// Stop flushes all pending batches immediately and prevents new windows from
// opening. It blocks until in-flight pushes finish or ctx is done.
func (b *Batcher) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	remaining := make(map[string][]string, len(b.pending))
	for sender, batch := range b.pending {
		batch.timer.Stop()
		remaining[sender] = batch.texts
	}
	b.pending = make(map[string]*pendingBatch)
	b.mu.Unlock()

	for sender, texts := range remaining {
		b.pushBatch(sender, texts)
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

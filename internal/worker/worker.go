// Package worker runs the dispatch loop: pop envelopes off the durable
// queue, route them through onboarding or the conversation pipeline, and
// hand outbound envelopes to the delivery client. Several workers may run
// concurrently; envelopes for the same sender are serialized so replies
// never interleave.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/delivery"
	"github.com/oppscout/oppscout/internal/onboarding"
	"github.com/oppscout/oppscout/internal/queue"
)

// Responder produces a reply for a profiled sender's message.
type Responder interface {
	Respond(ctx context.Context, userID, message string) (string, error)
}

// Onboarder advances the onboarding flow for an unprofiled sender.
type Onboarder interface {
	Advance(ctx context.Context, sender, message string) (string, error)
}

// Store is the subset of database operations the worker needs.
type Store interface {
	GetUserProfile(ctx context.Context, userID string) (*database.UserProfile, error)
	AppendConversationMessage(ctx context.Context, userID, sender, content string, maxHistory int) error
}

// Deps bundles the collaborators a worker pool needs.
type Deps struct {
	Queue      queue.Queue
	Store      Store
	Responder  Responder
	Onboarder  Onboarder
	Sender     delivery.Sender
	Logger     *slog.Logger
	PopTimeout time.Duration
	MaxHistory int

	// GeneralError is the apology sent when processing an inbound message
	// fails outright.
	GeneralError string

	// RetryPrompt is sent when a turn fails on a durable-state
	// inconsistency, asking the sender to repeat their last message.
	RetryPrompt string
}

// Pool is a set of dispatch workers sharing one queue.
type Pool struct {
	deps Deps
	log  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPool creates a worker pool.
func NewPool(deps Deps) *Pool {
	return &Pool{
		deps:  deps,
		log:   deps.Logger.With("component", "worker"),
		locks: make(map[string]*sync.Mutex),
	}
}

// Run executes one worker loop until ctx is canceled. Processing errors are
// logged and never stop the loop.
func (p *Pool) Run(ctx context.Context, id int) error {
	log := p.log.With("worker", id)
	log.Info("Worker started")

	for {
		if ctx.Err() != nil {
			log.Info("Worker stopping")
			return ctx.Err()
		}

		env, err := p.deps.Queue.Pop(ctx, p.deps.PopTimeout)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrEmpty):
				continue
			case errors.Is(err, queue.ErrMalformedEnvelope):
				log.Warn("Dropped malformed envelope", "error", err)
				continue
			case ctx.Err() != nil:
				log.Info("Worker stopping")
				return ctx.Err()
			default:
				log.Error("Queue pop failed", "error", err)
				// Back off briefly so a dead queue does not spin the loop.
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			}
		}

		p.process(ctx, log, env)
	}
}

// process handles one envelope. Envelopes for the same phone number are
// serialized across workers.
func (p *Pool) process(ctx context.Context, log *slog.Logger, env *queue.Envelope) {
	unlock := p.lockSender(env.PhoneNumber)
	defer unlock()

	if env.IsOutbound {
		p.deliver(ctx, log, env)
		return
	}
	p.handleInbound(ctx, log, env)
}

func (p *Pool) deliver(ctx context.Context, log *slog.Logger, env *queue.Envelope) {
	body := env.Message.Join()
	if err := p.deps.Sender.Send(ctx, env.PhoneNumber, body); err != nil {
		log.Error("Failed to deliver outbound message", "envelope_id", env.ID, "to", env.PhoneNumber, "error", err)
		return
	}
	log.Debug("Outbound envelope delivered", "envelope_id", env.ID, "to", env.PhoneNumber)
}

func (p *Pool) handleInbound(ctx context.Context, log *slog.Logger, env *queue.Envelope) {
	sender := env.PhoneNumber
	message := env.Message.Join()

	reply, err := p.respond(ctx, sender, message)
	if err != nil {
		log.Error("Failed to process inbound message", "envelope_id", env.ID, "sender", sender, "error", err)
		if errors.Is(err, onboarding.ErrStateInconsistent) {
			reply = p.deps.RetryPrompt
		} else {
			reply = p.deps.GeneralError
		}
	}

	if reply == "" {
		return
	}

	if err := p.deps.Queue.Push(ctx, queue.NewOutbound(sender, reply)); err != nil {
		log.Error("Failed to enqueue reply", "sender", sender, "error", err)
		return
	}

	if err := p.deps.Store.AppendConversationMessage(ctx, sender, "assistant", reply, p.deps.MaxHistory); err != nil {
		log.Error("Failed to record assistant message", "sender", sender, "error", err)
	}
}

// respond records the inbound message and routes it: senders without a
// profile go through onboarding, everyone else through the conversation
// pipeline.
func (p *Pool) respond(ctx context.Context, sender, message string) (string, error) {
	if err := p.deps.Store.AppendConversationMessage(ctx, sender, "user", message, p.deps.MaxHistory); err != nil {
		return "", fmt.Errorf("failed to record user message: %w", err)
	}

	prof, err := p.deps.Store.GetUserProfile(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}

	if prof == nil {
		return p.deps.Onboarder.Advance(ctx, sender, message)
	}
	return p.deps.Responder.Respond(ctx, sender, message)
}

// lockSender acquires the per-sender mutex, creating it on first use, and
// returns the corresponding unlock.
func (p *Pool) lockSender(sender string) func() {
	p.mu.Lock()
	l, ok := p.locks[sender]
	if !ok {
		l = &sync.Mutex{}
		p.locks[sender] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

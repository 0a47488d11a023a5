package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/onboarding"
	"github.com/oppscout/oppscout/internal/queue"
)

type recordedMessage struct {
	sender  string
	content string
}

type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]*database.UserProfile
	history  map[string][]recordedMessage
}

func newStore(profiled ...string) *fakeStore {
	s := &fakeStore{
		profiles: make(map[string]*database.UserProfile),
		history:  make(map[string][]recordedMessage),
	}
	for _, p := range profiled {
		s.profiles[p] = &database.UserProfile{UserID: p}
	}
	return s
}

func (s *fakeStore) GetUserProfile(_ context.Context, userID string) (*database.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID], nil
}

func (s *fakeStore) AppendConversationMessage(_ context.Context, userID, sender, content string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = append(s.history[userID], recordedMessage{sender: sender, content: content})
	return nil
}

func (s *fakeStore) historyFor(userID string) []recordedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedMessage(nil), s.history[userID]...)
}

type fakeResponder struct {
	mu      sync.Mutex
	reply   string
	err     error
	handled []string
}

func (r *fakeResponder) Respond(_ context.Context, userID, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, message)
	return r.reply, r.err
}

func (r *fakeResponder) handledCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handled)
}

type fakeOnboarder struct {
	mu      sync.Mutex
	reply   string
	err     error
	handled []string
}

func (o *fakeOnboarder) Advance(_ context.Context, sender, message string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handled = append(o.handled, message)
	return o.reply, o.err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []recordedMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, recordedMessage{sender: to, content: body})
	return nil
}

func (s *fakeSender) all() []recordedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedMessage(nil), s.sent...)
}

func runWorker(t *testing.T, deps Deps, until func() bool) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(deps)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pool.Run(ctx, 0)
	}()

	deadline := time.After(3 * time.Second)
	for !until() {
		select {
		case <-deadline:
			t.Fatal("worker did not reach expected state in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func baseDeps(q queue.Queue, store *fakeStore, resp *fakeResponder, onb *fakeOnboarder, snd *fakeSender) Deps {
	return Deps{
		Queue:        q,
		Store:        store,
		Responder:    resp,
		Onboarder:    onb,
		Sender:       snd,
		Logger:       slog.New(slog.DiscardHandler),
		PopTimeout:   50 * time.Millisecond,
		MaxHistory:   10,
		GeneralError: "Sorry, something went wrong.",
		RetryPrompt:  "Please send that again.",
	}
}

func TestWorkerRoutesProfiledSenderThroughPipeline(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore("+1555")
	resp := &fakeResponder{reply: "here is your answer"}
	onb := &fakeOnboarder{reply: "welcome"}
	snd := &fakeSender{}

	require.NoError(t, q.Push(context.Background(), queue.NewInbound("+1555", []string{"hi", "again"})))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return len(snd.all()) >= 1
	})

	// Batched messages reach the pipeline newline-joined.
	require.Equal(t, []string{"hi\nagain"}, resp.handled)
	require.Empty(t, onb.handled)

	sent := snd.all()
	require.Len(t, sent, 1)
	require.Equal(t, "+1555", sent[0].sender)
	require.Equal(t, "here is your answer", sent[0].content)

	// Both sides of the exchange are recorded.
	history := store.historyFor("+1555")
	require.Equal(t, []recordedMessage{
		{sender: "user", content: "hi\nagain"},
		{sender: "assistant", content: "here is your answer"},
	}, history)
}

func TestWorkerRoutesUnknownSenderThroughOnboarding(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore()
	resp := &fakeResponder{reply: "should not be used"}
	onb := &fakeOnboarder{reply: "what's your name?"}
	snd := &fakeSender{}

	require.NoError(t, q.Push(context.Background(), queue.NewInbound("+1777", []string{"hello"})))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return len(snd.all()) >= 1
	})

	require.Equal(t, []string{"hello"}, onb.handled)
	require.Empty(t, resp.handled)
	require.Equal(t, "what's your name?", snd.all()[0].content)
}

func TestWorkerDeliversOutboundEnvelopeDirectly(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore()
	resp := &fakeResponder{}
	onb := &fakeOnboarder{}
	snd := &fakeSender{}

	require.NoError(t, q.Push(context.Background(), queue.NewOutbound("+1888", "direct announcement")))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return len(snd.all()) >= 1
	})

	require.Equal(t, "direct announcement", snd.all()[0].content)
	require.Empty(t, resp.handled)
	require.Empty(t, onb.handled)
}

func TestWorkerSendsApologyOnProcessingFailure(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore("+1555")
	resp := &fakeResponder{err: errors.New("pipeline exploded")}
	onb := &fakeOnboarder{}
	snd := &fakeSender{}

	require.NoError(t, q.Push(context.Background(), queue.NewInbound("+1555", []string{"hi"})))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return len(snd.all()) >= 1
	})

	require.Equal(t, "Sorry, something went wrong.", snd.all()[0].content)
}

func TestWorkerSendsRetryPromptOnStateInconsistency(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore()
	resp := &fakeResponder{}
	onb := &fakeOnboarder{err: fmt.Errorf("%w: failed to update: disk gone", onboarding.ErrStateInconsistent)}
	snd := &fakeSender{}

	require.NoError(t, q.Push(context.Background(), queue.NewInbound("+1999", []string{"hi"})))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return len(snd.all()) >= 1
	})

	require.Equal(t, "Please send that again.", snd.all()[0].content)
}

func TestWorkerSurvivesMalformedEnvelope(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore("+1555")
	resp := &fakeResponder{reply: "still alive"}
	onb := &fakeOnboarder{}
	snd := &fakeSender{}

	// An envelope without a phone number decodes but fails validation and is
	// dropped; the worker keeps going and serves the next envelope.
	bad := &queue.Envelope{Message: queue.Payload{"orphan"}, Timestamp: "1.0"}
	require.NoError(t, q.Push(context.Background(), bad))
	require.NoError(t, q.Push(context.Background(), queue.NewInbound("+1555", []string{"hi"})))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return len(snd.all()) >= 1
	})

	require.Equal(t, "still alive", snd.all()[0].content)
}

func TestWorkerEmptyReplyProducesNoOutbound(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	store := newStore("+1555")
	resp := &fakeResponder{reply: ""}
	onb := &fakeOnboarder{}
	snd := &fakeSender{}

	require.NoError(t, q.Push(context.Background(), queue.NewInbound("+1555", []string{"hi"})))

	runWorker(t, baseDeps(q, store, resp, onb, snd), func() bool {
		return resp.handledCount() >= 1
	})

	require.Empty(t, snd.all())
	// Only the user side is recorded.
	require.Equal(t, []recordedMessage{{sender: "user", content: "hi"}}, store.historyFor("+1555"))
}

// Package onboarding implements the multi-step intake flow for senders
// without a profile. The flow asks for a name, background, and interests,
// accumulating every answer verbatim; on the terminal step the accumulated
// messages are distilled into a full profile.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oppscout/oppscout/internal/ai"
	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/profile"
)

// ErrStateInconsistent marks a durable-state failure mid-flow, such as a
// state row vanishing between load and update. Callers surface it as a
// retry prompt rather than a generic apology.
var ErrStateInconsistent = errors.New("onboarding state inconsistent")

// Onboarding steps. The step number is the question the sender is currently
// answering.
const (
	StepName       = 0
	StepBackground = 1
	StepInterests  = 2
)

// Store is the subset of database operations the onboarding flow needs.
type Store interface {
	GetOnboardingState(ctx context.Context, userID string) (*database.OnboardingState, error)
	CreateOnboardingState(ctx context.Context, state *database.OnboardingState) error
	UpdateOnboardingState(ctx context.Context, state *database.OnboardingState) error
	MaterializeProfile(ctx context.Context, profile *database.UserProfile) error
}

// Machine drives the onboarding conversation for one message at a time.
type Machine struct {
	store    Store
	ai       ai.Client
	log      *slog.Logger
	messages config.MessagesConfig
}

// NewMachine creates an onboarding machine.
func NewMachine(store Store, aiClient ai.Client, messages config.MessagesConfig, log *slog.Logger) *Machine {
	return &Machine{
		store:    store,
		ai:       aiClient,
		log:      log.With("component", "onboarding"),
		messages: messages,
	}
}

// Advance processes one inbound message from a sender who has no profile and
// returns the reply to send back.
//
// A sender with no onboarding state gets a state created at the first step
// and receives the welcome prompt; their message is not treated as an answer.
// Otherwise the message is stored as the answer to the current step's
// question and the flow either asks the next question or, on the terminal
// step, materializes the profile.
func (m *Machine) Advance(ctx context.Context, sender, message string) (string, error) {
	state, err := m.store.GetOnboardingState(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("failed to load onboarding state: %w", err)
	}

	if state == nil {
		state = &database.OnboardingState{
			UserID: sender,
			Step:   StepName,
		}
		if err := m.store.CreateOnboardingState(ctx, state); err != nil {
			return "", fmt.Errorf("failed to create onboarding state: %w", err)
		}
		m.log.InfoContext(ctx, "Started onboarding", "sender", sender)
		return m.messages.Welcome, nil
	}

	// Every answer is kept verbatim, including empty ones. The extraction
	// model sees the raw transcript.
	state.AccumulatedMessages = append(state.AccumulatedMessages, message)

	switch state.Step {
	case StepName:
		state.PartialProfile.Username = message
		state.Step = StepBackground
		if err := m.store.UpdateOnboardingState(ctx, state); err != nil {
			return "", fmt.Errorf("%w: failed to update: %v", ErrStateInconsistent, err)
		}
		return m.messages.AskBackground, nil

	case StepBackground:
		state.Step = StepInterests
		if err := m.store.UpdateOnboardingState(ctx, state); err != nil {
			return "", fmt.Errorf("%w: failed to update: %v", ErrStateInconsistent, err)
		}
		return m.messages.AskInterests, nil

	default:
		// Terminal step. Persist the final answer first so a failure below
		// never loses it.
		if err := m.store.UpdateOnboardingState(ctx, state); err != nil {
			return "", fmt.Errorf("%w: failed to update: %v", ErrStateInconsistent, err)
		}
		return m.complete(ctx, state)
	}
}

// complete distills the accumulated messages into a profile and materializes
// it. Extraction and embedding failures degrade gracefully: the profile is
// created from whatever survived, never blocking completion.
func (m *Machine) complete(ctx context.Context, state *database.OnboardingState) (string, error) {
	draft := state.PartialProfile

	bg, err := m.ai.ExtractBackground(ctx, state.AccumulatedMessages)
	if err != nil {
		m.log.WarnContext(ctx, "Background extraction failed, completing with raw answers", "sender", state.UserID, "error", err)
	} else {
		draft = profile.MergeBackground(draft, bg)
	}

	p := &database.UserProfile{
		UserID:   state.UserID,
		Username: draft.Username,
		Location: draft.Location,
		Bio:      draft.Bio,
	}

	if p.Bio != "" {
		embedding, err := m.ai.EmbedText(ctx, p.Bio)
		if err != nil {
			m.log.WarnContext(ctx, "Bio embedding failed, profile saved without embedding", "sender", state.UserID, "error", err)
		} else {
			p.Embedding = embedding
		}
	}

	if err := m.store.MaterializeProfile(ctx, p); err != nil {
		return "", fmt.Errorf("failed to materialize profile: %w", err)
	}

	m.log.InfoContext(ctx, "Onboarding complete", "sender", state.UserID, "has_embedding", len(p.Embedding) > 0)
	return m.messages.OnboardingDone, nil
}

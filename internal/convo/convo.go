// Package convo is the reply pipeline for senders with a complete profile.
// It classifies each inbound message into a tagged intent and dispatches on
// the kind: plain replies for chat and advice, the matching engine for
// recommendations, and a profile merge for updates.
package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oppscout/oppscout/internal/ai"
	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/intent"
	"github.com/oppscout/oppscout/internal/matcher"
	"github.com/oppscout/oppscout/internal/profile"
)

// Store is the subset of database operations the pipeline needs.
type Store interface {
	GetConversation(ctx context.Context, userID string) (*database.Conversation, error)
	GetUserProfile(ctx context.Context, userID string) (*database.UserProfile, error)
	SaveUserProfile(ctx context.Context, profile *database.UserProfile) error
}

// Recommender computes ranked opportunity matches for a user.
type Recommender interface {
	Recommend(ctx context.Context, userID string, filters *intent.Filters) ([]matcher.Match, error)
}

// Pipeline turns one inbound message into one outbound reply.
type Pipeline struct {
	store       Store
	ai          ai.Client
	recommender Recommender
	log         *slog.Logger
	messages    config.MessagesConfig
}

// NewPipeline creates a conversation pipeline.
func NewPipeline(store Store, aiClient ai.Client, recommender Recommender, messages config.MessagesConfig, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:       store,
		ai:          aiClient,
		recommender: recommender,
		log:         log.With("component", "convo"),
		messages:    messages,
	}
}

// Respond produces the reply to one inbound message from userID.
func (p *Pipeline) Respond(ctx context.Context, userID, message string) (string, error) {
	var history []database.ConversationMessage
	conv, err := p.store.GetConversation(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv != nil {
		history = conv.Messages
	}

	in, err := p.ai.ClassifyIntent(ctx, history, message)
	if err != nil {
		// Classification failure falls back to a plain reply so the sender
		// still gets an answer.
		p.log.WarnContext(ctx, "Intent classification failed, falling back to plain reply", "user", userID, "error", err)
		return p.ai.GenerateReply(ctx, history, message)
	}

	p.log.DebugContext(ctx, "Classified intent", "user", userID, "kind", in.Kind)

	switch in.Kind {
	case intent.KindCasualChat, intent.KindAdviceRequest:
		if in.Reply != "" {
			return in.Reply, nil
		}
		return p.ai.GenerateReply(ctx, history, message)

	case intent.KindNewRecommendation, intent.KindNewRecommendationRequest:
		return p.recommend(ctx, userID, in.Filters)

	case intent.KindProfileUpdate:
		return p.updateProfile(ctx, userID, in.ProfileDelta)

	default:
		return "", fmt.Errorf("unhandled intent kind %q", in.Kind)
	}
}

func (p *Pipeline) recommend(ctx context.Context, userID string, filters *intent.Filters) (string, error) {
	matches, err := p.recommender.Recommend(ctx, userID, filters)
	if err != nil {
		if errors.Is(err, matcher.ErrNoEmbedding) {
			p.log.WarnContext(ctx, "Recommendation requested without profile embedding", "user", userID)
			return p.messages.NoRecommendations, nil
		}
		return "", fmt.Errorf("failed to compute recommendation: %w", err)
	}
	if len(matches) == 0 {
		return p.messages.NoRecommendations, nil
	}
	return matcher.FormatMatch(matches[0]), nil
}

func (p *Pipeline) updateProfile(ctx context.Context, userID string, delta *profile.Delta) (string, error) {
	if delta == nil || delta.IsZero() {
		return "Nothing to update. Tell me what changed and I'll adjust your profile.", nil
	}

	prof, err := p.store.GetUserProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	if prof == nil {
		return "", fmt.Errorf("profile update for unknown user %s", userID)
	}

	bioChanged := profile.Merge(prof, delta)
	if bioChanged && strings.TrimSpace(prof.Bio) != "" {
		embedding, err := p.ai.EmbedText(ctx, prof.Bio)
		if err != nil {
			p.log.WarnContext(ctx, "Bio re-embedding failed, keeping previous embedding", "user", userID, "error", err)
		} else {
			prof.Embedding = embedding
		}
	}

	if err := p.store.SaveUserProfile(ctx, prof); err != nil {
		return "", fmt.Errorf("failed to save profile: %w", err)
	}

	p.log.InfoContext(ctx, "Profile updated", "user", userID, "bio_changed", bioChanged)
	return "Got it, I've updated your profile.", nil
}

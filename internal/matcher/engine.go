// Package matcher ranks opportunities against a user's profile embedding and
// records what was recommended so the same opportunity is not sent twice in
// quick succession.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/intent"
)

// DefaultTopK is the candidate pool size when the request carries no filter.
const DefaultTopK = 5

// repeatWindow is how long an opportunity stays suppressed for a user after
// being recommended.
const repeatWindow = 30 * 24 * time.Hour

// Store is the subset of database operations the matcher needs.
type Store interface {
	GetUserProfile(ctx context.Context, userID string) (*database.UserProfile, error)
	ListOpportunities(ctx context.Context) ([]*database.Opportunity, error)
	RecordRecommendation(ctx context.Context, rec *database.Recommendation) error
	ListRecentRecommendationIDs(ctx context.Context, userID string, since time.Time) ([]string, error)
}

// Match is one ranked opportunity.
type Match struct {
	Opportunity *database.Opportunity
	Score       float64
}

// Engine computes recommendations.
type Engine struct {
	store Store
	log   *slog.Logger
}

// NewEngine creates a matching engine over the store.
func NewEngine(store Store, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log.With("component", "matcher")}
}

// ErrNoEmbedding is returned when the user has no profile embedding to match
// against.
var ErrNoEmbedding = fmt.Errorf("user has no profile embedding")

// Recommend ranks opportunities for the user by cosine similarity to their
// profile embedding, applies the request filters, skips opportunities already
// recommended recently, and records the top match. Returns the ranked
// matches, best first; an empty slice means nothing suitable was found.
func (e *Engine) Recommend(ctx context.Context, userID string, filters *intent.Filters) ([]Match, error) {
	p, err := e.store.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil || len(p.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}

	topK := DefaultTopK
	var deadlineBefore time.Time
	if filters != nil {
		if filters.TopK > 0 {
			topK = filters.TopK
		}
		if filters.DeadlineBefore != "" {
			deadlineBefore, err = time.Parse(time.RFC3339, filters.DeadlineBefore)
			if err != nil {
				// A garbled filter should not fail the whole request.
				e.log.WarnContext(ctx, "Ignoring unparseable deadline filter", "value", filters.DeadlineBefore, "error", err)
				deadlineBefore = time.Time{}
			}
		}
	}

	recent, err := e.store.ListRecentRecommendationIDs(ctx, userID, time.Now().Add(-repeatWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent recommendations: %w", err)
	}
	seen := make(map[string]bool, len(recent))
	for _, id := range recent {
		seen[id] = true
	}

	opps, err := e.store.ListOpportunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	matches := make([]Match, 0, len(opps))
	for _, opp := range opps {
		if seen[opp.ID] {
			continue
		}
		if !deadlineBefore.IsZero() {
			if !opp.Deadline.Valid || opp.Deadline.Time.After(deadlineBefore) {
				continue
			}
		}
		score, ok := cosineSimilarity(p.Embedding, opp.Embedding)
		if !ok {
			continue
		}
		matches = append(matches, Match{Opportunity: opp, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}

	if len(matches) == 0 {
		e.log.InfoContext(ctx, "No opportunities matched", "user", userID)
		return nil, nil
	}

	top := matches[0]
	if err := e.store.RecordRecommendation(ctx, &database.Recommendation{
		UserID:        userID,
		OpportunityID: top.Opportunity.ID,
		Score:         top.Score,
	}); err != nil {
		return nil, fmt.Errorf("failed to record recommendation: %w", err)
	}

	e.log.InfoContext(ctx, "Recommendation computed", "user", userID, "opportunity", top.Opportunity.ID, "score", top.Score, "candidates", len(matches))
	return matches, nil
}

// cosineSimilarity returns the cosine of the angle between a and b. The
// second return is false when the vectors cannot be compared.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// FormatMatch renders one match as a short SMS-sized blurb.
func FormatMatch(m Match) string {
	opp := m.Opportunity
	text := opp.Title
	if opp.Description != "" {
		text += ": " + opp.Description
	}
	if opp.City != "" {
		loc := opp.City
		if opp.State != "" {
			loc += ", " + opp.State
		}
		text += " (" + loc + ")"
	}
	if opp.Deadline.Valid {
		text += " Deadline: " + opp.Deadline.Time.Format("Jan 2, 2006") + "."
	}
	return text
}

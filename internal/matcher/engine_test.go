package matcher

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/intent"
)

type fakeStore struct {
	profile       *database.UserProfile
	opportunities []*database.Opportunity
	recentIDs     []string
	recorded      []*database.Recommendation
}

func (s *fakeStore) GetUserProfile(context.Context, string) (*database.UserProfile, error) {
	return s.profile, nil
}

func (s *fakeStore) ListOpportunities(context.Context) ([]*database.Opportunity, error) {
	return s.opportunities, nil
}

func (s *fakeStore) RecordRecommendation(_ context.Context, rec *database.Recommendation) error {
	s.recorded = append(s.recorded, rec)
	return nil
}

func (s *fakeStore) ListRecentRecommendationIDs(context.Context, string, time.Time) ([]string, error) {
	return s.recentIDs, nil
}

func opp(id string, embedding []float32) *database.Opportunity {
	return &database.Opportunity{ID: id, Title: "Opportunity " + id, Embedding: embedding}
}

func newEngine(s *fakeStore) *Engine {
	return NewEngine(s, slog.New(slog.DiscardHandler))
}

func TestRecommendRanksByCosineSimilarity(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		profile: &database.UserProfile{UserID: "+1555", Embedding: database.Vector{1, 0, 0}},
		opportunities: []*database.Opportunity{
			opp("orthogonal", []float32{0, 1, 0}),
			opp("aligned", []float32{2, 0, 0}),
			opp("partial", []float32{1, 1, 0}),
		},
	}
	e := newEngine(store)

	matches, err := e.Recommend(context.Background(), "+1555", nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "aligned", matches[0].Opportunity.ID)
	require.Equal(t, "partial", matches[1].Opportunity.ID)
	require.Equal(t, "orthogonal", matches[2].Opportunity.ID)

	// Only the top match is recorded.
	require.Len(t, store.recorded, 1)
	require.Equal(t, "aligned", store.recorded[0].OpportunityID)
	require.InDelta(t, 1.0, store.recorded[0].Score, 1e-9)
}

func TestRecommendNoEmbedding(t *testing.T) {
	t.Parallel()

	store := &fakeStore{profile: &database.UserProfile{UserID: "+1555"}}
	_, err := newEngine(store).Recommend(context.Background(), "+1555", nil)
	require.ErrorIs(t, err, ErrNoEmbedding)

	store = &fakeStore{}
	_, err = newEngine(store).Recommend(context.Background(), "+1555", nil)
	require.ErrorIs(t, err, ErrNoEmbedding)
}

func TestRecommendSkipsRecentlyRecommended(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		profile: &database.UserProfile{UserID: "+1555", Embedding: database.Vector{1, 0}},
		opportunities: []*database.Opportunity{
			opp("best-but-seen", []float32{1, 0}),
			opp("second", []float32{1, 1}),
		},
		recentIDs: []string{"best-but-seen"},
	}

	matches, err := newEngine(store).Recommend(context.Background(), "+1555", nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "second", matches[0].Opportunity.ID)
}

func TestRecommendAppliesFilters(t *testing.T) {
	t.Parallel()

	soon := sql.NullTime{Time: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), Valid: true}
	late := sql.NullTime{Time: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}

	withDeadline := func(id string, dl sql.NullTime, emb []float32) *database.Opportunity {
		o := opp(id, emb)
		o.Deadline = dl
		return o
	}

	store := &fakeStore{
		profile: &database.UserProfile{UserID: "+1555", Embedding: database.Vector{1, 0}},
		opportunities: []*database.Opportunity{
			withDeadline("soon", soon, []float32{1, 1}),
			withDeadline("late", late, []float32{1, 0}),
			opp("no-deadline", []float32{1, 0}),
		},
	}

	matches, err := newEngine(store).Recommend(context.Background(), "+1555", &intent.Filters{
		TopK:           1,
		DeadlineBefore: "2026-10-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "soon", matches[0].Opportunity.ID)
}

func TestRecommendTopKLimit(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		profile: &database.UserProfile{UserID: "+1555", Embedding: database.Vector{1, 0}},
		opportunities: []*database.Opportunity{
			opp("a", []float32{1, 0}),
			opp("b", []float32{1, 1}),
			opp("c", []float32{0.5, 1}),
		},
	}

	matches, err := newEngine(store).Recommend(context.Background(), "+1555", &intent.Filters{TopK: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestRecommendEmptyResult(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		profile: &database.UserProfile{UserID: "+1555", Embedding: database.Vector{1, 0}},
	}

	matches, err := newEngine(store).Recommend(context.Background(), "+1555", nil)
	require.NoError(t, err)
	require.Empty(t, matches)
	require.Empty(t, store.recorded)
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	score, ok := cosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.True(t, ok)
	require.InDelta(t, 1.0, score, 1e-9)

	score, ok = cosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.True(t, ok)
	require.InDelta(t, 0.0, score, 1e-9)

	score, ok = cosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.True(t, ok)
	require.InDelta(t, -1.0, score, 1e-9)

	_, ok = cosineSimilarity([]float32{1, 0}, []float32{1})
	require.False(t, ok, "mismatched dimensions")

	_, ok = cosineSimilarity(nil, nil)
	require.False(t, ok, "empty vectors")

	_, ok = cosineSimilarity([]float32{0, 0}, []float32{1, 0})
	require.False(t, ok, "zero vector")
}

func TestValidTag(t *testing.T) {
	t.Parallel()

	require.True(t, ValidTag("AI/ML"))
	require.True(t, ValidTag("Pre-Seed Funding"))
	require.False(t, ValidTag("ai/ml"))
	require.False(t, ValidTag("Skydiving"))
}

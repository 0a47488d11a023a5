package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// newEmbedOpportunitiesTask creates the scheduled task that computes
// embeddings for opportunities that were ingested without one. The matcher
// only sees opportunities once this task has embedded them.
func newEmbedOpportunitiesTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "embed_opportunities")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting opportunity embedding task")
		startTime := time.Now()

		opps, err := deps.Store.ListOpportunitiesMissingEmbedding(ctx)
		if err != nil {
			return fmt.Errorf("failed to list opportunities missing embeddings: %w", err)
		}
		if len(opps) == 0 {
			log.DebugContext(ctx, "No opportunities awaiting embedding")
			return nil
		}

		embedded, failed := 0, 0
		for _, opp := range opps {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			text := strings.TrimSpace(strings.Join([]string{
				opp.Title, opp.Description, opp.Type, opp.State, opp.City,
			}, " "))
			if text == "" {
				log.WarnContext(ctx, "Skipping opportunity with no text to embed", "opportunity_id", opp.ID)
				failed++
				continue
			}

			vec, err := deps.AI.EmbedText(ctx, text)
			if err != nil {
				log.ErrorContext(ctx, "Failed to embed opportunity", "opportunity_id", opp.ID, "error", err)
				failed++
				continue
			}

			opp.Embedding = vec
			if err := deps.Store.SaveOpportunity(ctx, opp); err != nil {
				log.ErrorContext(ctx, "Failed to save embedded opportunity", "opportunity_id", opp.ID, "error", err)
				failed++
				continue
			}
			embedded++
		}

		log.InfoContext(ctx, "Opportunity embedding task completed",
			"embedded", embedded, "failed", failed, "duration", time.Since(startTime))
		return nil
	}
}

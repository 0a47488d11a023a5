package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oppscout/oppscout/internal/matcher"
	"github.com/oppscout/oppscout/internal/queue"
)

// deliveryHour is the local hour at which users receive their daily
// recommendation. The task runs hourly and matches each user's timezone
// against this hour, so every user gets their message at the same local
// time.
const deliveryHour = 8

// newDailyRecommendationsTask creates the scheduled task that pushes one
// recommendation per eligible user to the outbound queue.
func newDailyRecommendationsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_recommendations")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting daily recommendations task")
		startTime := time.Now()

		profiles, err := deps.Store.GetAllUserProfiles(ctx)
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		now := time.Now().UTC()
		sent, skipped, failed := 0, 0, 0

		for _, p := range profiles {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if p.Timezone == "" {
				log.WarnContext(ctx, "Skipping user without timezone", "user", p.UserID)
				skipped++
				continue
			}

			loc, err := time.LoadLocation(p.Timezone)
			if err != nil {
				log.WarnContext(ctx, "Skipping user with invalid timezone", "user", p.UserID, "timezone", p.Timezone, "error", err)
				skipped++
				continue
			}

			if now.In(loc).Hour() != deliveryHour {
				skipped++
				continue
			}

			matches, err := deps.Matcher.Recommend(ctx, p.UserID, nil)
			if err != nil {
				if errors.Is(err, matcher.ErrNoEmbedding) {
					log.DebugContext(ctx, "Skipping user without embedding", "user", p.UserID)
					skipped++
					continue
				}
				log.ErrorContext(ctx, "Recommendation failed for user", "user", p.UserID, "error", err)
				failed++
				continue
			}
			if len(matches) == 0 {
				skipped++
				continue
			}

			body := "Here's an opportunity for you today: " + matcher.FormatMatch(matches[0])
			if err := deps.Queue.Push(ctx, queue.NewOutbound(p.UserID, body)); err != nil {
				log.ErrorContext(ctx, "Failed to queue daily recommendation", "user", p.UserID, "error", err)
				failed++
				continue
			}
			sent++
		}

		log.InfoContext(ctx, "Daily recommendations task completed",
			"sent", sent, "skipped", skipped, "failed", failed, "duration", time.Since(startTime))
		return nil
	}
}

// Package tasks implements the scheduled background tasks: daily
// recommendation delivery and database maintenance.
package tasks

import (
	"log/slog"

	"github.com/oppscout/oppscout/internal/ai"
	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/matcher"
	"github.com/oppscout/oppscout/internal/queue"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Queue   queue.Queue
	Matcher *matcher.Engine
	AI      ai.Client
	Config  *config.Config
}

// Package app orchestrates the application components: the HTTP server, the
// dispatch worker pool, the batcher, and the task scheduler. It owns startup
// order and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oppscout/oppscout/internal/batcher"
	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/scheduler"
	"github.com/oppscout/oppscout/internal/server"
	"github.com/oppscout/oppscout/internal/worker"
)

// App represents the assembled application and manages its components'
// lifecycle.
type App struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *server.Server
	workers   *worker.Pool
	batcher   *batcher.Batcher
	scheduler *scheduler.Scheduler
}

// New creates the application from its assembled components.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	srv *server.Server,
	workers *worker.Pool,
	b *batcher.Batcher,
	sched *scheduler.Scheduler,
) *App {
	return &App{
		logger:    logger.With("component", "app"),
		cfg:       cfg,
		server:    srv,
		workers:   workers,
		batcher:   b,
		scheduler: sched,
	}
}

// Run starts all components and blocks until ctx is canceled or a component
// fails. Shutdown drains the batcher so pending batches reach the queue
// before the process exits.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting application")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Run(gCtx)
	})

	for i := 0; i < a.cfg.Worker.Count; i++ {
		id := i
		g.Go(func() error {
			err := a.workers.Run(gCtx, id)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		a.logger.Info("Draining batcher")
		if err := a.batcher.Stop(drainCtx); err != nil {
			a.logger.Error("Batcher drain incomplete", "error", err)
		}
		return nil
	})

	a.logger.Info("Application running")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Application stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}

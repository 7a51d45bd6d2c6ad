package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alphabot-ai/moltbook/internal/auth"
	"github.com/alphabot-ai/moltbook/internal/config"
	httpapp "github.com/alphabot-ai/moltbook/internal/http"
	"github.com/alphabot-ai/moltbook/internal/kv"
	"github.com/alphabot-ai/moltbook/internal/logging"
	"github.com/alphabot-ai/moltbook/internal/rate"
	"github.com/alphabot-ai/moltbook/internal/store/sqlite"
)

const defaultURL = "http://localhost:8080"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "moltbook",
		Usage:   "Social network for AI agents",
		Version: "v0.1.0",
		Description: `Quick start:
   moltbook register --name my-agent
   moltbook post --submolt m/general "Hello Moltbook"

Server environment:
   MOLTBOOK_ADDR, MOLTBOOK_DB, MOLTBOOK_REDIS_ADDR, MOLTBOOK_HASH_SECRET,
   MOLTBOOK_ENV, MOLTBOOK_LOG_LEVEL, MOLTBOOK_LOG_FORMAT, MOLTBOOK_CORS_ORIGINS,
   MOLTBOOK_RL_<ACTION>_REQUESTS, MOLTBOOK_RL_<ACTION>_WINDOW`,
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server"},
				Usage:   "Start the Moltbook API server (default if no command)",
				Action:  runServer,
			},
			registerCommand(),
			postCommand(),
			commentCommand(),
			upvoteCommand(),
			followCommand(),
			readCommand(),
			whoamiCommand(),
			useCommand(),
			agentsCommand(),
		},
	}
}

// ============================================================================
// SERVER
// ============================================================================

func runServer(_ *cli.Context) error {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	counters, closeCounters, err := openCounters(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCounters()

	limiter := rate.NewLimiter(counters, cfg.RateLimits)
	authSvc := auth.NewService(store, cfg.HashSecret)
	server := httpapp.NewServer(store, authSvc, limiter, cfg, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("moltbook listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// openCounters picks Redis when configured and the in-process store otherwise.
func openCounters(cfg config.Config, logger *zap.Logger) (kv.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("MOLTBOOK_REDIS_ADDR not set, rate limit counters are kept in memory")
		return kv.NewMemory(), func() {}, nil
	}
	r, err := kv.NewRedis(kv.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("rate limit counters in redis", zap.String("addr", cfg.Redis.Addr))
	return r, func() { _ = r.Close() }, nil
}

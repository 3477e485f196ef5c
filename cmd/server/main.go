package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yamanavi/mountainquiz/internal/config"
	"github.com/yamanavi/mountainquiz/internal/database"
	"github.com/yamanavi/mountainquiz/internal/migrations"
	"github.com/yamanavi/mountainquiz/internal/provider/mountix"
	"github.com/yamanavi/mountainquiz/internal/provider/openmeteo"
	"github.com/yamanavi/mountainquiz/internal/provider/overpass"
	"github.com/yamanavi/mountainquiz/internal/provider/trivia"
	"github.com/yamanavi/mountainquiz/internal/provider/wikipedia"
	"github.com/yamanavi/mountainquiz/internal/quiz"
	"github.com/yamanavi/mountainquiz/internal/search"
	"github.com/yamanavi/mountainquiz/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := server.NewSQLiteStore(db)
	if err := server.SeedAdmin(ctx, logger, store); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	// --- Providers ---
	primary := mountix.New(cfg.MountixBaseURL, cfg.MountixAPIKey)
	peaks := overpass.New(cfg.OverpassEndpoint, cfg.OverpassCacheTTL, logger)
	encyclopedia := wikipedia.New(cfg.WikipediaBaseURL, cfg.WikipediaImageTTL, logger)
	weather := openmeteo.New(cfg.OpenMeteoBaseURL)

	aggregator := search.New(primary, peaks, encyclopedia, store, logger)

	// --- Quiz ---
	var generator quiz.TriviaProvider
	if cfg.GeminiAPIKey != "" {
		g, err := trivia.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return fmt.Errorf("creating trivia generator: %w", err)
		}
		generator = g
	} else {
		logger.Warn("GEMINI_API_KEY not set; quizzes will use mountain questions only")
	}

	sets := quiz.NewSetStore(cfg.QuizDir)
	builder := quiz.NewBuilder(aggregator, generator, sets, logger)
	registry := quiz.NewRegistry()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:          logger,
		DB:              db,
		Store:           store,
		Search:          aggregator,
		Images:          encyclopedia,
		Weather:         weather,
		Builder:         builder,
		Sets:            sets,
		Registry:        registry,
		RankingPageSize: cfg.RankingPageSize,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := registry.Sweep(cfg.SessionIdleTTL); n > 0 {
					logger.Info("reaped idle quiz sessions", "count", n)
				}
				if n := sets.Prune(cfg.QuizSetMaxAge); n > 0 {
					logger.Info("pruned stale quiz sets", "count", n)
				}
			}
		}
	})

	return g.Wait()
}

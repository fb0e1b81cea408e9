package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/voice2sql/voice2sql/internal/demo/seed"
)

func main() {
	cfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load demo seed config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	service, err := seed.NewService(cfg, logger, nil)
	if err != nil {
		logger.Error("failed to initialize demo seed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("demo seed started",
		slog.String("api_url", cfg.APIBaseURL),
		slog.String("file", cfg.FileName),
		slog.Int("students", cfg.Students),
		slog.Int64("seed", cfg.Seed),
	)
	if _, err := service.Run(ctx); err != nil {
		logger.Error("demo seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

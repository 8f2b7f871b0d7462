package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"traffic-analytics-service/internal/config"
	"traffic-analytics-service/internal/db"
	"traffic-analytics-service/internal/logger"
	"traffic-analytics-service/internal/repository"
	"traffic-analytics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	timeout := cfg.DB.QueryTimeout
	grouping := service.NewGroupingService(
		repository.NewVideoRepository(database, timeout),
		repository.NewBucketRepository(database, timeout),
		repository.NewAnalysisRepository(database, timeout),
		cfg.Location,
		appLogger,
	)

	result, err := grouping.GroupAllPending(ctx)
	if err != nil {
		appLogger.Error().Err(err).Msg("grouping backfill failed")
		os.Exit(1)
	}

	for _, msg := range result.Errors {
		appLogger.Warn().Str("reason", msg).Msg("video not grouped")
	}
	appLogger.Info().
		Int("grouped", result.GroupedCount).
		Int("errors", len(result.Errors)).
		Int64("remaining_ungrouped", result.RemainingUngrouped).
		Msg("grouping backfill finished")

	if len(result.Errors) > 0 {
		os.Exit(2)
	}
}

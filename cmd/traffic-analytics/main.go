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

	"traffic-analytics-service/internal/cache"
	"traffic-analytics-service/internal/config"
	"traffic-analytics-service/internal/db"
	"traffic-analytics-service/internal/detector"
	httphandler "traffic-analytics-service/internal/http"
	"traffic-analytics-service/internal/http/middleware"
	"traffic-analytics-service/internal/ingest"
	"traffic-analytics-service/internal/logger"
	"traffic-analytics-service/internal/progress"
	"traffic-analytics-service/internal/repository"
	"traffic-analytics-service/internal/service"
)

const shutdownTimeout = 15 * time.Second

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

	redisCache, err := cache.New(ctx, cfg.Redis.URL)
	if err != nil {
		appLogger.Warn().Err(err).Msg("redis unavailable, insights cache and progress tracking disabled")
	}
	defer redisCache.Close()

	det, err := detector.New(cfg.Detector.Kind, cfg.Detector.URL, cfg.Detector.Timeout)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to configure detector")
	}

	timeout := cfg.DB.QueryTimeout
	videoRepo := repository.NewVideoRepository(database, timeout)
	bucketRepo := repository.NewBucketRepository(database, timeout)
	analysisRepo := repository.NewAnalysisRepository(database, timeout)
	predictionRepo := repository.NewPredictionRepository(database, timeout)
	locationRepo := repository.NewLocationRepository(database, timeout)

	groupingService := service.NewGroupingService(videoRepo, bucketRepo, analysisRepo, cfg.Location, appLogger)
	predictionService := service.NewPredictionService(analysisRepo, predictionRepo, locationRepo, redisCache, cfg.Prediction, cfg.Location, appLogger)
	progressStore := progress.NewStore(redisCache.Client(), cfg.Redis.ProgressTTL)
	ingestService := service.NewIngestService(videoRepo, analysisRepo, groupingService, det, progressStore, appLogger)

	if cfg.MQTT.URL != "" {
		subscriber := ingest.NewSubscriber(cfg.MQTT.URL, cfg.MQTT.Topic, cfg.MQTT.ClientID, ingestService, appLogger)
		if err := subscriber.Start(ctx); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to start mqtt subscriber")
		}
		defer subscriber.Stop()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(10*time.Minute, ctx.Done())

	handler := httphandler.NewHandler(groupingService, predictionService, ingestService, appLogger)
	router := httphandler.NewRouter(handler, limiter, appLogger, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("addr", addr).
			Str("detector", string(cfg.Detector.Kind)).
			Str("timezone", cfg.Timezone).
			Msg("starting traffic analytics service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

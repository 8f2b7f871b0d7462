package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/config"
	"traffic-analytics-service/internal/forecast"
	"traffic-analytics-service/internal/metrics"
	"traffic-analytics-service/internal/model"
)

const (
	PredictionsChannel    = "traffic:predictions"
	insightsKeyPrefix     = "traffic:insights:"
	insightsKeyAllPattern = insightsKeyPrefix + "*"
)

// PredictionEvent is published after every generation run.
type PredictionEvent struct {
	LocationID       *uuid.UUID         `json:"location_id,omitempty"`
	Status           model.ResultStatus `json:"status"`
	DaysAhead        int                `json:"days_ahead"`
	PredictionsCount int                `json:"predictions_count"`
	ModelVersion     string             `json:"model_version"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

type PredictionService struct {
	analyses    AnalysisStore
	predictions PredictionStore
	locations   LocationStore
	cache       Cache
	cfg         config.PredictionConfig
	location    *time.Location
	logger      zerolog.Logger
	now         func() time.Time
}

func NewPredictionService(analyses AnalysisStore, predictions PredictionStore, locations LocationStore, cache Cache, cfg config.PredictionConfig, location *time.Location, logger zerolog.Logger) *PredictionService {
	if location == nil {
		location = time.UTC
	}
	return &PredictionService{
		analyses:    analyses,
		predictions: predictions,
		locations:   locations,
		cache:       cache,
		cfg:         cfg,
		location:    location,
		logger:      logger,
		now:         time.Now,
	}
}

// GeneratePredictions rebuilds the hourly predictions of one scope from the
// analyses in the lookback window. The previous predictions of that scope are
// replaced even when there is nothing to predict from.
func (s *PredictionService) GeneratePredictions(ctx context.Context, locationID *uuid.UUID, daysAhead int) (*model.GenerationResult, error) {
	start := time.Now()
	defer func() { metrics.GenerationDuration.Observe(time.Since(start).Seconds()) }()

	daysAhead, err := s.normalizeDaysAhead(daysAhead)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLocation(ctx, locationID); err != nil {
		return nil, err
	}

	now := s.now()
	since := now.AddDate(0, 0, -s.cfg.LookbackDays)
	scope := model.PredictionScope{LocationID: locationID}

	samples, err := s.analyses.SamplesSince(ctx, since, locationID)
	if err != nil {
		metrics.PredictionRuns.WithLabelValues("error").Inc()
		return nil, storeError("load analyses", err)
	}

	result := &model.GenerationResult{
		Status:       model.StatusNoData,
		LocationID:   locationID,
		DaysAhead:    daysAhead,
		ModelVersion: model.ModelVersionHourlyPatterns,
		Predictions:  []model.TrafficPrediction{},
	}

	if len(samples) > 0 {
		profile := forecast.BuildProfile(samples, since, s.location)
		thresholds := forecast.ComputeThresholds(profile)
		today := model.CalendarDate(now, s.location)

		result.Status = model.StatusOK
		result.Thresholds = &thresholds
		result.Predictions = forecast.Plan(profile, thresholds, today, daysAhead, scope, now.UTC())
	}
	result.PredictionsCount = len(result.Predictions)

	if err := s.predictions.ReplaceForScope(ctx, scope, result.Predictions); err != nil {
		metrics.PredictionRuns.WithLabelValues("error").Inc()
		return nil, storeError("replace predictions", err)
	}

	metrics.PredictionRuns.WithLabelValues(string(result.Status)).Inc()
	metrics.PredictionsGenerated.Add(float64(result.PredictionsCount))

	s.afterGeneration(ctx, result, now)

	s.logger.Info().
		Str("scope", scope.Key()).
		Str("status", string(result.Status)).
		Int("samples", len(samples)).
		Int("predictions", result.PredictionsCount).
		Msg("generated traffic predictions")

	return result, nil
}

// GetPredictionsForDate lists the stored predictions of date, tomorrow when
// date is nil.
func (s *PredictionService) GetPredictionsForDate(ctx context.Context, date *datatypes.Date, locationID *uuid.UUID) (*model.PredictionsForDate, error) {
	day := s.dateOrTomorrow(date)

	predictions, err := s.predictions.ForDate(ctx, day, locationID)
	if err != nil {
		return nil, storeError("load predictions", err)
	}
	if predictions == nil {
		predictions = []model.TrafficPrediction{}
	}

	status := model.StatusOK
	if len(predictions) == 0 {
		status = model.StatusNoData
	}
	return &model.PredictionsForDate{
		Status:      status,
		Date:        model.FormatDate(day),
		LocationID:  locationID,
		Predictions: predictions,
		Total:       len(predictions),
	}, nil
}

// GetPeakHours returns the busiest predicted hours of date, tomorrow when nil.
func (s *PredictionService) GetPeakHours(ctx context.Context, date *datatypes.Date, locationID *uuid.UUID) (*model.PeakHoursResult, error) {
	day := s.dateOrTomorrow(date)

	predictions, err := s.predictions.ForDate(ctx, day, locationID)
	if err != nil {
		return nil, storeError("load predictions", err)
	}

	status := model.StatusOK
	if len(predictions) == 0 {
		status = model.StatusNoData
	}
	return &model.PeakHoursResult{
		Status:     status,
		Date:       model.FormatDate(day),
		LocationID: locationID,
		PeakHours:  forecast.TopPeaks(predictions, forecast.DefaultPeakCount),
	}, nil
}

// GetPredictionInsights summarises the outlook for the configured number of
// days starting tomorrow.
func (s *PredictionService) GetPredictionInsights(ctx context.Context, locationID *uuid.UUID) (*model.PredictionInsights, error) {
	from := s.dateOrTomorrow(nil)
	to := model.AddDays(from, s.cfg.InsightsDays-1)
	key := insightsKeyPrefix + model.PredictionScope{LocationID: locationID}.Key() + ":" + model.FormatDate(from)

	if s.cache != nil {
		var cached model.PredictionInsights
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read insights cache")
		}
		if found {
			metrics.InsightsCache.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		metrics.InsightsCache.WithLabelValues("miss").Inc()
	}

	predictions, err := s.predictions.ForDates(ctx, from, to, locationID)
	if err != nil {
		return nil, storeError("load predictions", err)
	}

	days := make([]forecast.DayPredictions, 0, s.cfg.InsightsDays)
	for offset := 0; offset < s.cfg.InsightsDays; offset++ {
		days = append(days, forecast.DayPredictions{Date: model.AddDays(from, offset)})
	}
	for _, p := range predictions {
		for i := range days {
			if model.SameDate(days[i].Date, p.PredictionDate) {
				days[i].Predictions = append(days[i].Predictions, p)
				break
			}
		}
	}

	insights := forecast.Outlook(days)
	insights.LocationID = locationID

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, insights, s.cfg.InsightsCacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to write insights cache")
		}
	}
	return &insights, nil
}

func (s *PredictionService) afterGeneration(ctx context.Context, result *model.GenerationResult, generatedAt time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteMatching(ctx, insightsKeyAllPattern); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate insights cache")
	}

	event := PredictionEvent{
		LocationID:       result.LocationID,
		Status:           result.Status,
		DaysAhead:        result.DaysAhead,
		PredictionsCount: result.PredictionsCount,
		ModelVersion:     result.ModelVersion,
		GeneratedAt:      generatedAt.UTC(),
	}
	if err := s.cache.Publish(ctx, PredictionsChannel, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish prediction event")
		return
	}
	metrics.PredictionsPublished.Inc()
}

func (s *PredictionService) normalizeDaysAhead(daysAhead int) (int, error) {
	if daysAhead == 0 {
		return s.cfg.DefaultDaysAhead, nil
	}
	if daysAhead < 0 || daysAhead > s.cfg.MaxDaysAhead {
		return 0, fmt.Errorf("days_ahead must be between 1 and %d: %w", s.cfg.MaxDaysAhead, ErrValidation)
	}
	return daysAhead, nil
}

func (s *PredictionService) ensureLocation(ctx context.Context, locationID *uuid.UUID) error {
	if locationID == nil || s.locations == nil {
		return nil
	}
	exists, err := s.locations.Exists(ctx, *locationID)
	if err != nil {
		return storeError("load location", err)
	}
	if !exists {
		return fmt.Errorf("location %s: %w", locationID, ErrNotFound)
	}
	return nil
}

func (s *PredictionService) dateOrTomorrow(date *datatypes.Date) datatypes.Date {
	if date != nil {
		return *date
	}
	return model.AddDays(model.CalendarDate(s.now(), s.location), 1)
}

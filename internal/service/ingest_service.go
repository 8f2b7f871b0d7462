package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"traffic-analytics-service/internal/detector"
	"traffic-analytics-service/internal/metrics"
	"traffic-analytics-service/internal/model"
)

const (
	SourceHTTP     = "http"
	SourceMQTT     = "mqtt"
	SourceDetector = "detector"
)

// IngestService records detection results and groups the analysed video.
type IngestService struct {
	videos   VideoStore
	analyses AnalysisStore
	grouping *GroupingService
	detector detector.Detector
	progress ProgressTracker
	logger   zerolog.Logger
	now      func() time.Time
}

func NewIngestService(videos VideoStore, analyses AnalysisStore, grouping *GroupingService, det detector.Detector, progress ProgressTracker, logger zerolog.Logger) *IngestService {
	return &IngestService{
		videos:   videos,
		analyses: analyses,
		grouping: grouping,
		detector: det,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest stores the analysis of one detection result, marks its video
// completed and assigns the video to its bucket. A grouping failure is
// reported in the result rather than failing the ingestion.
func (s *IngestService) Ingest(ctx context.Context, result model.DetectionResult, source string) (*model.IngestResult, error) {
	if err := validateStruct(result); err != nil {
		metrics.AnalysesIngested.WithLabelValues(source, "invalid").Inc()
		return nil, err
	}

	video, err := s.videos.FindByID(ctx, result.VideoID)
	if err != nil {
		metrics.AnalysesIngested.WithLabelValues(source, "error").Inc()
		return nil, storeError("load video", err)
	}

	now := s.now().UTC()
	record := newAnalysisRecord(result, video, now)
	if err := s.analyses.Create(ctx, &record); err != nil {
		metrics.AnalysesIngested.WithLabelValues(source, "error").Inc()
		return nil, storeError("create analysis", err)
	}

	if err := s.videos.SetStatus(ctx, video.ID, model.VideoCompleted, &now); err != nil {
		metrics.AnalysesIngested.WithLabelValues(source, "error").Inc()
		return nil, storeError("mark video completed", err)
	}

	outcome, err := s.grouping.AssignVideoToBucket(ctx, video.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("video_id", video.ID.String()).Msg("failed to group ingested video")
		outcome = model.GroupOutcome{
			VideoID: video.ID,
			Status:  model.GroupFailed,
			Reason:  fmt.Sprintf("Error grouping %s: %v", videoLabel(video), err),
		}
	}

	metrics.AnalysesIngested.WithLabelValues(source, "ok").Inc()
	s.logger.Info().
		Str("video_id", video.ID.String()).
		Str("source", source).
		Int("total_vehicles", record.TotalVehicles).
		Str("grouping", string(outcome.Status)).
		Msg("ingested traffic analysis")

	return &model.IngestResult{Analysis: record, Grouping: outcome}, nil
}

// Process runs the configured detector on a stored video and ingests its
// result, recording progress along the way.
func (s *IngestService) Process(ctx context.Context, videoID uuid.UUID) (*model.IngestResult, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return nil, storeError("load video", err)
	}
	if video.Status == model.VideoCompleted {
		return nil, fmt.Errorf("process video %s: already completed: %w", video.ID, ErrConflict)
	}
	if _, err := s.analyses.FindByVideo(ctx, video.ID); err == nil {
		return nil, fmt.Errorf("process video %s: analysis exists: %w", video.ID, ErrConflict)
	} else if !isNotFound(err) {
		return nil, storeError("load analysis", err)
	}
	key := video.ID.String()

	s.track(ctx, s.progress.Update(ctx, key, 5, "Starting vehicle detection"))
	previous := video.Status
	if err := s.videos.SetStatus(ctx, video.ID, model.VideoProcessing, nil); err != nil {
		return nil, storeError("mark video processing", err)
	}

	s.track(ctx, s.progress.Update(ctx, key, 20, "Detecting vehicles"))
	result, err := s.detector.Detect(ctx, *video)
	if err != nil {
		if errors.Is(err, detector.ErrUnavailable) {
			s.track(ctx, s.videos.SetStatus(ctx, video.ID, previous, nil))
			s.track(ctx, s.progress.Fail(ctx, key, "Detector unavailable"))
			return nil, fmt.Errorf("process video %s: %w: %v", video.ID, ErrDetectorUnavailable, err)
		}
		s.track(ctx, s.videos.SetStatus(ctx, video.ID, model.VideoFailed, nil))
		s.track(ctx, s.progress.Fail(ctx, key, "Detection failed"))
		return nil, fmt.Errorf("process video %s: %w", video.ID, err)
	}

	result.VideoID = video.ID
	s.track(ctx, s.progress.Update(ctx, key, 90, "Saving analysis"))
	ingested, err := s.Ingest(ctx, result, SourceDetector)
	if errors.Is(err, ErrConflict) {
		s.track(ctx, s.videos.SetStatus(ctx, video.ID, previous, nil))
		s.track(ctx, s.progress.Fail(ctx, key, "Analysis already recorded"))
		return nil, err
	}
	if err != nil {
		s.track(ctx, s.videos.SetStatus(ctx, video.ID, model.VideoFailed, nil))
		s.track(ctx, s.progress.Fail(ctx, key, "Saving analysis failed"))
		return nil, err
	}

	s.track(ctx, s.progress.Complete(ctx, key, "Analysis complete"))
	return ingested, nil
}

func (s *IngestService) Progress(ctx context.Context, videoID uuid.UUID) (*model.Progress, error) {
	p, found, err := s.progress.Get(ctx, videoID.String())
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("progress for video %s: %w", videoID, ErrNotFound)
	}
	return &p, nil
}

func (s *IngestService) track(ctx context.Context, err error) {
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to record processing state")
	}
}

func newAnalysisRecord(result model.DetectionResult, video *model.Video, now time.Time) model.AnalysisRecord {
	analyzedAt := now
	if result.AnalyzedAt != nil {
		analyzedAt = result.AnalyzedAt.UTC()
	}
	locationID := result.LocationID
	if locationID == nil {
		locationID = video.LocationID
	}
	congestion := result.CongestionLevel
	if congestion == "" {
		congestion = model.CongestionLow
	}
	pattern := result.TrafficPattern
	if pattern == "" {
		pattern = model.PatternStable
	}

	return model.AnalysisRecord{
		ID:                uuid.New(),
		VideoID:           video.ID,
		LocationID:        locationID,
		TotalVehicles:     result.Counts.Total(),
		CarCount:          result.Counts.Car,
		TruckCount:        result.Counts.Truck,
		MotorcycleCount:   result.Counts.Motorcycle,
		BusCount:          result.Counts.Bus,
		BicycleCount:      result.Counts.Bicycle,
		OtherCount:        result.Counts.Other,
		PeakTraffic:       result.PeakTraffic,
		AverageTraffic:    result.AverageTraffic,
		ProcessingSeconds: result.ProcessingSeconds,
		AnalyzedAt:        analyzedAt,
		CongestionLevel:   congestion,
		TrafficPattern:    pattern,
		MetricsSummary:    result.MetricsSummary,
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/metrics"
	"traffic-analytics-service/internal/model"
)

type GroupingService struct {
	videos   VideoStore
	buckets  BucketStore
	analyses AnalysisStore
	location *time.Location
	logger   zerolog.Logger
}

func NewGroupingService(videos VideoStore, buckets BucketStore, analyses AnalysisStore, location *time.Location, logger zerolog.Logger) *GroupingService {
	if location == nil {
		location = time.UTC
	}
	return &GroupingService{
		videos:   videos,
		buckets:  buckets,
		analyses: analyses,
		location: location,
		logger:   logger,
	}
}

// Assign places a completed video into the (locationID, date) bucket. A video
// that already has a bucket keeps it. When another writer attaches the video
// first, the winner's bucket is returned.
func (s *GroupingService) Assign(ctx context.Context, video *model.Video, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, error) {
	bucket, _, err := s.assign(ctx, video, locationID, date)
	return bucket, err
}

// assign reports whether this call attached the video. It is false when the
// video already had a bucket or another writer attached it first.
func (s *GroupingService) assign(ctx context.Context, video *model.Video, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, bool, error) {
	if video.Status != model.VideoCompleted {
		return nil, false, fmt.Errorf("video %s is %s: %w", video.ID, video.Status, ErrVideoNotCompleted)
	}

	if video.BucketID != nil {
		bucket, err := s.buckets.FindByID(ctx, *video.BucketID)
		return bucket, false, storeError("load current bucket", err)
	}

	bucket, created, err := s.buckets.GetOrCreate(ctx, locationID, date)
	if err != nil {
		return nil, false, storeError("get or create bucket", err)
	}
	if created {
		s.logger.Debug().
			Str("bucket_id", bucket.ID.String()).
			Str("location_id", locationID.String()).
			Str("date", model.FormatDate(date)).
			Msg("created location date bucket")
	}

	attached, err := s.videos.AttachBucket(ctx, video.ID, bucket.ID)
	if err != nil {
		return nil, false, storeError("attach bucket", err)
	}
	if !attached {
		current, err := s.videos.FindByID(ctx, video.ID)
		if err != nil {
			return nil, false, storeError("reload video", err)
		}
		if current.BucketID == nil {
			return nil, false, fmt.Errorf("attach bucket to video %s: %w", video.ID, ErrNotFound)
		}
		*video = *current
		if *current.BucketID == bucket.ID {
			return bucket, false, nil
		}
		winner, err := s.buckets.FindByID(ctx, *current.BucketID)
		return winner, false, storeError("load winning bucket", err)
	}

	video.BucketID = &bucket.ID
	if video.RecordedDate == nil {
		if err := s.videos.BackfillDate(ctx, video.ID, bucket.Date); err != nil {
			return nil, false, storeError("backfill recorded date", err)
		}
		backfilled := bucket.Date
		video.RecordedDate = &backfilled
	}

	return bucket, true, nil
}

// AssignVideoToBucket groups one video using its analysis' location and the
// video's recorded date, falling back to the analysis date.
func (s *GroupingService) AssignVideoToBucket(ctx context.Context, videoID uuid.UUID) (model.GroupOutcome, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return model.GroupOutcome{}, storeError("load video", err)
	}
	return s.groupVideo(ctx, video, nil)
}

// GroupAllPending assigns every completed, unbucketed video. Per-video
// failures are collected rather than aborting the run.
func (s *GroupingService) GroupAllPending(ctx context.Context) (*model.GroupBatchResult, error) {
	pending, err := s.videos.ListUngrouped(ctx)
	if err != nil {
		return nil, storeError("list ungrouped videos", err)
	}

	result := &model.GroupBatchResult{
		Errors:   []string{},
		Outcomes: make([]model.GroupOutcome, 0, len(pending)),
	}

	for i := range pending {
		video := pending[i].Video
		analysis := pending[i].Analysis

		var outcome model.GroupOutcome
		if analysis == nil {
			outcome = s.skip(&video, fmt.Sprintf("Video %s has no traffic analysis", videoLabel(&video)))
		} else {
			outcome, err = s.groupVideo(ctx, &video, analysis)
			if err != nil {
				outcome = model.GroupOutcome{
					VideoID: video.ID,
					Status:  model.GroupFailed,
					Reason:  fmt.Sprintf("Error grouping %s: %v", videoLabel(&video), err),
				}
				metrics.GroupingOutcomes.WithLabelValues(string(model.GroupFailed)).Inc()
				s.logger.Warn().Err(err).Str("video_id", video.ID.String()).Msg("failed to group video")
			}
		}

		switch outcome.Status {
		case model.GroupGrouped:
			result.GroupedCount++
		case model.GroupSkipped, model.GroupFailed:
			result.Errors = append(result.Errors, outcome.Reason)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	remaining, err := s.videos.CountUngrouped(ctx)
	if err != nil {
		return nil, storeError("count ungrouped videos", err)
	}
	result.RemainingUngrouped = remaining

	s.logger.Info().
		Int("grouped", result.GroupedCount).
		Int("errors", len(result.Errors)).
		Int64("remaining", remaining).
		Msg("grouping run finished")

	return result, nil
}

// VerifyGrouping reports whether a video sits in the bucket its location and
// date imply. It never writes.
func (s *GroupingService) VerifyGrouping(ctx context.Context, videoID uuid.UUID) (*model.GroupingCheck, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return nil, storeError("load video", err)
	}

	check := &model.GroupingCheck{VideoID: video.ID, CurrentBucketID: video.BucketID}

	if video.Status != model.VideoCompleted {
		check.Status = model.VerifySkipped
		check.Reason = fmt.Sprintf("Video %s is not completed", videoLabel(video))
		return check, nil
	}

	analysis, err := s.analyses.FindByVideo(ctx, video.ID)
	if err != nil && !isNotFound(err) {
		return nil, storeError("load analysis", err)
	}
	if analysis == nil {
		check.Status = model.VerifySkipped
		check.Reason = fmt.Sprintf("Video %s has no traffic analysis", videoLabel(video))
		return check, nil
	}
	if analysis.LocationID == nil {
		check.Status = model.VerifySkipped
		check.Reason = fmt.Sprintf("Video %s has no location assigned", videoLabel(video))
		return check, nil
	}

	date := s.groupingDate(video, analysis)
	check.LocationID = analysis.LocationID
	check.Date = model.FormatDate(date)

	expected, err := s.buckets.FindByLocationDate(ctx, *analysis.LocationID, date)
	switch {
	case err == nil:
		check.ExpectedBucket = &expected.ID
	case isNotFound(err):
	default:
		return nil, storeError("load expected bucket", err)
	}

	if video.BucketID != nil && expected != nil && *video.BucketID == expected.ID {
		check.Status = model.VerifyAlreadyCorrect
	} else {
		check.Status = model.VerifyMismatch
	}
	return check, nil
}

// RegroupVideo clears the video's bucket and assigns it again from its current
// location and date.
func (s *GroupingService) RegroupVideo(ctx context.Context, videoID uuid.UUID) (model.GroupOutcome, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return model.GroupOutcome{}, storeError("load video", err)
	}
	if video.Status != model.VideoCompleted {
		return model.GroupOutcome{}, fmt.Errorf("video %s is %s: %w", video.ID, video.Status, ErrVideoNotCompleted)
	}

	if video.BucketID != nil {
		if err := s.videos.ClearBucket(ctx, video.ID); err != nil {
			return model.GroupOutcome{}, storeError("clear bucket", err)
		}
		video.BucketID = nil
	}
	return s.groupVideo(ctx, video, nil)
}

func (s *GroupingService) ListBuckets(ctx context.Context, locationID *uuid.UUID) ([]model.BucketSummary, error) {
	buckets, err := s.buckets.ListWithStats(ctx, locationID)
	if err != nil {
		return nil, storeError("list buckets", err)
	}
	if buckets == nil {
		buckets = []model.BucketSummary{}
	}
	return buckets, nil
}

func (s *GroupingService) groupVideo(ctx context.Context, video *model.Video, analysis *model.AnalysisRecord) (model.GroupOutcome, error) {
	if video.Status != model.VideoCompleted {
		return model.GroupOutcome{}, fmt.Errorf("video %s is %s: %w", video.ID, video.Status, ErrVideoNotCompleted)
	}

	if video.BucketID != nil {
		metrics.GroupingOutcomes.WithLabelValues(string(model.GroupAlreadyGrouped)).Inc()
		return model.GroupOutcome{
			VideoID:    video.ID,
			Status:     model.GroupAlreadyGrouped,
			BucketID:   video.BucketID,
			LocationID: video.LocationID,
		}, nil
	}

	if analysis == nil {
		found, err := s.analyses.FindByVideo(ctx, video.ID)
		if err != nil {
			if isNotFound(err) {
				return s.skip(video, fmt.Sprintf("Video %s has no traffic analysis", videoLabel(video))), nil
			}
			return model.GroupOutcome{}, storeError("load analysis", err)
		}
		analysis = found
	}

	if analysis.LocationID == nil {
		return s.skip(video, fmt.Sprintf("Video %s has no location assigned", videoLabel(video))), nil
	}

	date := s.groupingDate(video, analysis)
	bucket, attached, err := s.assign(ctx, video, *analysis.LocationID, date)
	if err != nil {
		return model.GroupOutcome{}, err
	}

	status := model.GroupGrouped
	if !attached {
		status = model.GroupAlreadyGrouped
	}
	metrics.GroupingOutcomes.WithLabelValues(string(status)).Inc()
	return model.GroupOutcome{
		VideoID:    video.ID,
		Status:     status,
		BucketID:   &bucket.ID,
		LocationID: &bucket.LocationID,
		Date:       model.FormatDate(bucket.Date),
	}, nil
}

func (s *GroupingService) groupingDate(video *model.Video, analysis *model.AnalysisRecord) datatypes.Date {
	if video.RecordedDate != nil {
		return *video.RecordedDate
	}
	return model.CalendarDate(analysis.AnalyzedAt, s.location)
}

func (s *GroupingService) skip(video *model.Video, reason string) model.GroupOutcome {
	metrics.GroupingOutcomes.WithLabelValues(string(model.GroupSkipped)).Inc()
	s.logger.Debug().Str("video_id", video.ID.String()).Str("reason", reason).Msg("skipped video grouping")
	return model.GroupOutcome{VideoID: video.ID, Status: model.GroupSkipped, Reason: reason}
}

func videoLabel(video *model.Video) string {
	if video.Filename != "" {
		return video.Filename
	}
	return video.ID.String()
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/model"
)

type VideoStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
	ListUngrouped(ctx context.Context) ([]model.PendingVideo, error)
	CountUngrouped(ctx context.Context) (int64, error)
	AttachBucket(ctx context.Context, videoID, bucketID uuid.UUID) (bool, error)
	ClearBucket(ctx context.Context, videoID uuid.UUID) error
	BackfillDate(ctx context.Context, videoID uuid.UUID, date datatypes.Date) error
	SetStatus(ctx context.Context, videoID uuid.UUID, status model.VideoStatus, processedAt *time.Time) error
}

type BucketStore interface {
	GetOrCreate(ctx context.Context, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.LocationDateBucket, error)
	FindByLocationDate(ctx context.Context, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, error)
	ListWithStats(ctx context.Context, locationID *uuid.UUID) ([]model.BucketSummary, error)
}

type AnalysisStore interface {
	Create(ctx context.Context, record *model.AnalysisRecord) error
	FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.AnalysisRecord, error)
	SamplesSince(ctx context.Context, since time.Time, locationID *uuid.UUID) ([]model.AnalysisSample, error)
}

type PredictionStore interface {
	ReplaceForScope(ctx context.Context, scope model.PredictionScope, predictions []model.TrafficPrediction) error
	ForDate(ctx context.Context, date datatypes.Date, locationID *uuid.UUID) ([]model.TrafficPrediction, error)
	ForDates(ctx context.Context, from, to datatypes.Date, locationID *uuid.UUID) ([]model.TrafficPrediction, error)
}

type LocationStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteMatching(ctx context.Context, pattern string) error
	Publish(ctx context.Context, channel string, message any) error
}

type ProgressTracker interface {
	Update(ctx context.Context, videoID string, percent int, message string) error
	Complete(ctx context.Context, videoID, message string) error
	Fail(ctx context.Context, videoID, message string) error
	Get(ctx context.Context, videoID string) (model.Progress, bool, error)
}

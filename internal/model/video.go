package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VideoStatus string

const (
	VideoPending    VideoStatus = "pending"
	VideoProcessing VideoStatus = "processing"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
)

type Video struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Filename     string          `json:"filename"`
	FilePath     string          `json:"file_path"`
	Title        *string         `json:"title,omitempty"`
	LocationID   *uuid.UUID      `gorm:"type:uuid" json:"location_id,omitempty"`
	RecordedDate *datatypes.Date `gorm:"column:recorded_date" json:"recorded_date,omitempty"`
	StartTime    *datatypes.Time `gorm:"column:start_time" json:"start_time,omitempty"`
	EndTime      *datatypes.Time `gorm:"column:end_time" json:"end_time,omitempty"`
	BucketID     *uuid.UUID      `gorm:"type:uuid;column:bucket_id;index" json:"bucket_id,omitempty"`
	Status       VideoStatus     `gorm:"column:processing_status;index" json:"processing_status"`
	UploadedAt   time.Time       `json:"uploaded_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}

func (Video) TableName() string { return "videos" }

// PendingVideo is a completed, unbucketed video paired with its analysis, if any.
type PendingVideo struct {
	Video    Video
	Analysis *AnalysisRecord
}

type LocationDateBucket struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID uuid.UUID      `gorm:"type:uuid;uniqueIndex:uq_bucket_location_date" json:"location_id"`
	Date       datatypes.Date `gorm:"uniqueIndex:uq_bucket_location_date" json:"date"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (LocationDateBucket) TableName() string { return "location_date_buckets" }

type BucketSummary struct {
	ID            uuid.UUID      `json:"id"`
	LocationID    uuid.UUID      `json:"location_id"`
	LocationName  string         `json:"location_name"`
	Date          datatypes.Date `json:"date"`
	VideoCount    int64          `json:"video_count"`
	TotalVehicles int64          `json:"total_vehicles"`
}

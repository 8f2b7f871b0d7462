package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"traffic-analytics-service/internal/model"
)

type VideoRepository struct {
	store
}

func NewVideoRepository(db *gorm.DB, timeout time.Duration) *VideoRepository {
	return &VideoRepository{store: newStore(db, timeout)}
}

func (r *VideoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var video model.Video
	if err := q.Where("id = ?", id).Take(&video).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return &video, nil
}

// ListUngrouped returns completed videos without a bucket, oldest upload first,
// each paired with its analysis when one exists.
func (r *VideoRepository) ListUngrouped(ctx context.Context) ([]model.PendingVideo, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var videos []model.Video
	if err := q.
		Where("processing_status = ? AND bucket_id IS NULL", model.VideoCompleted).
		Order("uploaded_at").
		Find(&videos).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	if len(videos) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}

	var analyses []model.AnalysisRecord
	if err := q.Session(&gorm.Session{NewDB: true}).
		Where("video_id IN ?", ids).
		Find(&analyses).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	byVideo := make(map[uuid.UUID]*model.AnalysisRecord, len(analyses))
	for i := range analyses {
		byVideo[analyses[i].VideoID] = &analyses[i]
	}

	pending := make([]model.PendingVideo, 0, len(videos))
	for _, v := range videos {
		pending = append(pending, model.PendingVideo{Video: v, Analysis: byVideo[v.ID]})
	}
	return pending, nil
}

func (r *VideoRepository) CountUngrouped(ctx context.Context) (int64, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var count int64
	err := q.Model(&model.Video{}).
		Where("processing_status = ? AND bucket_id IS NULL", model.VideoCompleted).
		Count(&count).Error
	return count, translate(q.Statement.Context, err)
}

// AttachBucket sets the bucket reference only while it is still unset and
// reports whether this call made the assignment.
func (r *VideoRepository) AttachBucket(ctx context.Context, videoID, bucketID uuid.UUID) (bool, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	res := q.Model(&model.Video{}).
		Where("id = ? AND bucket_id IS NULL", videoID).
		UpdateColumn("bucket_id", bucketID)
	if res.Error != nil {
		return false, translate(q.Statement.Context, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *VideoRepository) ClearBucket(ctx context.Context, videoID uuid.UUID) error {
	q, cancel := r.query(ctx)
	defer cancel()

	res := q.Model(&model.Video{}).
		Where("id = ?", videoID).
		UpdateColumn("bucket_id", nil)
	if res.Error != nil {
		return translate(q.Statement.Context, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BackfillDate fills recorded_date only when the video has none.
func (r *VideoRepository) BackfillDate(ctx context.Context, videoID uuid.UUID, date datatypes.Date) error {
	q, cancel := r.query(ctx)
	defer cancel()

	err := q.Model(&model.Video{}).
		Where("id = ? AND recorded_date IS NULL", videoID).
		UpdateColumn("recorded_date", date).Error
	return translate(q.Statement.Context, err)
}

func (r *VideoRepository) SetStatus(ctx context.Context, videoID uuid.UUID, status model.VideoStatus, processedAt *time.Time) error {
	q, cancel := r.query(ctx)
	defer cancel()

	updates := map[string]any{"processing_status": status}
	if processedAt != nil {
		updates["processed_at"] = *processedAt
	}
	res := q.Model(&model.Video{}).Where("id = ?", videoID).UpdateColumns(updates)
	if res.Error != nil {
		return translate(q.Statement.Context, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

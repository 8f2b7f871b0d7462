package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"traffic-analytics-service/internal/model"
)

type AnalysisRepository struct {
	store
}

func NewAnalysisRepository(db *gorm.DB, timeout time.Duration) *AnalysisRepository {
	return &AnalysisRepository{store: newStore(db, timeout)}
}

func (r *AnalysisRepository) Create(ctx context.Context, record *model.AnalysisRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	q, cancel := r.query(ctx)
	defer cancel()
	return translate(q.Statement.Context, q.Create(record).Error)
}

func (r *AnalysisRepository) FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.AnalysisRecord, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var record model.AnalysisRecord
	if err := q.Where("video_id = ?", videoID).Take(&record).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return &record, nil
}

// SamplesSince returns the analyses recorded at or after since, joined with the
// start time of their video. A nil locationID spans every location.
func (r *AnalysisRepository) SamplesSince(ctx context.Context, since time.Time, locationID *uuid.UUID) ([]model.AnalysisSample, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	query := q.
		Table("traffic_analyses a").
		Select(`a.id AS analysis_id,
			a.location_id,
			a.total_vehicles,
			a.analyzed_at,
			v.start_time AS video_start_time`).
		Joins("LEFT JOIN videos v ON v.id = a.video_id").
		Where("a.analyzed_at >= ?", since).
		Order("a.analyzed_at")

	if locationID != nil {
		query = query.Where("a.location_id = ?", *locationID)
	}

	var samples []model.AnalysisSample
	if err := query.Scan(&samples).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return samples, nil
}

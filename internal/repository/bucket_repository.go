package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"traffic-analytics-service/internal/model"
)

type BucketRepository struct {
	store
}

func NewBucketRepository(db *gorm.DB, timeout time.Duration) *BucketRepository {
	return &BucketRepository{store: newStore(db, timeout)}
}

// GetOrCreate returns the bucket for (locationID, date), inserting it first if
// needed. Concurrent callers converge on the same row through the unique index.
func (r *BucketRepository) GetOrCreate(ctx context.Context, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, bool, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	candidate := model.LocationDateBucket{
		ID:         uuid.New(),
		LocationID: locationID,
		Date:       date,
	}
	res := q.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, false, translate(q.Statement.Context, res.Error)
	}
	created := res.RowsAffected == 1

	var bucket model.LocationDateBucket
	if err := q.Session(&gorm.Session{NewDB: true}).
		Where("location_id = ? AND date = ?", locationID, date).
		Take(&bucket).Error; err != nil {
		return nil, false, translate(q.Statement.Context, err)
	}
	return &bucket, created, nil
}

func (r *BucketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LocationDateBucket, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var bucket model.LocationDateBucket
	if err := q.Where("id = ?", id).Take(&bucket).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return &bucket, nil
}

func (r *BucketRepository) FindByLocationDate(ctx context.Context, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var bucket model.LocationDateBucket
	if err := q.Where("location_id = ? AND date = ?", locationID, date).Take(&bucket).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return &bucket, nil
}

// ListWithStats summarises each bucket with its video count and summed
// vehicle totals, newest date first.
func (r *BucketRepository) ListWithStats(ctx context.Context, locationID *uuid.UUID) ([]model.BucketSummary, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	query := q.
		Table("location_date_buckets b").
		Select(`b.id,
			b.location_id,
			COALESCE(NULLIF(l.display_name, ''), l.name, '') AS location_name,
			b.date,
			COUNT(DISTINCT v.id) AS video_count,
			COALESCE(SUM(a.total_vehicles), 0) AS total_vehicles`).
		Joins("LEFT JOIN locations l ON l.id = b.location_id").
		Joins("LEFT JOIN videos v ON v.bucket_id = b.id").
		Joins("LEFT JOIN traffic_analyses a ON a.video_id = v.id").
		Group("b.id, b.location_id, l.display_name, l.name, b.date").
		Order("b.date DESC, location_name")

	if locationID != nil {
		query = query.Where("b.location_id = ?", *locationID)
	}

	var summaries []model.BucketSummary
	if err := query.Scan(&summaries).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return summaries, nil
}

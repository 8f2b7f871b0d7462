package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"traffic-analytics-service/internal/model"
)

type LocationRepository struct {
	store
}

func NewLocationRepository(db *gorm.DB, timeout time.Duration) *LocationRepository {
	return &LocationRepository{store: newStore(db, timeout)}
}

func (r *LocationRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var count int64
	if err := q.Model(&model.Location{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(q.Statement.Context, err)
	}
	return count > 0, nil
}

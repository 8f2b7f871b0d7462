package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"traffic-analytics-service/internal/model"
)

const insertBatchSize = 500

type PredictionRepository struct {
	store
}

func NewPredictionRepository(db *gorm.DB, timeout time.Duration) *PredictionRepository {
	return &PredictionRepository{store: newStore(db, timeout)}
}

// ReplaceForScope deletes every prediction of scope and inserts predictions in
// one transaction. Runs for the same scope are serialized by an advisory lock.
func (r *PredictionRepository) ReplaceForScope(ctx context.Context, scope model.PredictionScope, predictions []model.TrafficPrediction) error {
	q, cancel := r.query(ctx)
	defer cancel()

	err := q.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "traffic_predictions:"+scope.Key()).Error; err != nil {
			return err
		}

		del := tx.Where("location_id IS NULL")
		if scope.LocationID != nil {
			del = tx.Where("location_id = ?", *scope.LocationID)
		}
		if err := del.Delete(&model.TrafficPrediction{}).Error; err != nil {
			return err
		}

		if len(predictions) == 0 {
			return nil
		}
		return tx.CreateInBatches(predictions, insertBatchSize).Error
	})
	return translate(q.Statement.Context, err)
}

// ForDate returns the predictions of one date ordered by hour. A nil
// locationID does not filter by location.
func (r *PredictionRepository) ForDate(ctx context.Context, date datatypes.Date, locationID *uuid.UUID) ([]model.TrafficPrediction, error) {
	return r.ForDates(ctx, date, date, locationID)
}

func (r *PredictionRepository) ForDates(ctx context.Context, from, to datatypes.Date, locationID *uuid.UUID) ([]model.TrafficPrediction, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	query := q.
		Where("prediction_date BETWEEN ? AND ?", from, to).
		Order("prediction_date, hour_of_day, location_id")
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	var predictions []model.TrafficPrediction
	if err := query.Find(&predictions).Error; err != nil {
		return nil, translate(q.Statement.Context, err)
	}
	return predictions, nil
}

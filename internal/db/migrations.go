package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS locations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS location_date_buckets (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		location_id UUID NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bucket_location_date ON location_date_buckets (location_id, date);`,
	`CREATE TABLE IF NOT EXISTS videos (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		filename TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		title TEXT,
		location_id UUID REFERENCES locations(id) ON DELETE SET NULL,
		recorded_date DATE,
		start_time TIME,
		end_time TIME,
		bucket_id UUID REFERENCES location_date_buckets(id) ON DELETE SET NULL,
		processing_status TEXT NOT NULL DEFAULT 'pending',
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_videos_ungrouped ON videos (uploaded_at) WHERE bucket_id IS NULL AND processing_status = 'completed';`,
	`CREATE INDEX IF NOT EXISTS idx_videos_bucket ON videos (bucket_id);`,
	`CREATE TABLE IF NOT EXISTS traffic_analyses (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		video_id UUID NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		location_id UUID REFERENCES locations(id) ON DELETE SET NULL,
		total_vehicles INTEGER NOT NULL DEFAULT 0,
		car_count INTEGER NOT NULL DEFAULT 0,
		truck_count INTEGER NOT NULL DEFAULT 0,
		motorcycle_count INTEGER NOT NULL DEFAULT 0,
		bus_count INTEGER NOT NULL DEFAULT 0,
		bicycle_count INTEGER NOT NULL DEFAULT 0,
		other_count INTEGER NOT NULL DEFAULT 0,
		peak_traffic INTEGER NOT NULL DEFAULT 0,
		average_traffic DOUBLE PRECISION NOT NULL DEFAULT 0,
		processing_time_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		analyzed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		congestion_level TEXT NOT NULL DEFAULT 'low',
		traffic_pattern TEXT NOT NULL DEFAULT 'stable',
		metrics_summary JSONB
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_traffic_analyses_video ON traffic_analyses (video_id);`,
	`CREATE INDEX IF NOT EXISTS idx_traffic_analyses_window ON traffic_analyses (analyzed_at, location_id);`,
	`CREATE TABLE IF NOT EXISTS traffic_predictions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		location_id UUID REFERENCES locations(id) ON DELETE CASCADE,
		prediction_date DATE NOT NULL,
		day_of_week SMALLINT NOT NULL,
		hour_of_day SMALLINT NOT NULL CHECK (hour_of_day BETWEEN 0 AND 23),
		predicted_vehicle_count DOUBLE PRECISION NOT NULL,
		predicted_congestion TEXT NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		confidence_interval_lower DOUBLE PRECISION NOT NULL,
		confidence_interval_upper DOUBLE PRECISION NOT NULL,
		model_version TEXT NOT NULL,
		prediction_generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_traffic_predictions_slot ON traffic_predictions (
		COALESCE(location_id, '00000000-0000-0000-0000-000000000000'::uuid), prediction_date, hour_of_day
	);`,
	`CREATE INDEX IF NOT EXISTS idx_traffic_predictions_date ON traffic_predictions (prediction_date, hour_of_day);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Migrate applies the schema to an already opened connection.
func Migrate(db *gorm.DB) error {
	return runMigrations(db)
}

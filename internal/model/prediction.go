package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const ModelVersionHourlyPatterns = "v3.0-hourly-patterns"

type TrafficPrediction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID            *uuid.UUID      `gorm:"type:uuid;index" json:"location_id,omitempty"`
	PredictionDate        datatypes.Date  `gorm:"index" json:"prediction_date"`
	DayOfWeek             int             `json:"day_of_week"`
	HourOfDay             int             `json:"hour_of_day"`
	PredictedVehicleCount float64         `json:"predicted_vehicle_count"`
	PredictedCongestion   CongestionLevel `json:"predicted_congestion"`
	ConfidenceScore       float64         `json:"confidence_score"`
	ConfidenceLower       float64         `gorm:"column:confidence_interval_lower" json:"confidence_interval_lower"`
	ConfidenceUpper       float64         `gorm:"column:confidence_interval_upper" json:"confidence_interval_upper"`
	ModelVersion          string          `json:"model_version"`
	GeneratedAt           time.Time       `gorm:"column:prediction_generated_at" json:"prediction_generated_at"`
}

func (TrafficPrediction) TableName() string { return "traffic_predictions" }

// PredictionScope identifies the prediction set a generation run replaces:
// either one location or the general, location-less set.
type PredictionScope struct {
	LocationID *uuid.UUID
}

func (s PredictionScope) Key() string {
	if s.LocationID == nil {
		return "general"
	}
	return s.LocationID.String()
}

type ProfileCell struct {
	Mean       float64 `json:"estimated_mean_vehicles"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"supporting_sample_count"`
}

// HourlyProfile is indexed [day of week, Monday=0][hour of day].
type HourlyProfile struct {
	Cells       [7][24]ProfileCell `json:"cells"`
	OverallMean float64            `json:"overall_mean"`
	RecordCount int                `json:"record_count"`
}

func (p *HourlyProfile) Cell(day, hour int) ProfileCell {
	return p.Cells[day][hour]
}

type CongestionThresholds struct {
	VeryLow float64 `json:"very_low"`
	Low     float64 `json:"low"`
	Medium  float64 `json:"medium"`
	High    float64 `json:"high"`
	Severe  float64 `json:"severe"`
}

type ResultStatus string

const (
	StatusOK     ResultStatus = "ok"
	StatusNoData ResultStatus = "no_data"
)

type GenerationResult struct {
	Status           ResultStatus          `json:"status"`
	LocationID       *uuid.UUID            `json:"location_id,omitempty"`
	DaysAhead        int                   `json:"days_ahead"`
	PredictionsCount int                   `json:"predictions_count"`
	ModelVersion     string                `json:"model_version"`
	Thresholds       *CongestionThresholds `json:"thresholds,omitempty"`
	Predictions      []TrafficPrediction   `json:"predictions"`
}

type PredictionsForDate struct {
	Status      ResultStatus        `json:"status"`
	Date        string              `json:"date"`
	LocationID  *uuid.UUID          `json:"location_id,omitempty"`
	Predictions []TrafficPrediction `json:"predictions"`
	Total       int                 `json:"total_predictions"`
}

type PeakHour struct {
	Hour              int             `json:"hour"`
	Label             string          `json:"label"`
	LocationID        *uuid.UUID      `json:"location_id,omitempty"`
	PredictedVehicles float64         `json:"predicted_vehicles"`
	Congestion        CongestionLevel `json:"congestion"`
}

type PeakHoursResult struct {
	Status     ResultStatus `json:"status"`
	Date       string       `json:"date"`
	LocationID *uuid.UUID   `json:"location_id,omitempty"`
	PeakHours  []PeakHour   `json:"peak_hours"`
}

type DayOutlook struct {
	Date              string     `json:"date"`
	DayName           string     `json:"day_name"`
	PeakHours         []PeakHour `json:"peak_hours"`
	Peak              PeakHour   `json:"peak"`
	AverageVehicles   float64    `json:"average_vehicles"`
	AverageConfidence float64    `json:"average_confidence"`
	TotalPredictions  int        `json:"total_predictions"`
}

type OverallPeak struct {
	Date       string          `json:"date"`
	DayName    string          `json:"day_name"`
	Hour       int             `json:"hour"`
	Label      string          `json:"label"`
	Vehicles   float64         `json:"vehicles"`
	Congestion CongestionLevel `json:"congestion"`
}

type PredictionInsights struct {
	Status            ResultStatus `json:"status"`
	LocationID        *uuid.UUID   `json:"location_id,omitempty"`
	Days              []DayOutlook `json:"days"`
	OverallPeak       *OverallPeak `json:"overall_peak,omitempty"`
	AverageConfidence float64      `json:"average_confidence"`
	TotalPredictions  int          `json:"total_predictions"`
}

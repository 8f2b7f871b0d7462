package model

import (
	"time"

	"github.com/google/uuid"
)

type VehicleCounts struct {
	Car        int `json:"car" validate:"gte=0"`
	Truck      int `json:"truck" validate:"gte=0"`
	Motorcycle int `json:"motorcycle" validate:"gte=0"`
	Bus        int `json:"bus" validate:"gte=0"`
	Bicycle    int `json:"bicycle" validate:"gte=0"`
	Other      int `json:"other" validate:"gte=0"`
}

func (c VehicleCounts) Total() int {
	return c.Car + c.Truck + c.Motorcycle + c.Bus + c.Bicycle + c.Other
}

// DetectionResult is what the vehicle detector reports for one processed video.
type DetectionResult struct {
	VideoID           uuid.UUID       `json:"video_id" validate:"required"`
	LocationID        *uuid.UUID      `json:"location_id,omitempty"`
	Counts            VehicleCounts   `json:"counts"`
	PeakTraffic       int             `json:"peak_traffic" validate:"gte=0"`
	AverageTraffic    float64         `json:"average_traffic" validate:"gte=0"`
	ProcessingSeconds float64         `json:"processing_time_seconds" validate:"gte=0"`
	AnalyzedAt        *time.Time      `json:"analyzed_at,omitempty"`
	CongestionLevel   CongestionLevel `json:"congestion_level" validate:"omitempty,oneof=very_low low medium high severe"`
	TrafficPattern    TrafficPattern  `json:"traffic_pattern" validate:"omitempty,oneof=increasing decreasing stable fluctuating"`
	MetricsSummary    map[string]any  `json:"metrics_summary,omitempty"`
}

type IngestResult struct {
	Analysis AnalysisRecord `json:"analysis"`
	Grouping GroupOutcome   `json:"grouping"`
}

type Progress struct {
	VideoID   string    `json:"video_id"`
	Percent   int       `json:"progress"`
	Message   string    `json:"message"`
	Done      bool      `json:"done"`
	UpdatedAt time.Time `json:"updated_at"`
}

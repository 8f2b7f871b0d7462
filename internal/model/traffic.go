package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CongestionLevel string

const (
	CongestionVeryLow CongestionLevel = "very_low"
	CongestionLow     CongestionLevel = "low"
	CongestionMedium  CongestionLevel = "medium"
	CongestionHigh    CongestionLevel = "high"
	CongestionSevere  CongestionLevel = "severe"
)

var congestionRank = map[CongestionLevel]int{
	CongestionVeryLow: 0,
	CongestionLow:     1,
	CongestionMedium:  2,
	CongestionHigh:    3,
	CongestionSevere:  4,
}

func (c CongestionLevel) Valid() bool {
	_, ok := congestionRank[c]
	return ok
}

// Rank orders levels from very_low (0) to severe (4); unknown levels rank -1.
func (c CongestionLevel) Rank() int {
	if r, ok := congestionRank[c]; ok {
		return r
	}
	return -1
}

type TrafficPattern string

const (
	PatternIncreasing  TrafficPattern = "increasing"
	PatternDecreasing  TrafficPattern = "decreasing"
	PatternStable      TrafficPattern = "stable"
	PatternFluctuating TrafficPattern = "fluctuating"
)

type Location struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Location) TableName() string { return "locations" }

type AnalysisRecord struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID           uuid.UUID         `gorm:"type:uuid;uniqueIndex" json:"video_id"`
	LocationID        *uuid.UUID        `gorm:"type:uuid;index" json:"location_id,omitempty"`
	TotalVehicles     int               `json:"total_vehicles"`
	CarCount          int               `json:"car_count"`
	TruckCount        int               `json:"truck_count"`
	MotorcycleCount   int               `json:"motorcycle_count"`
	BusCount          int               `json:"bus_count"`
	BicycleCount      int               `json:"bicycle_count"`
	OtherCount        int               `json:"other_count"`
	PeakTraffic       int               `json:"peak_traffic"`
	AverageTraffic    float64           `json:"average_traffic"`
	ProcessingSeconds float64           `gorm:"column:processing_time_seconds" json:"processing_time_seconds"`
	AnalyzedAt        time.Time         `gorm:"index" json:"analyzed_at"`
	CongestionLevel   CongestionLevel   `json:"congestion_level"`
	TrafficPattern    TrafficPattern    `json:"traffic_pattern"`
	MetricsSummary    datatypes.JSONMap `gorm:"type:jsonb" json:"metrics_summary,omitempty"`
}

func (AnalysisRecord) TableName() string { return "traffic_analyses" }

// AnalysisSample is the slice of an analysis the forecast engine needs,
// joined with the owning video's start time.
type AnalysisSample struct {
	AnalysisID     uuid.UUID       `json:"analysis_id"`
	LocationID     *uuid.UUID      `json:"location_id,omitempty"`
	TotalVehicles  int             `json:"total_vehicles"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
	VideoStartTime *datatypes.Time `json:"video_start_time,omitempty"`
}

// StartHour returns the hour of day the source video started recording, if known.
func (s AnalysisSample) StartHour() (int, bool) {
	if s.VideoStartTime == nil {
		return 0, false
	}
	return int(time.Duration(*s.VideoStartTime) / time.Hour), true
}

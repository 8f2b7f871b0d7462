package forecast

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/model"
)

const (
	intervalLowerFactor = 0.7
	intervalUpperFactor = 1.3
)

// Plan produces one prediction per hour for each of the daysAhead dates after
// today. Cells backed by fewer than MinSupportingSamples hits are replaced by
// the profile's overall mean scaled by ShapeFactor.
func Plan(profile model.HourlyProfile, thresholds model.CongestionThresholds, today datatypes.Date, daysAhead int, scope model.PredictionScope, generatedAt time.Time) []model.TrafficPrediction {
	if daysAhead <= 0 {
		return nil
	}

	predictions := make([]model.TrafficPrediction, 0, daysAhead*24)
	for offset := 1; offset <= daysAhead; offset++ {
		date := model.AddDays(today, offset)
		day := model.Weekday(time.Time(date))

		for hour := 0; hour < 24; hour++ {
			cell := profile.Cell(day, hour)

			estimate := profile.OverallMean * ShapeFactor(hour)
			confidence := PlanFallbackConfidence
			if cell.Samples >= MinSupportingSamples {
				estimate = cell.Mean
				confidence = cell.Confidence
			}

			count := math.RoundToEven(estimate)
			predictions = append(predictions, model.TrafficPrediction{
				ID:                    uuid.New(),
				LocationID:            scope.LocationID,
				PredictionDate:        date,
				DayOfWeek:             day,
				HourOfDay:             hour,
				PredictedVehicleCount: count,
				PredictedCongestion:   Classify(count, thresholds),
				ConfidenceScore:       confidence,
				ConfidenceLower:       math.Max(0, count*intervalLowerFactor),
				ConfidenceUpper:       count * intervalUpperFactor,
				ModelVersion:          model.ModelVersionHourlyPatterns,
				GeneratedAt:           generatedAt,
			})
		}
	}
	return predictions
}

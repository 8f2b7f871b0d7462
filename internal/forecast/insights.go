package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/model"
)

// DefaultPeakCount is how many peak hours are reported per date.
const DefaultPeakCount = 3

// DayPredictions groups the stored predictions of one date.
type DayPredictions struct {
	Date        datatypes.Date
	Predictions []model.TrafficPrediction
}

func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// TopPeaks returns the n busiest hours, earlier hours first on ties. When
// predictions span several locations each hour appears once, carried by its
// busiest location.
func TopPeaks(predictions []model.TrafficPrediction, n int) []model.PeakHour {
	sorted := make([]model.TrafficPrediction, len(predictions))
	copy(sorted, predictions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PredictedVehicleCount != sorted[j].PredictedVehicleCount {
			return sorted[i].PredictedVehicleCount > sorted[j].PredictedVehicleCount
		}
		return sorted[i].HourOfDay < sorted[j].HourOfDay
	})

	if n < 0 {
		n = 0
	}

	peaks := make([]model.PeakHour, 0, n)
	seen := make(map[int]bool, n)
	for _, p := range sorted {
		if len(peaks) == n {
			break
		}
		if seen[p.HourOfDay] {
			continue
		}
		seen[p.HourOfDay] = true
		peaks = append(peaks, model.PeakHour{
			Hour:              p.HourOfDay,
			Label:             HourLabel(p.HourOfDay),
			LocationID:        p.LocationID,
			PredictedVehicles: p.PredictedVehicleCount,
			Congestion:        p.PredictedCongestion,
		})
	}
	return peaks
}

// Outlook summarises consecutive dates of predictions. Dates without
// predictions are left out of the summary.
func Outlook(days []DayPredictions) model.PredictionInsights {
	insights := model.PredictionInsights{
		Status: model.StatusNoData,
		Days:   []model.DayOutlook{},
	}

	var confidences []float64
	for _, day := range days {
		if len(day.Predictions) == 0 {
			continue
		}

		vehicles := make([]float64, len(day.Predictions))
		dayConfidences := make([]float64, len(day.Predictions))
		for i, p := range day.Predictions {
			vehicles[i] = p.PredictedVehicleCount
			dayConfidences[i] = p.ConfidenceScore
		}
		confidences = append(confidences, dayConfidences...)

		peaks := TopPeaks(day.Predictions, DefaultPeakCount)
		dayName := time.Time(day.Date).Weekday().String()
		outlook := model.DayOutlook{
			Date:              model.FormatDate(day.Date),
			DayName:           dayName,
			PeakHours:         peaks,
			Peak:              peaks[0],
			AverageVehicles:   math.Round(stat.Mean(vehicles, nil)),
			AverageConfidence: round2(stat.Mean(dayConfidences, nil)),
			TotalPredictions:  len(day.Predictions),
		}
		insights.Days = append(insights.Days, outlook)

		if insights.OverallPeak == nil || outlook.Peak.PredictedVehicles > insights.OverallPeak.Vehicles {
			insights.OverallPeak = &model.OverallPeak{
				Date:       outlook.Date,
				DayName:    dayName,
				Hour:       outlook.Peak.Hour,
				Label:      outlook.Peak.Label,
				Vehicles:   outlook.Peak.PredictedVehicles,
				Congestion: outlook.Peak.Congestion,
			}
		}
	}

	if len(confidences) == 0 {
		return insights
	}

	insights.Status = model.StatusOK
	insights.TotalPredictions = len(confidences)
	insights.AverageConfidence = round2(stat.Mean(confidences, nil))
	return insights
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

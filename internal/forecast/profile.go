package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"traffic-analytics-service/internal/model"
)

// BuildProfile derives the weekday × hour traffic profile from samples analysed
// at or after since. A zero since keeps every sample. Weekdays and hours are
// evaluated in loc.
func BuildProfile(samples []model.AnalysisSample, since time.Time, loc *time.Location) model.HourlyProfile {
	if loc == nil {
		loc = time.UTC
	}

	var profile model.HourlyProfile
	var byDay [7][]model.AnalysisSample
	totals := make([]float64, 0, len(samples))

	for _, s := range samples {
		if !since.IsZero() && s.AnalyzedAt.Before(since) {
			continue
		}
		day := model.Weekday(s.AnalyzedAt.In(loc))
		byDay[day] = append(byDay[day], s)
		totals = append(totals, float64(s.TotalVehicles))
	}

	profile.RecordCount = len(totals)
	profile.OverallMean = mean(totals)

	for day := 0; day < 7; day++ {
		records := byDay[day]
		if len(records) == 0 {
			for hour := 0; hour < 24; hour++ {
				profile.Cells[day][hour] = model.ProfileCell{
					Mean:       profile.OverallMean * ShapeFactor(hour),
					Confidence: FallbackConfidence,
				}
			}
			continue
		}

		dayMean := mean(vehicleTotals(records))
		for hour := 0; hour < 24; hour++ {
			relevant := make([]float64, 0, len(records))
			for _, r := range records {
				if RelevantToHour(r, hour, loc) {
					relevant = append(relevant, float64(r.TotalVehicles))
				}
			}

			if len(relevant) == 0 {
				profile.Cells[day][hour] = model.ProfileCell{
					Mean:       dayMean * ShapeFactor(hour),
					Confidence: FallbackConfidence,
				}
				continue
			}

			profile.Cells[day][hour] = model.ProfileCell{
				Mean:       mean(relevant),
				Confidence: math.Min(maxCellConfidence, float64(len(relevant))*confidencePerHit),
				Samples:    len(relevant),
			}
		}
	}

	return profile
}

// RelevantToHour reports whether a sample plausibly covers hour. The video's
// start time wins; the analysis timestamp is used when the start is unknown.
func RelevantToHour(s model.AnalysisSample, hour int, loc *time.Location) bool {
	sampleHour, ok := s.StartHour()
	if !ok {
		sampleHour = s.AnalyzedAt.In(loc).Hour()
	}
	diff := sampleHour - hour
	if diff < 0 {
		diff = -diff
	}
	return diff <= HourMatchWindow
}

func vehicleTotals(samples []model.AnalysisSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.TotalVehicles)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

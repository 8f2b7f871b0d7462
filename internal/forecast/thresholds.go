package forecast

import (
	"math"

	"traffic-analytics-service/internal/model"
)

// DefaultThresholds apply when there is no profile data to derive cut points from.
var DefaultThresholds = model.CongestionThresholds{
	VeryLow: 0,
	Low:     30,
	Medium:  60,
	High:    100,
	Severe:  150,
}

// ComputeThresholds derives interquartile-based congestion cut points from
// every cell estimate of the profile. A profile built from no records yields
// DefaultThresholds.
func ComputeThresholds(profile model.HourlyProfile) model.CongestionThresholds {
	if profile.RecordCount == 0 {
		return DefaultThresholds
	}
	return ThresholdsFromSample(profileMeans(profile))
}

func profileMeans(profile model.HourlyProfile) []float64 {
	means := make([]float64, 0, 7*24)
	for day := range profile.Cells {
		for hour := range profile.Cells[day] {
			means = append(means, profile.Cells[day][hour].Mean)
		}
	}
	return means
}

// ThresholdsFromSample bands values by their quartiles, widening the outer
// bands by the neighbouring interquartile step.
func ThresholdsFromSample(values []float64) model.CongestionThresholds {
	if len(values) == 0 {
		return DefaultThresholds
	}

	q := Percentiles(values, []float64{25, 50, 75})
	q25, q50, q75 := q[0], q[1], q[2]

	return model.CongestionThresholds{
		VeryLow: math.Max(0, q25-(q50-q25)),
		Low:     q25,
		Medium:  q50,
		High:    q75,
		Severe:  q75 + (q75 - q50),
	}
}

// Classify returns the highest level whose cut point count meets or exceeds.
func Classify(count float64, t model.CongestionThresholds) model.CongestionLevel {
	switch {
	case count >= t.Severe:
		return model.CongestionSevere
	case count >= t.High:
		return model.CongestionHigh
	case count >= t.Medium:
		return model.CongestionMedium
	case count >= t.Low:
		return model.CongestionLow
	default:
		return model.CongestionVeryLow
	}
}

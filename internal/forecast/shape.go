package forecast

const (
	// FallbackConfidence is assigned to profile cells estimated from a mean and the shape factor.
	FallbackConfidence = 0.3
	// PlanFallbackConfidence is assigned to predictions that do not have enough supporting samples.
	PlanFallbackConfidence = 0.4
	// MinSupportingSamples is the number of samples a profile cell needs to be used directly.
	MinSupportingSamples = 3
	// HourMatchWindow is how far, in hours, a video start may be from an hour and still count for it.
	HourMatchWindow = 2

	maxCellConfidence = 0.9
	confidencePerHit  = 0.1
)

// ShapeFactor approximates the intraday traffic shape when granular data is absent.
func ShapeFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return 1.8
	case hour >= 16 && hour <= 19:
		return 1.6
	case hour >= 10 && hour <= 15:
		return 1.2
	case hour >= 0 && hour <= 5:
		return 0.3
	default:
		return 0.8
	}
}

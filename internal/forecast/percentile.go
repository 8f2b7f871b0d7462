package forecast

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks.
func Percentile(values []float64, p float64) float64 {
	return Percentiles(values, []float64{p})[0]
}

// Percentiles computes several percentiles with a single sort.
func Percentiles(values []float64, ps []float64) []float64 {
	results := make([]float64, len(ps))
	if len(values) == 0 {
		return results
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	for i, p := range ps {
		p = math.Max(0, math.Min(100, p))
		index := p / 100 * (n - 1)
		lower := int(math.Floor(index))
		upper := int(math.Ceil(index))
		if lower == upper {
			results[i] = sorted[lower]
			continue
		}
		weight := index - float64(lower)
		results[i] = sorted[lower]*(1-weight) + sorted[upper]*weight
	}
	return results
}

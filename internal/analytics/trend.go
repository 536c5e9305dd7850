package analytics

import (
	"math"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

const (
	// RecentWindow is how many of the newest readings feed averages and trend.
	RecentWindow = 5

	improvingSlope = 0.05
	decliningSlope = -0.05
)

// TrendSlope returns the least-squares slope of values against their
// zero-based index. Fewer than two samples, or any non-finite sample,
// yield 0.
func TrendSlope(values []float64) float64 {
	n := float64(len(values))
	if len(values) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return 0
		}
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// TrendLabel buckets a slope into improving, declining or stable.
func TrendLabel(slope float64) models.Trend {
	switch {
	case slope > improvingSlope:
		return models.TrendImproving
	case slope < decliningSlope:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

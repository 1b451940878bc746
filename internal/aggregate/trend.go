package aggregate

import (
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/stats"
)

// Relative change in half-means required before momentum counts as a move.
const (
	risingFactor  = 1.10
	fallingFactor = 0.90
)

// Trend compares the mean score of the first and second half of a
// time-ordered snapshot sequence. Odd-length sequences put the middle
// element in the second half. Fewer than two snapshots is insufficient
// data with magnitude 0.
func Trend(assetID string, snapshots []domain.WindowSnapshot) domain.TrendResult {
	result := domain.TrendResult{
		AssetID:  assetID,
		Lookback: len(snapshots),
		Trend:    domain.TrendInsufficientData,
	}
	if len(snapshots) < 2 {
		return result
	}

	mid := len(snapshots) / 2
	first := make([]float64, 0, mid)
	second := make([]float64, 0, len(snapshots)-mid)
	for i, s := range snapshots {
		if i < mid {
			first = append(first, s.Score)
		} else {
			second = append(second, s.Score)
		}
	}

	firstMean := stats.Mean(first)
	secondMean := stats.Mean(second)

	switch {
	case secondMean > firstMean*risingFactor:
		result.Trend = domain.TrendRising
	case secondMean < firstMean*fallingFactor:
		result.Trend = domain.TrendFalling
	default:
		result.Trend = domain.TrendStable
	}
	if firstMean != 0 {
		result.Magnitude = (secondMean - firstMean) / firstMean
	}
	return result
}

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tokenpulse/oracle/internal/domain"
)

func snapshotsWithScores(scores ...float64) []domain.WindowSnapshot {
	snaps := make([]domain.WindowSnapshot, len(scores))
	for i, s := range scores {
		snaps[i] = domain.WindowSnapshot{AssetID: "DOGE", Score: s}
	}
	return snaps
}

func TestTrend_InsufficientData(t *testing.T) {
	result := Trend("DOGE", nil)
	assert.Equal(t, domain.TrendInsufficientData, result.Trend)
	assert.Equal(t, 0.0, result.Magnitude)

	result = Trend("DOGE", snapshotsWithScores(55))
	assert.Equal(t, domain.TrendInsufficientData, result.Trend)
}

func TestTrend_RisingOddLength(t *testing.T) {
	// First half [40,45] mean 42.5; second half [50,65,70] mean 61.7;
	// 61.7 > 42.5*1.10 so the trend is rising.
	result := Trend("DOGE", snapshotsWithScores(40, 45, 50, 65, 70))
	assert.Equal(t, domain.TrendRising, result.Trend)
	assert.InDelta(t, (61.666666-42.5)/42.5, result.Magnitude, 1e-4)
}

func TestTrend_Falling(t *testing.T) {
	result := Trend("DOGE", snapshotsWithScores(70, 68, 40, 35))
	assert.Equal(t, domain.TrendFalling, result.Trend)
	assert.Negative(t, result.Magnitude)
}

func TestTrend_StableWithinThresholds(t *testing.T) {
	result := Trend("DOGE", snapshotsWithScores(50, 52, 51, 53))
	assert.Equal(t, domain.TrendStable, result.Trend)
}

func TestTrend_MiddleElementBelongsToSecondHalf(t *testing.T) {
	// [10, 100, 100]: first half [10], second half [100, 100].
	result := Trend("DOGE", snapshotsWithScores(10, 100, 100))
	assert.Equal(t, domain.TrendRising, result.Trend)
	assert.InDelta(t, 9.0, result.Magnitude, 1e-9)
}

func TestTrend_LookbackMatchesInput(t *testing.T) {
	result := Trend("DOGE", snapshotsWithScores(50, 55, 60))
	assert.Equal(t, 3, result.Lookback)
}

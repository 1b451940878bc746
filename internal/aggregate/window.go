package aggregate

import (
	"time"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/stats"
)

// Label thresholds over the aggregated window score.
const (
	bullishThreshold = 67
	bearishThreshold = 33
)

// fullConfidenceSamples is the sample size at which the size factor of the
// window confidence saturates at 1.
const fullConfidenceSamples = 20

// Window aggregates scored signals for one asset within one closed time
// bucket into an immutable snapshot. Outliers are rejected before averaging
// and the surviving scores are weighted by each signal's own credibility.
// Zero signals yields the insufficient-data default: score 50, neutral,
// confidence 0.
func Window(assetID string, start, end time.Time, signals []domain.ScoredSignal) domain.WindowSnapshot {
	snap := domain.WindowSnapshot{
		AssetID:     assetID,
		WindowStart: start,
		WindowEnd:   end,
		Score:       50,
		Label:       domain.LabelNeutral,
	}
	if len(signals) == 0 {
		return snap
	}

	scores := make([]float64, len(signals))
	for i, s := range signals {
		scores[i] = s.NumericScore
	}

	_, rejected := stats.RejectOutliers(scores)
	rejectedSet := make(map[int]struct{}, len(rejected))
	for _, idx := range rejected {
		rejectedSet[idx] = struct{}{}
	}

	var (
		survivorScores  []float64
		survivorWeights []float64
		engagementSum   float64
	)
	for i, s := range signals {
		switch s.Label {
		case domain.LabelBullish:
			snap.BullishCount++
		case domain.LabelBearish:
			snap.BearishCount++
		default:
			snap.NeutralCount++
		}
		engagementSum += float64(s.Engagement.Likes + s.Engagement.Reposts + s.Engagement.Replies)

		if _, isOutlier := rejectedSet[i]; isOutlier {
			continue
		}
		survivorScores = append(survivorScores, s.NumericScore)
		survivorWeights = append(survivorWeights, s.Credibility)
	}

	snap.SampleSize = len(signals)
	snap.AvgEngagement = engagementSum / float64(len(signals))
	snap.Score = stats.WeightedMean(survivorScores, survivorWeights)

	sizeFactor := stats.Clamp(float64(len(signals))/fullConfidenceSamples, 0, 1)
	agreementFactor := stats.Clamp(1-stats.StdDev(survivorScores)/50, 0, 1)
	snap.Confidence = sizeFactor * agreementFactor

	switch {
	case snap.Score >= bullishThreshold:
		snap.Label = domain.LabelBullish
	case snap.Score <= bearishThreshold:
		snap.Label = domain.LabelBearish
	default:
		snap.Label = domain.LabelNeutral
	}
	return snap
}

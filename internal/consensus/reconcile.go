package consensus

import (
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/stats"
)

// MinQuorum is the default number of surviving submissions required before
// a consensus result counts as authoritative rather than provisional.
const MinQuorum = 3

// ValidateSubmission checks the submission's score and confidence ranges.
// Malformed submissions are excluded before reconciliation and never count
// toward quorum.
func ValidateSubmission(sub domain.NodeSubmission) error {
	if sub.Score < 0 || sub.Score > 100 || sub.Confidence < 0 || sub.Confidence > 1 {
		return domain.ErrInvalidSubmission
	}
	return nil
}

// Reconcile folds the submissions for one (asset, epoch) into a single
// consensus result: IQR outlier rejection over the scores, then the median
// of surviving scores and confidences. Median rather than mean keeps a
// single colluding or malfunctioning node from dragging the result.
// With fewer than MinQuorum survivors the result is still returned
// best-effort with QuorumMet false.
func Reconcile(assetID string, epoch int64, subs []domain.NodeSubmission) domain.ConsensusResult {
	result := domain.ConsensusResult{AssetID: assetID, Epoch: epoch}

	valid := make([]domain.NodeSubmission, 0, len(subs))
	for _, sub := range subs {
		if ValidateSubmission(sub) != nil {
			continue
		}
		valid = append(valid, sub)
	}
	if len(valid) == 0 {
		return result
	}

	scores := make([]float64, len(valid))
	for i, sub := range valid {
		scores[i] = sub.Score
	}

	survivorScores, rejected := stats.RejectOutliers(scores)
	rejectedSet := make(map[int]struct{}, len(rejected))
	for _, idx := range rejected {
		rejectedSet[idx] = struct{}{}
	}

	confidences := make([]float64, 0, len(valid))
	for i, sub := range valid {
		if _, isOutlier := rejectedSet[i]; isOutlier {
			continue
		}
		confidences = append(confidences, sub.Confidence)
	}

	result.Score = stats.Median(survivorScores)
	result.Confidence = stats.Median(confidences)
	result.ParticipatingNodes = len(survivorScores)
	result.RejectedOutliers = len(rejected)
	result.QuorumMet = len(survivorScores) >= MinQuorum
	return result
}

package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tokenpulse/oracle/internal/domain"
)

func submission(node string, score, confidence float64) domain.NodeSubmission {
	return domain.NodeSubmission{
		NodeID:     node,
		AssetID:    "DOGE",
		Epoch:      42,
		Score:      score,
		Confidence: confidence,
	}
}

func TestValidateSubmission(t *testing.T) {
	assert.NoError(t, ValidateSubmission(submission("n1", 50, 0.5)))
	assert.NoError(t, ValidateSubmission(submission("n1", 0, 0)))
	assert.NoError(t, ValidateSubmission(submission("n1", 100, 1)))

	assert.ErrorIs(t, ValidateSubmission(submission("n1", -1, 0.5)), domain.ErrInvalidSubmission)
	assert.ErrorIs(t, ValidateSubmission(submission("n1", 101, 0.5)), domain.ErrInvalidSubmission)
	assert.ErrorIs(t, ValidateSubmission(submission("n1", 50, -0.1)), domain.ErrInvalidSubmission)
	assert.ErrorIs(t, ValidateSubmission(submission("n1", 50, 1.1)), domain.ErrInvalidSubmission)
}

func TestReconcile_MedianWithOutlierRejection(t *testing.T) {
	subs := []domain.NodeSubmission{
		submission("n1", 72, 0.80),
		submission("n2", 75, 0.85),
		submission("n3", 70, 0.82),
		submission("n4", 95, 0.30),
		submission("n5", 68, 0.81),
	}

	result := Reconcile("DOGE", 42, subs)
	assert.InDelta(t, 71.0, result.Score, 1e-9)
	// Survivor confidences sorted are [0.80 0.81 0.82 0.85]; the even-length
	// median averages the middle pair.
	assert.InDelta(t, 0.815, result.Confidence, 1e-9)
	assert.Equal(t, 4, result.ParticipatingNodes)
	assert.Equal(t, 1, result.RejectedOutliers)
	assert.True(t, result.QuorumMet)
}

func TestReconcile_MalformedExcludedFromQuorum(t *testing.T) {
	subs := []domain.NodeSubmission{
		submission("n1", 70, 0.8),
		submission("n2", 72, 0.8),
		submission("n3", 150, 0.8), // out of range
	}

	result := Reconcile("DOGE", 42, subs)
	assert.Equal(t, 2, result.ParticipatingNodes)
	assert.False(t, result.QuorumMet)
	assert.InDelta(t, 71.0, result.Score, 1e-9)
}

func TestReconcile_BelowQuorumStillReturnsScore(t *testing.T) {
	subs := []domain.NodeSubmission{
		submission("n1", 64, 0.7),
		submission("n2", 66, 0.9),
	}

	result := Reconcile("DOGE", 42, subs)
	assert.False(t, result.QuorumMet)
	assert.InDelta(t, 65.0, result.Score, 1e-9)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestReconcile_NoSubmissions(t *testing.T) {
	result := Reconcile("DOGE", 42, nil)
	assert.Equal(t, 0, result.ParticipatingNodes)
	assert.False(t, result.QuorumMet)
	assert.Equal(t, 0.0, result.Score)
}

func TestReconcile_ExactQuorumBoundary(t *testing.T) {
	subs := []domain.NodeSubmission{
		submission("n1", 70, 0.8),
		submission("n2", 72, 0.8),
		submission("n3", 74, 0.8),
	}

	result := Reconcile("DOGE", 42, subs)
	assert.Equal(t, MinQuorum, result.ParticipatingNodes)
	assert.True(t, result.QuorumMet)
}

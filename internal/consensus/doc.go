// Package consensus reconciles independently produced node submissions for
// the same asset and epoch into one consensus value with outlier rejection
// and a quorum policy. The pure reconciliation lives in Reconcile; the
// Engine actor owns epoch lifecycle and late-submission rejection.
package consensus

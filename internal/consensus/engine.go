package consensus

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

// reconciledRetention is how many epochs a reconciled result stays queryable
// on the engine before it is pruned. History and persistence keep the rest.
const reconciledRetention = 8

type epochPhase int

const (
	phaseCollecting epochPhase = iota
	phaseClosed
	phaseReconciled
)

type epochKey struct {
	assetID string
	epoch   int64
}

type epochState struct {
	phase       epochPhase
	submissions map[string]domain.NodeSubmission // keyed by node, last write wins
	deadline    time.Time
	result      domain.ConsensusResult
}

// --- Command types ---

type engineCmd interface{ engineCmd() }

type cmdSubmit struct {
	sub     domain.NodeSubmission
	replyCh chan error
}

func (cmdSubmit) engineCmd() {}

type cmdTick struct{}

func (cmdTick) engineCmd() {}

type cmdGetResult struct {
	key     epochKey
	replyCh chan resultReply
}

func (cmdGetResult) engineCmd() {}

type resultReply struct {
	result domain.ConsensusResult
	ok     bool
}

type cmdStop struct {
	doneCh chan struct{}
}

func (cmdStop) engineCmd() {}

// --- Engine ---

// Engine owns the collecting -> closed -> reconciled state machine for every
// (asset, epoch) pair. All state mutation happens on one actor goroutine, so
// reconciliation always reads a consistent, closed submission set. Epochs
// close after a grace period past the epoch boundary; late submissions fail
// with domain.ErrEpochClosed instead of being waited for.
type Engine struct {
	cmdCh       chan engineCmd
	clock       clockwork.Clock
	epochLength time.Duration
	grace       time.Duration
	sink        domain.ConsensusSink
	epochs      map[epochKey]*epochState
	stopCh      chan struct{}
}

func NewEngine(clock clockwork.Clock, epochLength, grace time.Duration, sink domain.ConsensusSink) *Engine {
	return &Engine{
		cmdCh:       make(chan engineCmd, 256),
		clock:       clock,
		epochLength: epochLength,
		grace:       grace,
		sink:        sink,
		epochs:      make(map[epochKey]*epochState),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the actor and ticker goroutines.
func (e *Engine) Start() {
	go e.tickerLoop()
	go e.run()
}

// EpochFor maps a point in time to its epoch number.
func (e *Engine) EpochFor(t time.Time) int64 {
	return t.UnixMilli() / e.epochLength.Milliseconds()
}

// epochEnd is the boundary after which the epoch only has its grace period.
func (e *Engine) epochEnd(epoch int64) time.Time {
	return time.UnixMilli((epoch + 1) * e.epochLength.Milliseconds())
}

func (e *Engine) run() {
	for cmd := range e.cmdCh {
		switch c := cmd.(type) {
		case cmdSubmit:
			c.replyCh <- e.handleSubmit(c.sub)

		case cmdTick:
			e.handleTick()

		case cmdGetResult:
			state, exists := e.epochs[c.key]
			if !exists || state.phase != phaseReconciled {
				c.replyCh <- resultReply{}
				break
			}
			c.replyCh <- resultReply{result: state.result, ok: true}

		case cmdStop:
			close(e.stopCh)
			close(c.doneCh)
			return
		}
	}
}

func (e *Engine) handleSubmit(sub domain.NodeSubmission) error {
	if err := ValidateSubmission(sub); err != nil {
		metrics.SubmissionsRejected.WithLabelValues("out_of_range").Inc()
		slog.Warn("Rejecting malformed submission",
			"node", sub.NodeID, "asset", sub.AssetID, "epoch", sub.Epoch,
			"score", sub.Score, "confidence", sub.Confidence)
		return err
	}

	key := epochKey{assetID: sub.AssetID, epoch: sub.Epoch}
	state, exists := e.epochs[key]
	if exists && state.phase != phaseCollecting {
		metrics.SubmissionsRejected.WithLabelValues("epoch_closed").Inc()
		slog.Warn("Rejecting late submission", "node", sub.NodeID, "asset", sub.AssetID, "epoch", sub.Epoch)
		return domain.ErrEpochClosed
	}
	if !exists {
		deadline := e.epochEnd(sub.Epoch).Add(e.grace)
		if !e.clock.Now().Before(deadline) {
			metrics.SubmissionsRejected.WithLabelValues("epoch_closed").Inc()
			slog.Warn("Rejecting submission for expired epoch", "node", sub.NodeID, "asset", sub.AssetID, "epoch", sub.Epoch)
			return domain.ErrEpochClosed
		}
		state = &epochState{
			submissions: make(map[string]domain.NodeSubmission),
			deadline:    deadline,
		}
		e.epochs[key] = state
	}

	state.submissions[sub.NodeID] = sub
	metrics.SubmissionsAccepted.Inc()
	return nil
}

func (e *Engine) handleTick() {
	now := e.clock.Now()
	currentEpoch := e.EpochFor(now)

	for key, state := range e.epochs {
		switch state.phase {
		case phaseCollecting:
			if now.Before(state.deadline) {
				continue
			}
			state.phase = phaseClosed
			e.reconcile(key, state)

		case phaseReconciled:
			if key.epoch < currentEpoch-reconciledRetention {
				delete(e.epochs, key)
			}
		}
	}
}

func (e *Engine) reconcile(key epochKey, state *epochState) {
	subs := make([]domain.NodeSubmission, 0, len(state.submissions))
	for _, sub := range state.submissions {
		subs = append(subs, sub)
	}

	state.result = Reconcile(key.assetID, key.epoch, subs)
	state.phase = phaseReconciled
	state.submissions = nil

	metrics.EpochsReconciled.Inc()
	if !state.result.QuorumMet {
		metrics.EpochsWithoutQuorum.Inc()
	}
	slog.Info("Epoch reconciled",
		"asset", key.assetID, "epoch", key.epoch,
		"score", state.result.Score, "nodes", state.result.ParticipatingNodes,
		"outliers", state.result.RejectedOutliers, "quorum", state.result.QuorumMet)

	if e.sink != nil {
		e.sink.PublishConsensus(context.Background(), state.result)
	}
}

func (e *Engine) tickerLoop() {
	ticker := e.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			e.cmdCh <- cmdTick{}
		case <-e.stopCh:
			return
		}
	}
}

// --- Public API ---

// Submit routes a node submission through the actor. It returns
// domain.ErrInvalidSubmission for out-of-range values and
// domain.ErrEpochClosed once the epoch's grace period has passed.
func (e *Engine) Submit(sub domain.NodeSubmission) error {
	replyCh := make(chan error, 1)
	e.cmdCh <- cmdSubmit{sub: sub, replyCh: replyCh}
	return <-replyCh
}

// Result returns the reconciled consensus for (assetID, epoch), if any.
func (e *Engine) Result(assetID string, epoch int64) (domain.ConsensusResult, bool) {
	replyCh := make(chan resultReply, 1)
	e.cmdCh <- cmdGetResult{key: epochKey{assetID: assetID, epoch: epoch}, replyCh: replyCh}
	reply := <-replyCh
	return reply.result, reply.ok
}

func (e *Engine) Stop() {
	doneCh := make(chan struct{})
	e.cmdCh <- cmdStop{doneCh: doneCh}
	<-doneCh
}

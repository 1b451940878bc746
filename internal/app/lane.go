package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/tokenpulse/oracle/internal/aggregate"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
	"github.com/tokenpulse/oracle/internal/stats"
)

// --- Command types ---

type laneCmd interface{ laneCmd() }

type cmdRoute struct {
	sig domain.ScoredSignal
}

func (cmdRoute) laneCmd() {}

type cmdCloseWindow struct {
	start time.Time
	end   time.Time
}

func (cmdCloseWindow) laneCmd() {}

type cmdLaneStop struct {
	doneCh chan struct{}
}

func (cmdLaneStop) laneCmd() {}

// --- Lane ---

// Lane is the single writer for one asset. All signal buffering and window
// closing for that asset happens on the lane goroutine, so no two snapshots
// for the same asset can ever be produced concurrently.
type Lane struct {
	assetID string
	cmdCh   chan laneCmd
	history domain.HistoryStore
	sink    domain.SnapshotSink
	onClose func(domain.WindowSnapshot)
	logger  *slog.Logger

	pending []domain.ScoredSignal
}

func NewLane(assetID string, history domain.HistoryStore, sink domain.SnapshotSink, logger *slog.Logger) *Lane {
	return &Lane{
		assetID: assetID,
		cmdCh:   make(chan laneCmd, 256),
		history: history,
		sink:    sink,
		logger:  logger.With("asset", assetID),
	}
}

// SetOnClose registers a hook invoked with each finalized snapshot. Resolves
// the circular dependency between lanes and the service, which needs the
// snapshot for the own-node consensus submission. Must be called before Start.
func (l *Lane) SetOnClose(fn func(domain.WindowSnapshot)) {
	l.onClose = fn
}

func (l *Lane) Start() {
	go l.run()
}

// Route buffers a scored signal for the current window.
func (l *Lane) Route(sig domain.ScoredSignal) {
	l.cmdCh <- cmdRoute{sig: sig}
	metrics.LaneQueueDepth.WithLabelValues(l.assetID).Set(float64(len(l.cmdCh)))
}

// CloseWindow finalizes the current bucket into a snapshot for [start, end).
// Signals routed after this call belong to the next window.
func (l *Lane) CloseWindow(start, end time.Time) {
	l.cmdCh <- cmdCloseWindow{start: start, end: end}
}

func (l *Lane) Stop() {
	doneCh := make(chan struct{})
	l.cmdCh <- cmdLaneStop{doneCh: doneCh}
	<-doneCh
}

func (l *Lane) run() {
	for cmd := range l.cmdCh {
		switch c := cmd.(type) {
		case cmdRoute:
			l.pending = append(l.pending, c.sig)

		case cmdCloseWindow:
			l.closeWindow(c.start, c.end)

		case cmdLaneStop:
			close(c.doneCh)
			return
		}
	}
}

func (l *Lane) closeWindow(start, end time.Time) {
	signals := l.pending
	l.pending = nil

	snap := aggregate.Window(l.assetID, start, end, signals)
	l.history.AppendSnapshot(snap)
	if l.sink != nil {
		l.sink.PublishSnapshot(context.Background(), snap)
	}
	if l.onClose != nil {
		l.onClose(snap)
	}

	metrics.WindowsClosed.Inc()
	metrics.WindowSampleSize.Observe(float64(snap.SampleSize))
	if len(signals) > 0 {
		scores := make([]float64, len(signals))
		for i, s := range signals {
			scores[i] = s.NumericScore
		}
		_, rejected := stats.RejectOutliers(scores)
		metrics.WindowOutliersRejected.Add(float64(len(rejected)))
	}

	l.logger.Info("window closed",
		"window_end", end,
		"score", snap.Score,
		"label", snap.Label,
		"confidence", snap.Confidence,
		"sample_size", snap.SampleSize,
	)
}

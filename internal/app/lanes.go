package app

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

// Lanes holds one lane per tracked asset and implements the dispatcher's
// router. The lane set is fixed at startup; signals for untracked assets
// are dropped.
type Lanes struct {
	byAsset map[string]*Lane
	logger  *slog.Logger
}

func NewLanes(assets []string, history domain.HistoryStore, sink domain.SnapshotSink, logger *slog.Logger) *Lanes {
	byAsset := make(map[string]*Lane, len(assets))
	for _, asset := range assets {
		byAsset[asset] = NewLane(asset, history, sink, logger)
	}
	return &Lanes{byAsset: byAsset, logger: logger}
}

// SetOnClose registers the snapshot hook on every lane. Must be called
// before Start.
func (l *Lanes) SetOnClose(fn func(domain.WindowSnapshot)) {
	for _, lane := range l.byAsset {
		lane.SetOnClose(fn)
	}
}

func (l *Lanes) Start() {
	for _, lane := range l.byAsset {
		lane.Start()
	}
}

func (l *Lanes) Stop() {
	for _, lane := range l.byAsset {
		lane.Stop()
	}
}

// Route implements ingest.Router.
func (l *Lanes) Route(sig domain.ScoredSignal) {
	lane, ok := l.byAsset[sig.AssetID]
	if !ok {
		metrics.SignalsFiltered.WithLabelValues("unknown_asset").Inc()
		l.logger.Debug("dropped signal for untracked asset", "asset", sig.AssetID, "signal_id", sig.ID)
		return
	}
	lane.Route(sig)
}

// CloseAll closes the current window on every lane.
func (l *Lanes) CloseAll(start, end time.Time) {
	for _, lane := range l.byAsset {
		lane.CloseWindow(start, end)
	}
}

// WindowTicker closes windows on every lane at wall-clock aligned
// boundaries, so all nodes observing the same clock produce snapshots for
// identical intervals.
type WindowTicker struct {
	lanes  *Lanes
	clock  clockwork.Clock
	size   time.Duration
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewWindowTicker(lanes *Lanes, clock clockwork.Clock, size time.Duration) *WindowTicker {
	return &WindowTicker{
		lanes:  lanes,
		clock:  clock,
		size:   size,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (t *WindowTicker) Start() {
	go t.run()
}

func (t *WindowTicker) Stop() {
	close(t.stopCh)
	<-t.doneCh
}

func (t *WindowTicker) run() {
	defer close(t.doneCh)
	for {
		now := t.clock.Now()
		boundary := now.Truncate(t.size).Add(t.size)
		select {
		case <-t.clock.After(boundary.Sub(now)):
			t.lanes.CloseAll(boundary.Add(-t.size), boundary)
		case <-t.stopCh:
			return
		}
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/tokenpulse/oracle/internal/aggregate"
	"github.com/tokenpulse/oracle/internal/consensus"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/history"
	"github.com/tokenpulse/oracle/internal/ingest"
)

// DefaultTrendLookback is the number of recent snapshots the trend
// endpoints use when the caller does not specify one.
const DefaultTrendLookback = 12

// SnapshotCache is the read side of the shared snapshot cache. Latest
// returns nil without error when the cache has no entry.
type SnapshotCache interface {
	Latest(ctx context.Context, assetID string) (*domain.WindowSnapshot, error)
}

// AssetSummary is the per-asset entry of the summary view.
type AssetSummary struct {
	AssetID  string                 `json:"asset_id"`
	Snapshot *domain.WindowSnapshot `json:"snapshot"`
	Trend    domain.TrendResult     `json:"trend"`
}

// Deps bundles the components the service orchestrates. Cache may be nil
// when Redis is not configured.
type Deps struct {
	NodeID     string
	Assets     []string
	History    domain.HistoryStore
	Lanes      *Lanes
	Engine     *consensus.Engine
	Dispatcher *ingest.Dispatcher
	Poller     *ingest.Poller
	Ticker     *WindowTicker
	Cache      SnapshotCache
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Service orchestrates the pipeline and serves the read API. It is the only
// component that references multiple domain components.
type Service struct {
	nodeID     string
	tracked    map[string]struct{}
	assets     []string
	history    domain.HistoryStore
	lanes      *Lanes
	engine     *consensus.Engine
	dispatcher *ingest.Dispatcher
	poller     *ingest.Poller
	ticker     *WindowTicker
	cache      SnapshotCache
	clock      clockwork.Clock
	logger     *slog.Logger

	trendGroup singleflight.Group
	stopOnce   sync.Once
}

func NewService(deps Deps) *Service {
	tracked := make(map[string]struct{}, len(deps.Assets))
	for _, a := range deps.Assets {
		tracked[a] = struct{}{}
	}
	s := &Service{
		nodeID:     deps.NodeID,
		tracked:    tracked,
		assets:     deps.Assets,
		history:    deps.History,
		lanes:      deps.Lanes,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		poller:     deps.Poller,
		ticker:     deps.Ticker,
		cache:      deps.Cache,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	if s.lanes != nil {
		s.lanes.SetOnClose(s.onWindowClosed)
	}
	return s
}

// Start brings the pipeline up back to front, so every stage has a running
// consumer before its producer starts.
func (s *Service) Start(ctx context.Context) {
	if s.engine != nil {
		s.engine.Start()
	}
	if s.lanes != nil {
		s.lanes.Start()
	}
	if s.ticker != nil {
		s.ticker.Start()
	}
	if s.dispatcher != nil {
		s.dispatcher.Start()
	}
	if s.poller != nil {
		s.poller.Start(ctx)
	}
	s.logger.Info("service started", "node_id", s.nodeID, "assets", len(s.assets))
}

// Stop tears the pipeline down front to back and drains in-flight work.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.poller != nil {
			s.poller.Stop()
		}
		if s.dispatcher != nil {
			s.dispatcher.Stop()
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		if s.lanes != nil {
			s.lanes.Stop()
		}
		if s.engine != nil {
			s.engine.Stop()
		}
		s.logger.Info("service stopped")
	})
}

// onWindowClosed converts a finalized snapshot into this node's submission
// for the epoch the window falls in. Empty windows are not submitted; a
// no-data default would drag consensus toward 50.
func (s *Service) onWindowClosed(snap domain.WindowSnapshot) {
	if s.engine == nil || snap.SampleSize == 0 {
		return
	}
	sub := domain.NodeSubmission{
		NodeID:      s.nodeID,
		AssetID:     snap.AssetID,
		Epoch:       s.engine.EpochFor(snap.WindowStart),
		Score:       snap.Score,
		Confidence:  snap.Confidence,
		SubmittedAt: s.clock.Now(),
	}
	if err := s.engine.Submit(sub); err != nil {
		s.logger.Warn("own-node submission rejected", "asset", snap.AssetID, "epoch", sub.Epoch, "error", err)
	}
}

// Assets returns the tracked asset list.
func (s *Service) Assets() []string {
	return s.assets
}

func (s *Service) checkAsset(assetID string) error {
	if _, ok := s.tracked[assetID]; !ok {
		return domain.ErrUnknownAsset
	}
	return nil
}

// Latest returns the freshest snapshot for an asset, preferring local
// history and falling back to the shared cache for windows closed by
// another instance.
func (s *Service) Latest(ctx context.Context, assetID string) (domain.WindowSnapshot, error) {
	if err := s.checkAsset(assetID); err != nil {
		return domain.WindowSnapshot{}, err
	}
	if snap, ok := s.history.LatestSnapshot(assetID); ok {
		return snap, nil
	}
	if s.cache != nil {
		snap, err := s.cache.Latest(ctx, assetID)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", "asset", assetID, "error", err)
		} else if snap != nil {
			return *snap, nil
		}
	}
	return domain.WindowSnapshot{}, domain.ErrNotFound
}

// History returns up to n recent snapshots in chronological order.
func (s *Service) History(assetID string, n int) ([]domain.WindowSnapshot, error) {
	if err := s.checkAsset(assetID); err != nil {
		return nil, err
	}
	return s.history.RecentSnapshots(assetID, n), nil
}

// HistorySince returns all retained snapshots at or after since, in
// chronological order.
func (s *Service) HistorySince(assetID string, since time.Time) ([]domain.WindowSnapshot, error) {
	if err := s.checkAsset(assetID); err != nil {
		return nil, err
	}
	return s.history.SnapshotsSince(assetID, since), nil
}

// Trend computes momentum over the last lookback snapshots. Concurrent
// requests for the same asset and lookback collapse into one computation.
func (s *Service) Trend(assetID string, lookback int) (domain.TrendResult, error) {
	if err := s.checkAsset(assetID); err != nil {
		return domain.TrendResult{}, err
	}
	if lookback <= 0 {
		lookback = DefaultTrendLookback
	}
	key := fmt.Sprintf("%s/%d", assetID, lookback)
	v, _, _ := s.trendGroup.Do(key, func() (any, error) {
		snapshots := s.history.RecentSnapshots(assetID, lookback)
		return aggregate.Trend(assetID, snapshots), nil
	})
	return v.(domain.TrendResult), nil
}

// Summary returns the latest snapshot and trend for every tracked asset.
func (s *Service) Summary(ctx context.Context) []AssetSummary {
	summaries := make([]AssetSummary, 0, len(s.assets))
	for _, asset := range s.assets {
		entry := AssetSummary{AssetID: asset}
		if snap, err := s.Latest(ctx, asset); err == nil {
			entry.Snapshot = &snap
		}
		if trend, err := s.Trend(asset, DefaultTrendLookback); err == nil {
			entry.Trend = trend
		}
		summaries = append(summaries, entry)
	}
	return summaries
}

// SubmitScore forwards an external node's submission to the consensus
// engine.
func (s *Service) SubmitScore(sub domain.NodeSubmission) error {
	if err := s.checkAsset(sub.AssetID); err != nil {
		return err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.clock.Now()
	}
	return s.engine.Submit(sub)
}

// Consensus returns the reconciled result for an asset and epoch, checking
// the engine's recent epochs first and the history ledger after.
func (s *Service) Consensus(assetID string, epoch int64) (domain.ConsensusResult, error) {
	if err := s.checkAsset(assetID); err != nil {
		return domain.ConsensusResult{}, err
	}
	if result, ok := s.engine.Result(assetID, epoch); ok {
		return result, nil
	}
	for _, result := range s.history.RecentConsensus(assetID, history.DefaultCapacity) {
		if result.Epoch == epoch {
			return result, nil
		}
	}
	return domain.ConsensusResult{}, domain.ErrNotFound
}

// LatestConsensus returns the most recent reconciled result for an asset.
func (s *Service) LatestConsensus(assetID string) (domain.ConsensusResult, error) {
	if err := s.checkAsset(assetID); err != nil {
		return domain.ConsensusResult{}, err
	}
	if result, ok := s.history.LatestConsensus(assetID); ok {
		return result, nil
	}
	return domain.ConsensusResult{}, domain.ErrNotFound
}

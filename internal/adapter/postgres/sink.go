package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

const persistTimeout = 5 * time.Second

// Sink persists finalized snapshots and consensus results without blocking
// the publisher. Persistence is best-effort: the in-memory history ledger
// remains the serving source, so a failed insert is logged and counted,
// not retried.
type Sink struct {
	snapshots domain.SnapshotRepository
	consensus domain.ConsensusRepository
	logger    *slog.Logger
}

func NewSink(snapshots domain.SnapshotRepository, consensus domain.ConsensusRepository, logger *slog.Logger) *Sink {
	return &Sink{snapshots: snapshots, consensus: consensus, logger: logger}
}

// PublishSnapshot implements domain.SnapshotSink.
func (s *Sink) PublishSnapshot(_ context.Context, snap domain.WindowSnapshot) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.snapshots.InsertSnapshot(ctx, snap); err != nil {
			metrics.PersistErrors.WithLabelValues("window_snapshots").Inc()
			s.logger.Error("failed to persist snapshot", "asset", snap.AssetID, "window_end", snap.WindowEnd, "error", err)
		}
	}()
}

// PublishConsensus implements domain.ConsensusSink.
func (s *Sink) PublishConsensus(_ context.Context, result domain.ConsensusResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.consensus.InsertConsensus(ctx, result); err != nil {
			metrics.PersistErrors.WithLabelValues("consensus_results").Inc()
			s.logger.Error("failed to persist consensus result", "asset", result.AssetID, "epoch", result.Epoch, "error", err)
		}
	}()
}

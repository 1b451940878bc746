package app

import (
	"context"

	"github.com/tokenpulse/oracle/internal/domain"
)

// FanoutSnapshotSink publishes a snapshot to every wrapped sink in order.
// Sinks must not block; slow consumers buffer or drop on their own.
type FanoutSnapshotSink []domain.SnapshotSink

func (f FanoutSnapshotSink) PublishSnapshot(ctx context.Context, snap domain.WindowSnapshot) {
	for _, sink := range f {
		sink.PublishSnapshot(ctx, snap)
	}
}

// FanoutConsensusSink publishes a consensus result to every wrapped sink.
type FanoutConsensusSink []domain.ConsensusSink

func (f FanoutConsensusSink) PublishConsensus(ctx context.Context, result domain.ConsensusResult) {
	for _, sink := range f {
		sink.PublishConsensus(ctx, result)
	}
}

// HistoryConsensusSink appends finalized results to the bounded ledger so
// the read API can serve past epochs. Lanes append snapshots themselves;
// consensus results only reach history through this sink.
type HistoryConsensusSink struct {
	History domain.HistoryStore
}

func (h HistoryConsensusSink) PublishConsensus(_ context.Context, result domain.ConsensusResult) {
	h.History.AppendConsensus(result)
}

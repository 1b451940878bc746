package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tokenpulse/oracle/internal/domain"
)

type ConsensusRepo struct {
	pool *pgxpool.Pool
}

func NewConsensusRepo(pool *pgxpool.Pool) *ConsensusRepo {
	return &ConsensusRepo{pool: pool}
}

// InsertConsensus stores a finalized result. Results are immutable, so a
// duplicate (asset, epoch) insert is a no-op.
func (r *ConsensusRepo) InsertConsensus(ctx context.Context, result domain.ConsensusResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consensus_results
			(asset_id, epoch, score, confidence, participating_nodes, rejected_outliers, quorum_met)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_id, epoch) DO NOTHING`,
		result.AssetID, result.Epoch, result.Score, result.Confidence,
		result.ParticipatingNodes, result.RejectedOutliers, result.QuorumMet,
	)
	if err != nil {
		return fmt.Errorf("failed to insert consensus result: %w", err)
	}
	return nil
}

func (r *ConsensusRepo) GetConsensus(ctx context.Context, assetID string, epoch int64) (*domain.ConsensusResult, error) {
	var result domain.ConsensusResult
	err := r.pool.QueryRow(ctx, `
		SELECT asset_id, epoch, score, confidence, participating_nodes, rejected_outliers, quorum_met
		FROM consensus_results
		WHERE asset_id = $1 AND epoch = $2`,
		assetID, epoch,
	).Scan(
		&result.AssetID, &result.Epoch, &result.Score, &result.Confidence,
		&result.ParticipatingNodes, &result.RejectedOutliers, &result.QuorumMet,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consensus result: %w", err)
	}
	return &result, nil
}

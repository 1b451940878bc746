package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tokenpulse/oracle/internal/domain"
)

type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// InsertSnapshot stores a finalized snapshot. Snapshots are immutable, so
// a duplicate (asset, window_end) insert is a no-op.
func (r *SnapshotRepo) InsertSnapshot(ctx context.Context, snap domain.WindowSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO window_snapshots
			(asset_id, window_start, window_end, score, label, confidence,
			 sample_size, bullish_count, neutral_count, bearish_count, avg_engagement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (asset_id, window_end) DO NOTHING`,
		snap.AssetID, snap.WindowStart, snap.WindowEnd, snap.Score, string(snap.Label),
		snap.Confidence, snap.SampleSize, snap.BullishCount, snap.NeutralCount,
		snap.BearishCount, snap.AvgEngagement,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the snapshots for an asset whose window end falls
// in [from, to], oldest first.
func (r *SnapshotRepo) ListSnapshots(ctx context.Context, assetID string, from, to time.Time) ([]domain.WindowSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT asset_id, window_start, window_end, score, label, confidence,
		       sample_size, bullish_count, neutral_count, bearish_count, avg_engagement
		FROM window_snapshots
		WHERE asset_id = $1 AND window_end >= $2 AND window_end <= $3
		ORDER BY window_end ASC`,
		assetID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.WindowSnapshot
	for rows.Next() {
		var (
			snap  domain.WindowSnapshot
			label string
		)
		if err := rows.Scan(
			&snap.AssetID, &snap.WindowStart, &snap.WindowEnd, &snap.Score, &label,
			&snap.Confidence, &snap.SampleSize, &snap.BullishCount, &snap.NeutralCount,
			&snap.BearishCount, &snap.AvgEngagement,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.Label = domain.Label(label)
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}
	return snapshots, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

// SnapshotCache stores the latest snapshot per asset under a TTL. All
// operations run through a circuit breaker so a dead Redis degrades reads
// to the in-memory history instead of stalling every request.
type SnapshotCache struct {
	rdb     goredis.Cmdable
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *slog.Logger
}

func NewSnapshotCache(rdb goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	settings := gobreaker.Settings{
		Name:    "snapshot-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			metrics.CacheBreakerState.Set(breakerStateValue(to))
		},
	}
	return &SnapshotCache{
		rdb:     rdb,
		breaker: gobreaker.NewCircuitBreaker(settings),
		ttl:     ttl,
		logger:  logger,
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func snapshotKey(assetID string) string {
	return "snapshot:latest:" + assetID
}

// PublishSnapshot implements domain.SnapshotSink. Cache writes are
// best-effort; a failure is logged and the breaker counts it.
func (c *SnapshotCache) PublishSnapshot(ctx context.Context, snap domain.WindowSnapshot) {
	encoded, err := json.Marshal(snap)
	if err != nil {
		c.logger.Error("failed to marshal snapshot for cache", "asset", snap.AssetID, "error", err)
		return
	}

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.rdb.Set(ctx, snapshotKey(snap.AssetID), encoded, c.ttl).Err()
	})
	if err != nil {
		c.logger.Warn("failed to cache snapshot", "asset", snap.AssetID, "error", err)
	}
}

// Latest implements the service's read-through. A missing key returns
// (nil, nil); transport and breaker failures return an error.
func (c *SnapshotCache) Latest(ctx context.Context, assetID string) (*domain.WindowSnapshot, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		data, err := c.rdb.Get(ctx, snapshotKey(assetID)).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot cache read failed: %w", err)
	}
	if v == nil {
		metrics.SnapshotCacheMisses.Inc()
		return nil, nil
	}

	var snap domain.WindowSnapshot
	if err := json.Unmarshal(v.([]byte), &snap); err != nil {
		metrics.SnapshotCacheMisses.Inc()
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}
	metrics.SnapshotCacheHits.Inc()
	return &snap, nil
}

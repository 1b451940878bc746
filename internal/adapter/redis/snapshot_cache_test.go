package redis

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpulse/oracle/internal/domain"
)

// unreachableClient returns a client pointed at a port nothing listens on,
// so every command fails fast with a connection error.
func unreachableClient(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     100 * time.Millisecond,
		ReadTimeout:     100 * time.Millisecond,
		WriteTimeout:    100 * time.Millisecond,
		MaxRetries:      -1,
		PoolSize:        1,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Second,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-redis-url")
	require.Error(t, err)
}

func TestSnapshotCache_ReadFailureReturnsError(t *testing.T) {
	cache := NewSnapshotCache(unreachableClient(t), time.Minute, slog.Default())

	_, err := cache.Latest(context.Background(), "doge")
	require.Error(t, err)
}

func TestSnapshotCache_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	cache := NewSnapshotCache(unreachableClient(t), time.Minute, slog.Default())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, _ = cache.Latest(ctx, "doge")
	}

	_, err := cache.Latest(ctx, "doge")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "expected open breaker, got: %v", err)
}

func TestSnapshotCache_PublishFailureDoesNotPanic(t *testing.T) {
	cache := NewSnapshotCache(unreachableClient(t), time.Minute, slog.Default())

	// Best-effort write; must swallow the transport error.
	cache.PublishSnapshot(context.Background(), domain.WindowSnapshot{AssetID: "doge", Score: 70})
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "snapshot:latest:doge", snapshotKey("doge"))
}

func TestBreakerStateValues(t *testing.T) {
	assert.Equal(t, 0.0, breakerStateValue(gobreaker.StateClosed))
	assert.Equal(t, 1.0, breakerStateValue(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, breakerStateValue(gobreaker.StateOpen))
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/tokenpulse/oracle/internal/adapter/httpserver"
	"github.com/tokenpulse/oracle/internal/adapter/postgres"
	redisadapter "github.com/tokenpulse/oracle/internal/adapter/redis"
	"github.com/tokenpulse/oracle/internal/app"
	"github.com/tokenpulse/oracle/internal/classify"
	"github.com/tokenpulse/oracle/internal/consensus"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/history"
	"github.com/tokenpulse/oracle/internal/ingest"
	"github.com/tokenpulse/oracle/internal/platform/config"
	"github.com/tokenpulse/oracle/internal/platform/logging"
	"github.com/tokenpulse/oracle/internal/platform/retry"
	"github.com/tokenpulse/oracle/internal/websocket"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redisadapter.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server, svc *app.Service, hub *websocket.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		svc.Stop()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat, cfg.NodeID)
	slog.Info("Oracle starting", "env", cfg.AppEnv, "node_id", cfg.NodeID, "port", cfg.Port)

	assets := cfg.AssetList()
	historyStore := history.NewStore(history.DefaultCapacity)
	hub := websocket.NewHub(slog.Default())

	snapshotSinks := app.FanoutSnapshotSink{hub}
	consensusSinks := app.FanoutConsensusSink{
		app.HistoryConsensusSink{History: historyStore},
		hub,
	}
	var healthChecks []httpserver.HealthCheck
	var cache app.SnapshotCache

	if cfg.DatabaseURL != "" {
		pool := setupDB(cfg)
		defer pool.Close()

		pgSink := postgres.NewSink(postgres.NewSnapshotRepo(pool), postgres.NewConsensusRepo(pool), slog.Default())
		snapshotSinks = append(snapshotSinks, pgSink)
		consensusSinks = append(consensusSinks, pgSink)
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "postgres", Check: pool.Ping})
	}

	if cfg.RedisURL != "" {
		redisClient := setupRedis(cfg)
		defer func() { _ = redisClient.Close() }()

		snapshotCache := redisadapter.NewSnapshotCache(redisClient, cfg.SnapshotCacheTTL, slog.Default())
		snapshotSinks = append(snapshotSinks, snapshotCache)
		cache = snapshotCache
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	engine := consensus.NewEngine(clock, cfg.EpochLength, cfg.EpochGrace, consensusSinks)
	lanes := app.NewLanes(assets, historyStore, snapshotSinks, slog.Default())
	ticker := app.NewWindowTicker(lanes, clock, cfg.WindowSize)

	classifier := classify.NewClassifier()
	filter := ingest.NewFilter(assets)
	dispatcher := ingest.NewDispatcher(classifier, filter, lanes, cfg.ClassifyWorkers, slog.Default())

	// The simulated collector keeps the pipeline fed until a live feed
	// is wired in. Fetches retry transient failures with backoff.
	collector := ingest.WithRetry(
		ingest.NewSimulatedCollector(assets, 5, clock, time.Now().UnixNano()),
		retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   time.Second,
			RateLimitBackoff: 30 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Collector fetch retry", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	)
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	poller := ingest.NewPoller([]domain.Collector{collector}, dispatcher, clock, cfg.PollInterval, limiter, slog.Default())

	svc := app.NewService(app.Deps{
		NodeID:     cfg.NodeID,
		Assets:     assets,
		History:    historyStore,
		Lanes:      lanes,
		Engine:     engine,
		Dispatcher: dispatcher,
		Poller:     poller,
		Ticker:     ticker,
		Cache:      cache,
		Clock:      clock,
		Logger:     slog.Default(),
	})
	svc.Start(context.Background())

	srv := httpserver.NewServer(cfg, svc, hub, healthChecks)
	done := runGracefulShutdown(srv, svc, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

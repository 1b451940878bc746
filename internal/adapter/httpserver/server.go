// Package httpserver exposes the oracle's read API, the node submission
// endpoint and the streaming WebSocket endpoint over Echo.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tokenpulse/oracle/internal/app"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/platform/config"
)

type appService interface {
	Assets() []string
	Latest(ctx context.Context, assetID string) (domain.WindowSnapshot, error)
	History(assetID string, n int) ([]domain.WindowSnapshot, error)
	HistorySince(assetID string, since time.Time) ([]domain.WindowSnapshot, error)
	Trend(assetID string, lookback int) (domain.TrendResult, error)
	Summary(ctx context.Context) []app.AssetSummary
	SubmitScore(sub domain.NodeSubmission) error
	Consensus(assetID string, epoch int64) (domain.ConsensusResult, error)
	LatestConsensus(assetID string) (domain.ConsensusResult, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService
	hub streamHub

	healthChecks []HealthCheck
	startTime    time.Time
	wsConns      atomic.Int64
}

func NewServer(cfg *config.Config, service appService, hub streamHub, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          service,
		hub:          hub,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

package httpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tokenpulse/oracle/internal/app"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/platform/config"
	apperrors "github.com/tokenpulse/oracle/internal/platform/errors"
)

// --- Mock implementations ---

type mockAppService struct {
	assetsFn          func() []string
	latestFn          func(ctx context.Context, assetID string) (domain.WindowSnapshot, error)
	historyFn         func(assetID string, n int) ([]domain.WindowSnapshot, error)
	historySinceFn    func(assetID string, since time.Time) ([]domain.WindowSnapshot, error)
	trendFn           func(assetID string, lookback int) (domain.TrendResult, error)
	summaryFn         func(ctx context.Context) []app.AssetSummary
	submitScoreFn     func(sub domain.NodeSubmission) error
	consensusFn       func(assetID string, epoch int64) (domain.ConsensusResult, error)
	latestConsensusFn func(assetID string) (domain.ConsensusResult, error)
}

func (m *mockAppService) Assets() []string {
	if m.assetsFn != nil {
		return m.assetsFn()
	}
	return []string{"btc", "eth"}
}

func (m *mockAppService) Latest(ctx context.Context, assetID string) (domain.WindowSnapshot, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, assetID)
	}
	return domain.WindowSnapshot{}, errors.New("not implemented")
}

func (m *mockAppService) History(assetID string, n int) ([]domain.WindowSnapshot, error) {
	if m.historyFn != nil {
		return m.historyFn(assetID, n)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) HistorySince(assetID string, since time.Time) ([]domain.WindowSnapshot, error) {
	if m.historySinceFn != nil {
		return m.historySinceFn(assetID, since)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Trend(assetID string, lookback int) (domain.TrendResult, error) {
	if m.trendFn != nil {
		return m.trendFn(assetID, lookback)
	}
	return domain.TrendResult{}, errors.New("not implemented")
}

func (m *mockAppService) Summary(ctx context.Context) []app.AssetSummary {
	if m.summaryFn != nil {
		return m.summaryFn(ctx)
	}
	return nil
}

func (m *mockAppService) SubmitScore(sub domain.NodeSubmission) error {
	if m.submitScoreFn != nil {
		return m.submitScoreFn(sub)
	}
	return nil
}

func (m *mockAppService) Consensus(assetID string, epoch int64) (domain.ConsensusResult, error) {
	if m.consensusFn != nil {
		return m.consensusFn(assetID, epoch)
	}
	return domain.ConsensusResult{}, errors.New("not implemented")
}

func (m *mockAppService) LatestConsensus(assetID string) (domain.ConsensusResult, error) {
	if m.latestConsensusFn != nil {
		return m.latestConsensusFn(assetID)
	}
	return domain.ConsensusResult{}, errors.New("not implemented")
}

// --- Test helpers ---

func newTestServer(t *testing.T, service appService, opts ...func(*Server)) *Server {
	t.Helper()

	e := echo.New()

	srv := &Server{
		echo: e,
		config: &config.Config{
			Port:                    "8080",
			SubmissionRatePerSecond: 1000,
			SubmissionBurst:         1000,
			MaxWebSocketConnections: 100,
		},
		app:       service,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withHub(hub streamHub) func(*Server) {
	return func(s *Server) {
		s.hub = hub
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

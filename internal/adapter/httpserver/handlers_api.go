package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tokenpulse/oracle/internal/domain"
	apperrors "github.com/tokenpulse/oracle/internal/platform/errors"
)

const maxHistoryLimit = 500

func (s *Server) registerAPIRoutes() {
	submissionLimiter := newRateLimiter(s.config.SubmissionRatePerSecond, s.config.SubmissionBurst)

	s.echo.GET("/api/assets", s.handleAssets)
	s.echo.GET("/api/summary", s.handleSummary)
	s.echo.GET("/api/assets/:asset/latest", s.handleLatest)
	s.echo.GET("/api/assets/:asset/history", s.handleHistory)
	s.echo.GET("/api/assets/:asset/trend", s.handleTrend)
	s.echo.GET("/api/assets/:asset/consensus", s.handleLatestConsensus)
	s.echo.GET("/api/assets/:asset/consensus/:epoch", s.handleConsensus)
	s.echo.POST("/api/submissions", s.handleSubmission, submissionLimiter)
}

func (s *Server) handleAssets(c echo.Context) error {
	if err := c.JSON(http.StatusOK, map[string]any{"assets": s.app.Assets()}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSummary(c echo.Context) error {
	summaries := s.app.Summary(c.Request().Context())
	if err := c.JSON(http.StatusOK, map[string]any{"assets": summaries}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLatest(c echo.Context) error {
	assetID := c.Param("asset")

	snap, err := s.app.Latest(c.Request().Context(), assetID)
	if err != nil {
		return mapDomainError(err, assetID)
	}

	if err := c.JSON(http.StatusOK, snap); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleHistory(c echo.Context) error {
	assetID := c.Param("asset")

	var (
		snapshots []domain.WindowSnapshot
		err       error
	)
	if sinceStr := c.QueryParam("since"); sinceStr != "" {
		since, parseErr := time.Parse(time.RFC3339, sinceStr)
		if parseErr != nil {
			return apperrors.ValidationError("since must be RFC 3339").WithField("since", sinceStr)
		}
		snapshots, err = s.app.HistorySince(assetID, since)
	} else {
		limit := maxHistoryLimit
		if limitStr := c.QueryParam("limit"); limitStr != "" {
			limit, err = strconv.Atoi(limitStr)
			if err != nil || limit <= 0 {
				return apperrors.ValidationError("limit must be a positive integer").WithField("limit", limitStr)
			}
			if limit > maxHistoryLimit {
				limit = maxHistoryLimit
			}
		}
		snapshots, err = s.app.History(assetID, limit)
	}
	if err != nil {
		return mapDomainError(err, assetID)
	}

	response := map[string]any{
		"asset_id":  assetID,
		"snapshots": snapshots,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleTrend(c echo.Context) error {
	assetID := c.Param("asset")

	lookback := 0
	if lookbackStr := c.QueryParam("lookback"); lookbackStr != "" {
		var err error
		lookback, err = strconv.Atoi(lookbackStr)
		if err != nil || lookback <= 0 {
			return apperrors.ValidationError("lookback must be a positive integer").WithField("lookback", lookbackStr)
		}
	}

	trend, err := s.app.Trend(assetID, lookback)
	if err != nil {
		return mapDomainError(err, assetID)
	}

	if err := c.JSON(http.StatusOK, trend); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLatestConsensus(c echo.Context) error {
	assetID := c.Param("asset")

	result, err := s.app.LatestConsensus(assetID)
	if err != nil {
		return mapDomainError(err, assetID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleConsensus(c echo.Context) error {
	assetID := c.Param("asset")

	epochStr := c.Param("epoch")
	epoch, err := strconv.ParseInt(epochStr, 10, 64)
	if err != nil || epoch < 0 {
		return apperrors.ValidationError("epoch must be a non-negative integer").WithField("epoch", epochStr)
	}

	result, err := s.app.Consensus(assetID, epoch)
	if err != nil {
		return mapDomainError(err, assetID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSubmission(c echo.Context) error {
	var sub domain.NodeSubmission
	if err := c.Bind(&sub); err != nil {
		return apperrors.ValidationError("invalid submission payload")
	}
	if sub.NodeID == "" {
		return apperrors.ValidationError("node_id is required")
	}
	if sub.AssetID == "" {
		return apperrors.ValidationError("asset_id is required")
	}

	if err := s.app.SubmitScore(sub); err != nil {
		return mapDomainError(err, sub.AssetID)
	}

	response := map[string]any{
		"status": "accepted",
		"asset":  sub.AssetID,
		"epoch":  sub.Epoch,
	}
	if err := c.JSON(http.StatusAccepted, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func mapDomainError(err error, assetID string) error {
	switch {
	case errors.Is(err, domain.ErrUnknownAsset):
		return apperrors.NotFoundError("asset not tracked").WithField("asset", assetID)
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NotFoundError("no data for asset").WithField("asset", assetID)
	case errors.Is(err, domain.ErrInvalidSubmission):
		return apperrors.ValidationError("score and confidence must be within range").WithField("asset", assetID)
	case errors.Is(err, domain.ErrEpochClosed):
		return apperrors.ConflictError("epoch no longer accepts submissions").WithField("asset", assetID)
	default:
		return apperrors.InternalError("request failed", err).WithField("asset", assetID)
	}
}

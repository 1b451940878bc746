package httpserver

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/tokenpulse/oracle/internal/platform/errors"
)

// streamHub is the subscription registry behind the /ws endpoint.
type streamHub interface {
	Register(assetID string, conn *websocket.Conn) error
	Unregister(assetID string, conn *websocket.Conn)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients are other oracle nodes and dashboards, not browsers with
	// cookie credentials, so cross-origin upgrades are acceptable.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleStream(c echo.Context) error {
	assetID := c.Param("asset")
	if !slices.Contains(s.app.Assets(), assetID) {
		return apperrors.NotFoundError("asset not tracked").WithField("asset", assetID)
	}

	if s.wsConns.Load() >= int64(s.config.MaxWebSocketConnections) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "connection limit reached")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		return nil
	}

	if err := s.hub.Register(assetID, conn); err != nil {
		return nil
	}
	s.wsConns.Add(1)

	// The hub owns all writes; this loop only notices the client leaving.
	go func() {
		defer func() {
			s.hub.Unregister(assetID, conn)
			s.wsConns.Add(-1)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

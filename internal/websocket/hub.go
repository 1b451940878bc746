// Package websocket fans finalized snapshots and consensus results out to
// subscribed clients, one subscription set per asset.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

const maxClientsPerAsset = 100

// Event is the wire envelope pushed to clients.
type Event struct {
	Type    string `json:"type"`
	AssetID string `json:"asset_id"`
	Data    any    `json:"data"`
}

const (
	EventSnapshot  = "snapshot"
	EventConsensus = "consensus"
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	assetID string
	conn    *websocket.Conn
	errCh   chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	assetID string
	conn    *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	assetID string
	data    []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdGetClientCount struct {
	assetID string
	replyCh chan int
}

func (cmdGetClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub is the single owner of all client subscriptions. It implements both
// publish sinks, so a lane closing a window reaches every subscriber for
// that asset without blocking on any of them.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[string]map[*websocket.Conn]*clientWriter
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[string]map[*websocket.Conn]*clientWriter),
		logger:  logger,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.assetID, c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdGetClientCount:
			c.replyCh <- len(h.clients[c.assetID])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	clients, exists := h.clients[c.assetID]
	if !exists {
		clients = make(map[*websocket.Conn]*clientWriter)
		h.clients[c.assetID] = clients
	}
	if len(clients) >= maxClientsPerAsset {
		h.logger.Warn("rejecting client, asset subscription full", "asset", c.assetID, "max", maxClientsPerAsset)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients per asset (%d) reached", maxClientsPerAsset)
		return
	}
	clients[c.conn] = newClientWriter(c.conn)
	metrics.WebSocketClients.Inc()
	h.logger.Debug("client registered", "asset", c.assetID, "clients", len(clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(assetID string, conn *websocket.Conn) {
	clients, exists := h.clients[assetID]
	if !exists {
		return
	}

	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.WebSocketClients.Dec()
	if len(clients) == 0 {
		delete(h.clients, assetID)
	}
	h.logger.Debug("client unregistered", "asset", assetID, "clients", len(clients))
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	clients, exists := h.clients[c.assetID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendCh <- c.data:
		default:
			// client cannot keep up, mark for removal
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		metrics.WebSocketSlowClientsEvicted.Inc()
		h.logger.Info("disconnecting slow client", "asset", c.assetID)
		h.handleUnregister(c.assetID, conn)
	}
}

func (h *Hub) handleStop() {
	for assetID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.WebSocketClients.Dec()
		}
		delete(h.clients, assetID)
	}
}

// --- Public API ---

func (h *Hub) Register(assetID string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{assetID: assetID, conn: conn, errCh: errCh}
	return <-errCh
}

func (h *Hub) Unregister(assetID string, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{assetID: assetID, conn: conn}
}

// PublishSnapshot implements domain.SnapshotSink.
func (h *Hub) PublishSnapshot(_ context.Context, snap domain.WindowSnapshot) {
	h.broadcast(snap.AssetID, Event{Type: EventSnapshot, AssetID: snap.AssetID, Data: snap})
}

// PublishConsensus implements domain.ConsensusSink.
func (h *Hub) PublishConsensus(_ context.Context, result domain.ConsensusResult) {
	h.broadcast(result.AssetID, Event{Type: EventConsensus, AssetID: result.AssetID, Data: result})
}

func (h *Hub) broadcast(assetID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal broadcast event", "asset", assetID, "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{assetID: assetID, data: data}
}

func (h *Hub) GetClientCount(assetID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdGetClientCount{assetID: assetID, replyCh: replyCh}
	return <-replyCh
}

func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}

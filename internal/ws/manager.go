package ws

import (
	"log/slog"
	"sync"

	"github.com/mcoot/redblue/internal/metrics"
	"github.com/mcoot/redblue/internal/model"
)

// HubManager manages hubs for all games and publishes session events to them
type HubManager struct {
	hubs    map[model.GameID]*Hub
	subs    map[model.GameID]int
	mu      sync.Mutex
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger, m *metrics.Metrics) *HubManager {
	return &HubManager{
		hubs:    make(map[model.GameID]*Hub),
		subs:    make(map[model.GameID]int),
		logger:  logger.With(slog.String("component", "ws")),
		metrics: m,
	}
}

// Subscribe registers a client on its game's hub, creating the hub if needed
func (m *HubManager) Subscribe(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[client.gameID]
	if !ok {
		hub = NewHub(client.gameID, m.logger, m.metrics)
		m.hubs[client.gameID] = hub
		go hub.Run()
	}
	if !hub.Register(client) {
		return false
	}
	client.hub = hub
	m.subs[client.gameID]++
	return true
}

// Unsubscribe removes a client, dropping the hub once it has no clients left
func (m *HubManager) Unsubscribe(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[client.gameID]
	if !ok || hub != client.hub {
		return
	}
	hub.Unregister(client)
	m.subs[client.gameID]--
	if m.subs[client.gameID] <= 0 {
		hub.Close()
		delete(m.hubs, client.gameID)
		delete(m.subs, client.gameID)
	}
}

// GetHub returns the hub for a game, or nil if nobody is subscribed
func (m *HubManager) GetHub(gameID model.GameID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[gameID]
}

// Publish delivers an event to the game's subscribers. Events with no subscribers are dropped.
func (m *HubManager) Publish(ev model.Event) {
	hub := m.GetHub(ev.GameID)
	if hub == nil {
		return
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		m.logger.Error("failed to encode event",
			slog.String("game_id", string(ev.GameID)),
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	hub.Broadcast(data)
}

// CloseGame disconnects every subscriber of a game
func (m *HubManager) CloseGame(gameID model.GameID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[gameID]; ok {
		hub.Close()
		delete(m.hubs, gameID)
		delete(m.subs, gameID)
		m.logger.Info("ws hub removed", slog.String("game_id", string(gameID)))
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
		delete(m.subs, id)
	}
}

// HubCount returns the number of live hubs
func (m *HubManager) HubCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

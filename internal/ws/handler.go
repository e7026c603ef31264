package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/redblue/internal/metrics"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/auth"
)

// Authenticator validates player tokens presented on a socket
type Authenticator interface {
	ValidatePlayerToken(token string, gameID model.GameID) (*auth.PlayerIdentity, error)
}

// Presence receives the connect and disconnect signals sockets produce
type Presence interface {
	Attach(ctx context.Context, id model.GameID, role model.PlayerRole) error
	Detach(ctx context.Context, id model.GameID, role model.PlayerRole) error
	Disconnect(ctx context.Context, id model.GameID, role model.PlayerRole) error
}

// GameGetter loads a game snapshot
type GameGetter interface {
	Get(ctx context.Context, id model.GameID) (*model.Game, error)
}

// Handler upgrades ws/game/{id} requests and wires the resulting clients to their game's hub
type Handler struct {
	manager  *HubManager
	games    GameGetter
	auth     Authenticator
	presence Presence
	metrics  *metrics.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new Handler. An empty allowedOrigin accepts any Origin.
func NewHandler(manager *HubManager, games GameGetter, authenticator Authenticator, presence Presence, m *metrics.Metrics, logger *slog.Logger, allowedOrigin string) *Handler {
	h := &Handler{
		manager:  manager,
		games:    games,
		auth:     authenticator,
		presence: presence,
		metrics:  m,
		logger:   logger.With(slog.String("component", "ws")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigin),
	}
	return h
}

func originChecker(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowed == "" {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return origin == allowed || u.Host == allowed
	}
}

// ServeHTTP handles the upgrade. The game must exist; a bad token is refused before upgrading.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])

	game, err := h.games.Get(r.Context(), gameID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var identity *auth.PlayerIdentity
	if token := r.URL.Query().Get("token"); token != "" {
		identity, err = h.auth.ValidatePlayerToken(token, gameID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		h.logger.Debug("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &Client{
		handler:     h,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		gameID:      gameID,
		connectedAt: time.Now(),
	}
	if identity != nil {
		client.role = identity.Role
		client.playerName = identity.PlayerName
	}
	client.logger = h.logger.With(
		slog.String("game_id", string(gameID)),
		slog.String("role", client.roleLabel()),
	)

	// Queued before the hub can close the channel
	client.send <- encodeConnected(game.State, client.role)

	if !h.manager.Subscribe(client) {
		_ = conn.Close()
		return
	}
	h.metrics.WSConnected()

	// Attach before reading so a fast close is always counted after it
	if client.role != "" {
		if err := h.presence.Attach(context.Background(), gameID, client.role); err != nil {
			client.logger.Warn("failed to record connect", slog.String("error", err.Error()))
		}
	}

	go client.writePump()
	go client.readPump()
}

// release undoes ServeHTTP once the read side of a client ends
func (h *Handler) release(c *Client) {
	h.manager.Unsubscribe(c)
	h.metrics.WSDisconnected()
	if c.role == "" {
		return
	}
	if err := h.presence.Detach(context.Background(), c.gameID, c.role); err != nil {
		c.logger.Warn("failed to record disconnect", slog.String("error", err.Error()))
	}
}

func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindAuth:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

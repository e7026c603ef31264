package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/redblue/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one WebSocket connection subscribed to a game.
// role is empty for observers.
type Client struct {
	hub         *Hub
	handler     *Handler
	conn        *websocket.Conn
	send        chan []byte
	gameID      model.GameID
	role        model.PlayerRole
	playerName  string
	connectedAt time.Time
	logger      *slog.Logger
}

func (c *Client) roleLabel() string {
	if c.role == "" {
		return "observer"
	}
	return string(c.role)
}

// readPump pumps messages from the connection to the handler
func (c *Client) readPump() {
	defer func() {
		c.handler.release(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("ws read error", slog.String("error", err.Error()))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("ws message ignored - invalid json")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg ClientMessage) {
	switch {
	case msg.Type == TypeDisconnectEvent:
		c.handleDisconnect(msg)
	case msg.IsChat():
		if c.role == "" {
			return
		}
		data, err := EncodeChat(msg, c.playerName)
		if err != nil {
			return
		}
		c.hub.BroadcastExcept(data, c)
	default:
		c.logger.Debug("ws message ignored - unknown type", slog.String("type", msg.Type))
	}
}

// handleDisconnect applies an explicit leave notice, trusting the message token over the socket's
func (c *Client) handleDisconnect(msg ClientMessage) {
	role := c.role
	if msg.Token != "" {
		identity, err := c.handler.auth.ValidatePlayerToken(msg.Token, c.gameID)
		if err != nil {
			c.logger.Debug("ws disconnect_event rejected", slog.String("error", err.Error()))
			return
		}
		role = identity.Role
	}
	if role == "" {
		return
	}
	if err := c.handler.presence.Disconnect(context.Background(), c.gameID, role); err != nil {
		c.logger.Warn("failed to record disconnect",
			slog.String("role", string(role)),
			slog.String("error", err.Error()),
		)
	}
}

// writePump pumps messages from the hub to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

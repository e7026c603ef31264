package ws

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mcoot/redblue/internal/model"
)

// Client to server message types
const (
	TypeDisconnectEvent = "disconnect_event"
	TypeChatMessage     = "chat-message"
	TypeChatAgree       = "chat-agree"
	TypeChatRequest     = "chat-request"
	TypeChatDecline     = "chat-decline"
	TypeChatClose       = "chat-close"
)

// TypeConnected greets a freshly opened socket
const TypeConnected = "connected"

// MaxChatLength caps relayed chat text, in characters
const MaxChatLength = 500

type roundResolvedMessage struct {
	Type         string        `json:"type"`
	Message      string        `json:"message"`
	Round        int           `json:"round"`
	NextRound    int           `json:"next_round,omitempty"`
	Player1Score int           `json:"player1_score"`
	Player2Score int           `json:"player2_score"`
	Rounds       []model.Round `json:"rounds"`
	GameState    string        `json:"game_state"`
}

type roundStartedMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Round     int       `json:"round"`
	Deadline  time.Time `json:"deadline"`
	GameState string    `json:"game_state"`
}

type gameFinishedMessage struct {
	Type         string `json:"type"`
	GameState    string `json:"game_state"`
	Reason       string `json:"reason"`
	Message      string `json:"message"`
	Winner       string `json:"winner"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	PlayerName   string `json:"player_name,omitempty"`
}

type lobbyActiveMessage struct {
	Type        string `json:"type"`
	State       string `json:"state"`
	GameState   string `json:"game_state"`
	Message     string `json:"message"`
	Player2Name string `json:"player2_name"`
}

type presenceMessage struct {
	Type       string `json:"type"`
	GameState  string `json:"game_state"`
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
	Message    string `json:"message"`
}

type connectedMessage struct {
	Type      string `json:"type"`
	GameState string `json:"game_state"`
	Role      string `json:"role,omitempty"`
}

// EncodeEvent renders a session event as the JSON message subscribers receive
func EncodeEvent(ev model.Event) ([]byte, error) {
	var msg any
	switch p := ev.Payload.(type) {
	case model.RoundResolvedPayload:
		msg = roundResolvedMessage{
			Type:         string(ev.Type),
			Message:      fmt.Sprintf("Round %d resolved", p.Round),
			Round:        p.Round,
			NextRound:    p.NextRound,
			Player1Score: p.Player1Score,
			Player2Score: p.Player2Score,
			Rounds:       p.Rounds,
			GameState:    string(p.State),
		}
	case model.RoundStartedPayload:
		msg = roundStartedMessage{
			Type:      string(ev.Type),
			Message:   fmt.Sprintf("Round %d started", p.Round),
			Round:     p.Round,
			Deadline:  p.Deadline,
			GameState: string(model.GameStateActive),
		}
	case model.GameFinishedPayload:
		msg = gameFinishedMessage{
			Type:         string(ev.Type),
			GameState:    string(p.State),
			Reason:       string(p.Reason),
			Message:      finishedText(p),
			Winner:       string(p.Winner),
			Player1Score: p.Player1Score,
			Player2Score: p.Player2Score,
			PlayerName:   p.PlayerName,
		}
	case model.LobbyActivePayload:
		msg = lobbyActiveMessage{
			Type:        string(ev.Type),
			State:       string(p.State),
			GameState:   string(p.State),
			Message:     p.Player2Name + " joined the game",
			Player2Name: p.Player2Name,
		}
	case model.PresencePayload:
		verb := "disconnected"
		if ev.Type == model.EventResume {
			verb = "reconnected"
		}
		msg = presenceMessage{
			Type:       string(ev.Type),
			GameState:  string(p.State),
			PlayerName: p.PlayerName,
			Role:       string(p.Role),
			Message:    p.PlayerName + " " + verb,
		}
	default:
		return nil, fmt.Errorf("ws: no encoding for %s event", ev.Type)
	}
	return json.Marshal(msg)
}

func finishedText(p model.GameFinishedPayload) string {
	if p.Reason != model.FinishReasonAbandon {
		return "Game finished"
	}
	if p.PlayerName != "" {
		return "Game abandoned by " + p.PlayerName
	}
	return "Game abandoned"
}

// ClientMessage is anything a socket may send. Unknown fields are dropped.
type ClientMessage struct {
	Type       string `json:"type"`
	Token      string `json:"token,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Sender     string `json:"sender,omitempty"`
	Message    string `json:"message,omitempty"`
	Round      int    `json:"round,omitempty"`
	Accept     *bool  `json:"accept,omitempty"`
}

// IsChat reports whether the message belongs to the chat relay
func (m ClientMessage) IsChat() bool {
	switch m.Type {
	case TypeChatMessage, TypeChatAgree, TypeChatRequest, TypeChatDecline, TypeChatClose:
		return true
	}
	return false
}

// chatRelay is the re-encoded form of a chat message sent to the other subscribers
type chatRelay struct {
	Type       string `json:"type"`
	Sender     string `json:"sender,omitempty"`
	Message    string `json:"message,omitempty"`
	Round      int    `json:"round,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Accept     *bool  `json:"accept,omitempty"`
}

// EncodeChat re-encodes a chat message. sender, when set, replaces whatever the client claimed.
func EncodeChat(m ClientMessage, sender string) ([]byte, error) {
	relay := chatRelay{
		Type:       m.Type,
		Sender:     m.Sender,
		Message:    truncate(strings.TrimSpace(m.Message), MaxChatLength),
		Round:      m.Round,
		PlayerName: m.PlayerName,
		Accept:     m.Accept,
	}
	if sender != "" {
		relay.Sender = sender
	}
	return json.Marshal(relay)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func encodeConnected(state model.GameState, role model.PlayerRole) []byte {
	data, _ := json.Marshal(connectedMessage{
		Type:      TypeConnected,
		GameState: string(state),
		Role:      string(role),
	})
	return data
}

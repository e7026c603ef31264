package ws

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/redblue/internal/model"
)

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestEncodeRoundResolved(t *testing.T) {
	data, err := EncodeEvent(model.Event{
		Type:   model.EventRoundResolved,
		GameID: "game-1",
		Payload: model.RoundResolvedPayload{
			Round:        1,
			NextRound:    2,
			Player1Score: -6,
			Player2Score: 6,
			Rounds:       []model.Round{{Number: 1, Player1Choice: model.ChoiceRed, Player2Choice: model.ChoiceBlue}},
			State:        model.GameStateActive,
		},
	})
	require.NoError(t, err)

	m := decode(t, data)
	assert.Equal(t, "round_resolved", m["type"])
	assert.Equal(t, 2.0, m["next_round"])
	assert.Equal(t, -6.0, m["player1_score"])
	assert.Equal(t, 6.0, m["player2_score"])
	assert.Equal(t, "active", m["game_state"])
	rounds := m["rounds"].([]any)
	require.Len(t, rounds, 1)
	assert.Equal(t, "RED", rounds[0].(map[string]any)["player1_choice"])
}

func TestEncodeLastRoundOmitsNextRound(t *testing.T) {
	data, err := EncodeEvent(model.Event{
		Type:    model.EventRoundResolved,
		Payload: model.RoundResolvedPayload{Round: 10, State: model.GameStateFinished},
	})
	require.NoError(t, err)

	m := decode(t, data)
	_, ok := m["next_round"]
	assert.False(t, ok)
	assert.Equal(t, "finished", m["game_state"])
}

func TestEncodeGameFinished(t *testing.T) {
	tests := []struct {
		name    string
		payload model.GameFinishedPayload
		message string
	}{
		{
			name:    "finished normally",
			payload: model.GameFinishedPayload{Reason: model.FinishReasonFinish, State: model.GameStateFinished, Winner: model.OutcomeDraw},
			message: "Game finished",
		},
		{
			name:    "surrendered",
			payload: model.GameFinishedPayload{Reason: model.FinishReasonAbandon, State: model.GameStateFinished, Winner: model.OutcomePlayer2, PlayerName: "Alice"},
			message: "Game abandoned by Alice",
		},
		{
			name:    "abandoned without name",
			payload: model.GameFinishedPayload{Reason: model.FinishReasonAbandon, State: model.GameStateAbandoned},
			message: "Game abandoned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(model.Event{Type: model.EventGameFinished, Payload: tt.payload})
			require.NoError(t, err)

			m := decode(t, data)
			assert.Equal(t, "game_finished", m["type"])
			assert.Equal(t, tt.message, m["message"])
			assert.Equal(t, string(tt.payload.Reason), m["reason"])
			assert.Equal(t, string(tt.payload.State), m["game_state"])
		})
	}
}

func TestEncodePresence(t *testing.T) {
	data, err := EncodeEvent(model.Event{
		Type:    model.EventDisconnect,
		Payload: model.PresencePayload{PlayerName: "Bob", Role: model.RolePlayer2, State: model.GameStatePause},
	})
	require.NoError(t, err)
	m := decode(t, data)
	assert.Equal(t, "disconnect", m["type"])
	assert.Equal(t, "pause", m["game_state"])
	assert.Equal(t, "Bob disconnected", m["message"])

	data, err = EncodeEvent(model.Event{
		Type:    model.EventResume,
		Payload: model.PresencePayload{PlayerName: "Bob", Role: model.RolePlayer2, State: model.GameStateActive},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob reconnected", decode(t, data)["message"])
}

func TestEncodeRoundStarted(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC)
	data, err := EncodeEvent(model.Event{
		Type:    model.EventRoundStarted,
		Payload: model.RoundStartedPayload{Round: 3, Deadline: deadline},
	})
	require.NoError(t, err)

	m := decode(t, data)
	assert.Equal(t, 3.0, m["round"])
	assert.Equal(t, "2024-01-01T12:01:00Z", m["deadline"])
}

func TestEncodeUnknownPayload(t *testing.T) {
	_, err := EncodeEvent(model.Event{Type: "mystery", Payload: 42})
	assert.Error(t, err)
}

func TestEncodeChat(t *testing.T) {
	accept := true
	data, err := EncodeChat(ClientMessage{
		Type:    TypeChatAgree,
		Sender:  "Mallory",
		Message: "  sure  ",
		Token:   "secret",
		Accept:  &accept,
	}, "Alice")
	require.NoError(t, err)

	m := decode(t, data)
	assert.Equal(t, "chat-agree", m["type"])
	assert.Equal(t, "Alice", m["sender"])
	assert.Equal(t, "sure", m["message"])
	assert.Equal(t, true, m["accept"])
	_, leaked := m["token"]
	assert.False(t, leaked)
}

func TestEncodeChatTruncates(t *testing.T) {
	data, err := EncodeChat(ClientMessage{Type: TypeChatMessage, Message: strings.Repeat("é", MaxChatLength+20)}, "Alice")
	require.NoError(t, err)

	m := decode(t, data)
	assert.Equal(t, MaxChatLength, len([]rune(m["message"].(string))))
}

func TestIsChat(t *testing.T) {
	for _, typ := range []string{TypeChatMessage, TypeChatAgree, TypeChatRequest, TypeChatDecline, TypeChatClose} {
		assert.True(t, ClientMessage{Type: typ}.IsChat(), typ)
	}
	assert.False(t, ClientMessage{Type: TypeDisconnectEvent}.IsChat())
	assert.False(t, ClientMessage{Type: "chat_message"}.IsChat())
}

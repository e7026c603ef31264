package response

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/redblue/internal/model"
)

func gameWithOpenRound() *model.Game {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	resolved := created.Add(30 * time.Second)
	return &model.Game{
		ID:           "game-1",
		Code:         "ABC234",
		State:        model.GameStateActive,
		Player1:      &model.Player{Name: "Alice", Connected: true},
		Player2:      &model.Player{Name: "Bob", Connected: true},
		CurrentRound: 2,
		Player1Score: -6,
		Player2Score: 6,
		Rounds: []model.Round{
			{Number: 1, Player1Choice: model.ChoiceRed, Player2Choice: model.ChoiceBlue, Player1Score: -6, Player2Score: 6, CreatedAt: created, ResolvedAt: &resolved, ResolvedBy: model.ResolvedByChoices},
			{Number: 2, Player1Choice: model.ChoiceBlue, CreatedAt: resolved},
		},
		CreatedAt: created,
	}
}

func TestOpenRoundChoicesAreHiddenFromOpponent(t *testing.T) {
	g := gameWithOpenRound()

	asBob := GameFromModel(g, model.RolePlayer2)
	assert.Equal(t, "", asBob.Rounds[1].Player1Choice)
	assert.True(t, asBob.Rounds[1].Player1Chosen)
	assert.False(t, asBob.Rounds[1].Player2Chosen)

	asAlice := GameFromModel(g, model.RolePlayer1)
	assert.Equal(t, "BLUE", asAlice.Rounds[1].Player1Choice)

	observer := GameFromModel(g, "")
	assert.Equal(t, "", observer.Rounds[1].Player1Choice)
}

func TestResolvedRoundChoicesAreVisible(t *testing.T) {
	g := gameWithOpenRound()

	observer := GameFromModel(g, "")
	assert.Equal(t, "RED", observer.Rounds[0].Player1Choice)
	assert.Equal(t, "BLUE", observer.Rounds[0].Player2Choice)
	assert.Equal(t, "choices", observer.Rounds[0].ResolvedBy)
}

func TestGameFromModelWaiting(t *testing.T) {
	disconnected := time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC)
	g := &model.Game{
		ID:         "game-1",
		Code:       "ABC234",
		State:      model.GameStateWaiting,
		Visibility: model.VisibilityPublic,
		Player1:    &model.Player{Name: "Alice", DisconnectedAt: &disconnected},
	}

	out := GameFromModel(g, model.RolePlayer1)
	assert.Equal(t, "waiting", out.GameState)
	assert.Equal(t, "public", out.Visibility)
	assert.Equal(t, "Alice", out.Player1Name)
	assert.Empty(t, out.Player2Name)
	assert.Equal(t, &disconnected, out.Player1DisconnectedAt)
	assert.NotNil(t, out.Rounds)
	assert.Equal(t, "player1", out.Role)
}

func TestPublicGamesFromModel(t *testing.T) {
	out := PublicGamesFromModel([]*model.Game{{ID: "game-1", Code: "ABC234", Player1: &model.Player{Name: "Alice"}}})
	assert.Equal(t, []PublicGame{{GameID: "game-1", Code: "ABC234", Player1Name: "Alice"}}, out.Games)

	assert.NotNil(t, PublicGamesFromModel(nil).Games)
}

func TestJSONIsNotCacheable(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusCreated, HealthResponse{Status: "ok"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

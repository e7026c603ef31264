// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/storage"
)

// Suite runs the storage contract against the backend returned by NewStorage
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

// NewGame returns a waiting game fixture
func NewGame(id model.GameID, code model.GameCode) *model.Game {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Game{
		ID:         id,
		Code:       code,
		Visibility: model.VisibilityPrivate,
		State:      model.GameStateWaiting,
		Player1:    &model.Player{Name: "Alice", Connected: true},
		Rounds:     []model.Round{},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func (s *Suite) TestSaveAndGetGame() {
	game := NewGame("game-1", "ABC234")

	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(game.ID, retrieved.ID)
	s.Equal(game.Code, retrieved.Code)
	s.Equal("Alice", retrieved.Player1.Name)
	s.Nil(retrieved.Player2)
	s.True(game.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestSavedGameIsNotAliased() {
	game := NewGame("game-1", "ABC234")
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))

	game.Player1.Name = "Mallory"

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal("Alice", retrieved.Player1.Name)
}

func (s *Suite) TestRoundLedgerRoundTrips() {
	game := NewGame("game-1", "ABC234")
	resolved := game.CreatedAt.Add(30 * time.Second)
	game.State = model.GameStateActive
	game.Player2 = &model.Player{Name: "Bob"}
	game.CurrentRound = 2
	game.Rounds = []model.Round{
		{Number: 1, Player1Choice: model.ChoiceRed, Player2Choice: model.ChoiceBlue, Player1Score: -6, Player2Score: 6,
			CreatedAt: game.CreatedAt, ResolvedAt: &resolved, ResolvedBy: model.ResolvedByChoices},
		{Number: 2, CreatedAt: resolved},
	}
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(retrieved.Rounds, 2)
	s.Equal(model.ChoiceBlue, retrieved.Rounds[0].Player2Choice)
	s.Equal(model.RoundResolved, retrieved.Rounds[0].Status())
	s.Equal(model.RoundOpen, retrieved.Rounds[1].Status())
}

func (s *Suite) TestCodeIndex() {
	game := NewGame("game-1", "ABC234")
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))

	id, err := s.Storage.GetGameIDByCode(s.Ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), id)

	exists, err := s.Storage.CodeExists(s.Ctx, "ABC234")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.Storage.CodeExists(s.Ctx, "ZZZ999")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.Storage.GetGameIDByCode(s.Ctx, "ZZZ999")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestDeleteGameReleasesCode() {
	game := NewGame("game-1", "ABC234")
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))

	s.Require().NoError(s.Storage.DeleteGame(s.Ctx, "game-1"))

	_, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)

	exists, err := s.Storage.CodeExists(s.Ctx, "ABC234")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestDeleteMissingGameIsNoop() {
	s.NoError(s.Storage.DeleteGame(s.Ctx, "nonexistent"))
}

func (s *Suite) TestListGames() {
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, NewGame("game-1", "AAAAAA")))
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, NewGame("game-2", "BBBBBB")))

	games, err := s.Storage.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Len(games, 2)

	s.Require().NoError(s.Storage.DeleteGame(s.Ctx, "game-1"))
	games, err = s.Storage.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(model.GameID("game-2"), games[0].ID)
}

package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/redblue/internal/dependencies/mocks"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/scoring"
	"github.com/mcoot/redblue/internal/services/timers"
	"github.com/mcoot/redblue/internal/storage/memory"
	"github.com/mcoot/redblue/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	timers     *timers.Registry
	publisher  *mocks.Publisher
	archive    *mocks.Archiver
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.timers = timers.New(s.clock)
	s.publisher = mocks.NewPublisher()
	s.archive = mocks.NewArchiver()
	s.controller = NewController(s.storage, scoring.New(), s.timers, s.clock, s.publisher, s.archive, nil, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

// createActiveGame stores a game with both seats filled and round 1 open
func (s *ControllerSuite) createActiveGame() *model.Game {
	now := s.clock.Now()
	game := &model.Game{
		ID:         "game-1",
		Code:       "ABC234",
		Visibility: model.VisibilityPrivate,
		State:      model.GameStateActive,
		Player1:    &model.Player{Name: "Alice", Connected: true},
		Player2:    &model.Player{Name: "Bob", Connected: true},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	OpenRound(game, now)
	s.Require().NoError(s.controller.Create(s.ctx, game))
	s.publisher.Reset()
	return game
}

func (s *ControllerSuite) play(round int, c1, c2 string) *model.Game {
	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, round, c1)
	s.Require().NoError(err)
	game, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer2, round, c2)
	s.Require().NoError(err)
	return game
}

// Create tests

func (s *ControllerSuite) TestCreateArmsRoundTimer() {
	s.createActiveGame()
	s.True(s.timers.Pending("game-1", timers.KindRound))
}

func (s *ControllerSuite) TestCreateWaitingGameArmsNothing() {
	game := &model.Game{ID: "game-2", Code: "XYZ234", State: model.GameStateWaiting, Player1: &model.Player{Name: "Alice"}}
	s.Require().NoError(s.controller.Create(s.ctx, game))
	s.Equal(0, s.timers.Len())
}

// SubmitChoice tests

func (s *ControllerSuite) TestFirstChoiceIsRecordedWithoutResolving() {
	s.createActiveGame()

	game, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 1, "red")
	s.Require().NoError(err)

	s.Equal(model.ChoiceRed, game.Rounds[0].Player1Choice)
	s.Equal(model.RoundOpen, game.Rounds[0].Status())
	s.Equal(1, game.CurrentRound)
	s.Empty(s.publisher.Events())
}

func (s *ControllerSuite) TestBothChoicesResolveAndAdvance() {
	s.createActiveGame()

	game := s.play(1, "RED", "BLUE")

	s.Equal(-6, game.Player1Score)
	s.Equal(6, game.Player2Score)
	s.Equal(2, game.CurrentRound)
	s.Require().Len(game.Rounds, 2)
	s.Equal(model.ResolvedByChoices, game.Rounds[0].ResolvedBy)
	s.Equal(-6, game.Rounds[0].Player1Score)
	s.Equal(s.clock.Now(), game.Rounds[1].CreatedAt)

	s.Equal([]model.EventType{model.EventRoundResolved, model.EventRoundStarted}, s.publisher.Types())
	payload := s.publisher.Events()[0].Payload.(model.RoundResolvedPayload)
	s.Equal(1, payload.Round)
	s.Equal(2, payload.NextRound)
	s.Equal(-6, payload.Player1Score)
	s.Len(payload.Rounds, 1)
}

func (s *ControllerSuite) TestDuplicateChoiceIsRejected() {
	s.createActiveGame()
	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 1, "RED")
	s.Require().NoError(err)

	_, err = s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 1, "BLUE")
	s.ErrorIs(err, model.ErrDuplicateChoice)

	game, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(model.ChoiceRed, game.Rounds[0].Player1Choice)
	s.Equal(0, game.Player1Score)
}

func (s *ControllerSuite) TestWrongRoundIsRejected() {
	s.createActiveGame()
	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 2, "RED")
	s.ErrorIs(err, model.ErrInvalidRound)
}

func (s *ControllerSuite) TestInvalidChoiceIsRejected() {
	s.createActiveGame()
	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 1, "GREEN")
	s.ErrorIs(err, model.ErrInvalidChoice)
}

func (s *ControllerSuite) TestChoiceOnInactiveGameIsRejected() {
	game := &model.Game{ID: "game-1", Code: "ABC234", State: model.GameStateWaiting, Player1: &model.Player{Name: "Alice"}}
	s.Require().NoError(s.controller.Create(s.ctx, game))

	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 1, "RED")
	s.ErrorIs(err, model.ErrSessionNotActive)
}

func (s *ControllerSuite) TestChoiceOnMissingGame() {
	_, err := s.controller.SubmitChoice(s.ctx, "nope", model.RolePlayer1, 1, "RED")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestDoubledRound() {
	s.createActiveGame()
	for r := 1; r <= 8; r++ {
		s.play(r, "BLUE", "RED")
	}

	game := s.play(9, "RED", "RED")

	s.Equal(6, game.Rounds[8].Player1Score)
	s.Equal(6, game.Rounds[8].Player2Score)
}

func (s *ControllerSuite) TestTenthRoundFinishesGame() {
	s.createActiveGame()
	for r := 1; r <= 9; r++ {
		s.play(r, "RED", "RED")
	}
	s.publisher.Reset()

	game := s.play(10, "RED", "BLUE")

	s.Equal(model.GameStateFinished, game.State)
	s.Equal(model.FinishReasonFinish, game.FinishReason)
	s.Equal(10, game.CurrentRound)
	s.Len(game.Rounds, 10)
	// 8*3 + 6 - 12 = 18 for player1, 8*3 + 6 + 12 = 42 for player2
	s.Equal(18, game.Player1Score)
	s.Equal(42, game.Player2Score)
	s.Equal(model.OutcomePlayer2, game.Winner)
	s.NotNil(game.FinishedAt)

	s.Equal([]model.EventType{model.EventRoundResolved, model.EventGameFinished}, s.publisher.Types())
	s.Equal(0, s.publisher.Events()[0].Payload.(model.RoundResolvedPayload).NextRound)
	s.Equal(0, s.timers.Len())

	s.Require().Len(s.archive.Recorded(), 1)
	s.Equal(model.GameStateFinished, s.archive.Recorded()[0].State)

	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 10, "RED")
	s.ErrorIs(err, model.ErrSessionNotActive)
}

func (s *ControllerSuite) TestConcurrentChoicesResolveOnce() {
	s.createActiveGame()

	var wg sync.WaitGroup
	for _, role := range []model.PlayerRole{model.RolePlayer1, model.RolePlayer2} {
		wg.Add(1)
		go func(role model.PlayerRole) {
			defer wg.Done()
			_, err := s.controller.SubmitChoice(s.ctx, "game-1", role, 1, "RED")
			s.NoError(err)
		}(role)
	}
	wg.Wait()

	game, err := s.controller.Get(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(3, game.Player1Score)
	s.Equal(3, game.Player2Score)
	s.Equal(2, game.CurrentRound)
	s.Equal([]model.EventType{model.EventRoundResolved, model.EventRoundStarted}, s.publisher.Types())
	s.Equal(0, s.controller.locks.len())
}

// Timeout tests

func (s *ControllerSuite) TestRoundTimesOutWithOneChoice() {
	s.createActiveGame()
	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer2, 1, "BLUE")
	s.Require().NoError(err)

	s.clock.Advance(60 * time.Second)

	game, err := s.controller.Get(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.ResolvedByTimeout, game.Rounds[0].ResolvedBy)
	s.Equal(-6, game.Player1Score)
	s.Equal(6, game.Player2Score)
	s.Equal(2, game.CurrentRound)
	s.True(s.timers.Pending("game-1", timers.KindRound))
}

func (s *ControllerSuite) TestRoundTimesOutWithNoChoices() {
	s.createActiveGame()

	s.clock.Advance(60 * time.Second)

	game, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(-3, game.Player1Score)
	s.Equal(-3, game.Player2Score)
}

func (s *ControllerSuite) TestRoundDoesNotTimeOutEarly() {
	s.createActiveGame()

	s.clock.Advance(59 * time.Second)

	game, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(1, game.CurrentRound)
	s.Equal(model.RoundOpen, game.Rounds[0].Status())
}

func (s *ControllerSuite) TestEarlyResolutionReplacesTimer() {
	s.createActiveGame()
	s.clock.Advance(30 * time.Second)
	s.play(1, "RED", "RED")

	// Round 1's deadline passes, but round 2 opened at +30s
	s.clock.Advance(45 * time.Second)

	game, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(2, game.CurrentRound)
	s.Equal(3, game.Player1Score)
	s.Equal(model.RoundOpen, game.Rounds[1].Status())

	s.clock.Advance(15 * time.Second)
	game, _ = s.controller.Get(s.ctx, "game-1")
	s.Equal(3, game.CurrentRound)
}

func (s *ControllerSuite) TestStaleTimerIsNoop() {
	s.createActiveGame()
	s.play(1, "RED", "RED")

	s.controller.expireRound("game-1", 1)

	game, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(2, game.CurrentRound)
	s.Equal(3, game.Player1Score)
}

func (s *ControllerSuite) TestWholeGameCanTimeOut() {
	s.createActiveGame()

	s.clock.Advance(10 * 60 * time.Second)

	game, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(model.GameStateFinished, game.State)
	// 8 rounds at -3, 2 doubled rounds at -6
	s.Equal(-36, game.Player1Score)
	s.Equal(model.OutcomeDraw, game.Winner)
	s.Equal(0, s.clock.PendingTimers())
}

// Surrender tests

func (s *ControllerSuite) TestSurrenderFinishesGame() {
	s.createActiveGame()
	_, err := s.controller.SubmitChoice(s.ctx, "game-1", model.RolePlayer1, 1, "RED")
	s.Require().NoError(err)

	game, err := s.controller.Surrender(s.ctx, "game-1", model.RolePlayer1)
	s.Require().NoError(err)

	s.Equal(model.GameStateFinished, game.State)
	s.Equal(model.FinishReasonAbandon, game.FinishReason)
	s.Equal(model.OutcomePlayer2, game.Winner)
	s.Equal(0, game.Player1Score)
	s.Equal(model.RoundOpen, game.Rounds[0].Status())
	s.Equal(0, s.timers.Len())

	s.Require().Equal([]model.EventType{model.EventGameFinished}, s.publisher.Types())
	payload := s.publisher.Events()[0].Payload.(model.GameFinishedPayload)
	s.Equal("Alice", payload.PlayerName)
	s.Equal(model.FinishReasonAbandon, payload.Reason)
}

func (s *ControllerSuite) TestSurrenderTwiceIsGameOver() {
	s.createActiveGame()
	_, err := s.controller.Surrender(s.ctx, "game-1", model.RolePlayer2)
	s.Require().NoError(err)

	_, err = s.controller.Surrender(s.ctx, "game-1", model.RolePlayer1)
	s.ErrorIs(err, model.ErrGameOver)
	s.Len(s.archive.Recorded(), 1)
}

func (s *ControllerSuite) TestSurrenderWhileWaitingIsRejected() {
	game := &model.Game{ID: "game-1", Code: "ABC234", State: model.GameStateWaiting, Player1: &model.Player{Name: "Alice"}}
	s.Require().NoError(s.controller.Create(s.ctx, game))

	_, err := s.controller.Surrender(s.ctx, "game-1", model.RolePlayer1)
	s.ErrorIs(err, model.ErrSessionNotActive)
}

func (s *ControllerSuite) TestArchiveFailureDoesNotFailSurrender() {
	logger, logs := testutil.CaptureLogger()
	s.controller = NewController(s.storage, scoring.New(), s.timers, s.clock, s.publisher, s.archive, nil, logger, DefaultConfig())
	s.createActiveGame()
	s.archive.Err = errors.New("disk full")

	game, err := s.controller.Surrender(s.ctx, "game-1", model.RolePlayer1)
	s.Require().NoError(err)
	s.Equal(model.GameStateFinished, game.State)
	s.Contains(logs.Messages(), "failed to archive game")
}

// Mutate and Delete tests

func (s *ControllerSuite) TestMutateUnchangedSkipsSave() {
	s.createActiveGame()
	before, _ := s.controller.Get(s.ctx, "game-1")
	s.clock.Advance(time.Second)

	_, err := s.controller.Mutate(s.ctx, "game-1", func(g *model.Game) ([]model.Event, error) {
		g.Player1Score = 100
		return nil, ErrUnchanged
	})
	s.Require().NoError(err)

	after, _ := s.controller.Get(s.ctx, "game-1")
	s.Equal(0, after.Player1Score)
	s.Equal(before.UpdatedAt, after.UpdatedAt)
}

func (s *ControllerSuite) TestMutateErrorPublishesNothing() {
	s.createActiveGame()
	_, err := s.controller.Mutate(s.ctx, "game-1", func(g *model.Game) ([]model.Event, error) {
		return []model.Event{{Type: model.EventResume}}, model.ErrForbidden
	})
	s.ErrorIs(err, model.ErrForbidden)
	s.Empty(s.publisher.Events())
}

func (s *ControllerSuite) TestDeleteCancelsTimersAndClosesSubscribers() {
	s.createActiveGame()

	s.Require().NoError(s.controller.Delete(s.ctx, "game-1", nil))

	_, err := s.controller.Get(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
	s.Equal(0, s.timers.Len())
	s.Equal([]model.GameID{"game-1"}, s.publisher.Closed())
}

func (s *ControllerSuite) TestDeleteCheckCanRefuse() {
	s.createActiveGame()

	err := s.controller.Delete(s.ctx, "game-1", func(g *model.Game) error {
		return model.ErrNotWaiting
	})
	s.ErrorIs(err, model.ErrNotWaiting)

	_, err = s.controller.Get(s.ctx, "game-1")
	s.NoError(err)
}

func (s *ControllerSuite) TestRestoreTimersRearmsActiveGames() {
	s.createActiveGame()
	s.timers.CancelAll("game-1")

	s.Require().NoError(s.controller.RestoreTimers(s.ctx))

	s.True(s.timers.Pending("game-1", timers.KindRound))
}

func (s *ControllerSuite) TestPausedGamesRunPauseHook() {
	var paused []model.GameID
	s.controller.OnPause(func(g *model.Game) {
		paused = append(paused, g.ID)
	})
	s.createActiveGame()

	_, err := s.controller.Mutate(s.ctx, "game-1", func(g *model.Game) ([]model.Event, error) {
		return nil, g.Transition(model.GameStatePause)
	})
	s.Require().NoError(err)
	s.Equal([]model.GameID{"game-1"}, paused)
	s.False(s.timers.Pending("game-1", timers.KindRound))

	s.Require().NoError(s.controller.RestoreTimers(s.ctx))
	s.Equal([]model.GameID{"game-1", "game-1"}, paused)
}

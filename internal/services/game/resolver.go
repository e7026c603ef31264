package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/redblue/internal/model"
)

// OpenRound appends the next round to the ledger and makes it current
func OpenRound(game *model.Game, now time.Time) {
	number := len(game.Rounds) + 1
	game.Rounds = append(game.Rounds, model.Round{
		Number:    number,
		CreatedAt: now,
	})
	game.CurrentRound = number
}

// RoundDeadline returns when the current round times out, if one is open
func (c *Controller) RoundDeadline(game *model.Game) (time.Time, bool) {
	round := game.CurrentRoundRecord()
	if round == nil || round.Status() == model.RoundResolved {
		return time.Time{}, false
	}
	return round.CreatedAt.Add(c.cfg.RoundTimeout), true
}

// RoundStartedEvent describes the current round's window
func (c *Controller) RoundStartedEvent(game *model.Game, now time.Time) model.Event {
	deadline, _ := c.RoundDeadline(game)
	return model.Event{
		Type:      model.EventRoundStarted,
		GameID:    game.ID,
		Timestamp: now,
		Payload:   model.RoundStartedPayload{Round: game.CurrentRound, Deadline: deadline},
	}
}

// SubmitChoice records a player's choice for the current round and resolves it once both are in
func (c *Controller) SubmitChoice(ctx context.Context, id model.GameID, role model.PlayerRole, roundNumber int, raw string) (*model.Game, error) {
	choice, err := model.ParseChoice(raw)
	if err != nil {
		return nil, err
	}

	game, err := c.Mutate(ctx, id, func(g *model.Game) ([]model.Event, error) {
		if g.State != model.GameStateActive {
			return nil, model.ErrSessionNotActive
		}
		if roundNumber != g.CurrentRound {
			return nil, model.ErrInvalidRound
		}
		round := g.CurrentRoundRecord()
		if round == nil {
			return nil, model.ErrInvalidRound
		}
		if err := round.SetChoice(role, choice); err != nil {
			return nil, err
		}

		if !round.BothChosen() {
			return nil, nil
		}
		return c.resolve(g, model.ResolvedByChoices), nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.ChoiceSubmitted()
	c.logger.Debug("choice submitted",
		slog.String("game_id", string(id)),
		slog.String("role", string(role)),
		slog.Int("round", roundNumber),
	)
	return game, nil
}

// Surrender ends the game immediately in the other player's favour.
// The round in flight is not scored.
func (c *Controller) Surrender(ctx context.Context, id model.GameID, role model.PlayerRole) (*model.Game, error) {
	return c.Mutate(ctx, id, func(g *model.Game) ([]model.Event, error) {
		switch {
		case g.State.IsTerminal():
			return nil, model.ErrGameOver
		case g.State != model.GameStateActive && g.State != model.GameStatePause:
			return nil, model.ErrSessionNotActive
		}
		ev, err := c.Finish(g, model.GameStateFinished, model.FinishReasonAbandon, model.OutcomeFor(role.Other()), g.PlayerName(role))
		if err != nil {
			return nil, err
		}
		return []model.Event{ev}, nil
	})
}

// Finish moves the game into a terminal state and returns the game finished event
func (c *Controller) Finish(game *model.Game, state model.GameState, reason model.FinishReason, winner model.Outcome, playerName string) (model.Event, error) {
	if err := game.Transition(state); err != nil {
		return model.Event{}, err
	}
	now := c.clock.Now()
	game.FinishReason = reason
	game.Winner = winner
	game.FinishedAt = &now

	return model.Event{
		Type:      model.EventGameFinished,
		GameID:    game.ID,
		Timestamp: now,
		Payload: model.GameFinishedPayload{
			Reason:       reason,
			State:        game.State,
			Winner:       winner,
			Player1Score: game.Player1Score,
			Player2Score: game.Player2Score,
			PlayerName:   playerName,
		},
	}, nil
}

// resolve scores the current round, then opens the next one or finishes the game
func (c *Controller) resolve(game *model.Game, trigger model.ResolutionTrigger) []model.Event {
	now := c.clock.Now()
	round := game.CurrentRoundRecord()

	d := c.scoring.ScoreRound(round.Number, round.Player1Choice, round.Player2Choice)
	round.Player1Score = d.Player1
	round.Player2Score = d.Player2
	round.ResolvedAt = &now
	round.ResolvedBy = trigger
	game.Player1Score += d.Player1
	game.Player2Score += d.Player2

	c.metrics.RoundResolved(string(trigger))
	c.logger.Info("round resolved",
		slog.String("game_id", string(game.ID)),
		slog.Int("round", round.Number),
		slog.String("trigger", string(trigger)),
		slog.Int("player1_score", game.Player1Score),
		slog.Int("player2_score", game.Player2Score),
	)

	payload := model.RoundResolvedPayload{
		Round:        round.Number,
		Player1Score: game.Player1Score,
		Player2Score: game.Player2Score,
		Rounds:       copyRounds(game.Rounds),
	}
	if round.Number < model.MaxRounds {
		payload.NextRound = round.Number + 1
	}

	if round.Number >= model.MaxRounds {
		finished, err := c.Finish(game, model.GameStateFinished, model.FinishReasonFinish, game.ScoreOutcome(), "")
		if err != nil {
			// Only reachable from a non-active state, which callers rule out
			c.logger.Error("failed to finish game",
				slog.String("game_id", string(game.ID)),
				slog.String("error", err.Error()),
			)
			return nil
		}
		payload.State = game.State
		return []model.Event{
			{Type: model.EventRoundResolved, GameID: game.ID, Timestamp: now, Payload: payload},
			finished,
		}
	}

	OpenRound(game, now)
	payload.State = game.State
	return []model.Event{
		{Type: model.EventRoundResolved, GameID: game.ID, Timestamp: now, Payload: payload},
		c.RoundStartedEvent(game, now),
	}
}

// expireRound resolves a round whose window ran out. Stale timers are no-ops.
func (c *Controller) expireRound(id model.GameID, number int) {
	_, err := c.Mutate(context.Background(), id, func(g *model.Game) ([]model.Event, error) {
		if g.State != model.GameStateActive || g.CurrentRound != number {
			return nil, ErrUnchanged
		}
		round := g.CurrentRoundRecord()
		if round == nil || round.Status() == model.RoundResolved {
			return nil, ErrUnchanged
		}
		if c.clock.Now().Before(round.CreatedAt.Add(c.cfg.RoundTimeout)) {
			return nil, ErrUnchanged
		}
		return c.resolve(g, model.ResolvedByTimeout), nil
	})
	if err != nil && !errors.Is(err, model.ErrGameNotFound) {
		c.logger.Error("failed to expire round",
			slog.String("game_id", string(id)),
			slog.Int("round", number),
			slog.String("error", err.Error()),
		)
	}
}

func copyRounds(rounds []model.Round) []model.Round {
	out := make([]model.Round, len(rounds))
	copy(out, rounds)
	return out
}

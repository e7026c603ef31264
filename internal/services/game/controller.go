package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/redblue/internal/dependencies/clock"
	"github.com/mcoot/redblue/internal/metrics"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/scoring"
	"github.com/mcoot/redblue/internal/services/timers"
	"github.com/mcoot/redblue/internal/storage"
)

// ErrUnchanged may be returned by a Mutate callback to skip the save
var ErrUnchanged = errors.New("game unchanged")

// Publisher delivers session events to subscribers. Publish must not block.
type Publisher interface {
	Publish(event model.Event)
	CloseGame(id model.GameID)
}

// Archiver records terminal games
type Archiver interface {
	Record(ctx context.Context, game *model.Game) error
}

// Config holds round timing settings
type Config struct {
	RoundTimeout time.Duration
}

// DefaultConfig returns the standard sixty second round window
func DefaultConfig() Config {
	return Config{RoundTimeout: 60 * time.Second}
}

// Controller owns every write to a session. Writes for one game are serialized.
type Controller struct {
	storage   storage.Storage
	scoring   *scoring.Service
	timers    *timers.Registry
	clock     clock.Clock
	publisher Publisher
	archive   Archiver
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       Config

	locks   *gameLocks
	onPause func(g *model.Game)
}

// NewController creates a new game Controller. publisher, archive and m may be nil.
func NewController(
	storage storage.Storage,
	scoringService *scoring.Service,
	timerRegistry *timers.Registry,
	clock clock.Clock,
	publisher Publisher,
	archive Archiver,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	return &Controller{
		storage:   storage,
		scoring:   scoringService,
		timers:    timerRegistry,
		clock:     clock,
		publisher: publisher,
		archive:   archive,
		metrics:   m,
		logger:    logger.With(slog.String("component", "game")),
		cfg:       cfg,
		locks:     newGameLocks(),
	}
}

// Clock returns the controller's time source
func (c *Controller) Clock() clock.Clock {
	return c.clock
}

// Timers returns the registry the controller arms round timers on
func (c *Controller) Timers() *timers.Registry {
	return c.timers
}

// OnPause registers f to arm timers for a game left paused by a mutation.
// f runs with the game lock held and must not call back into the controller.
func (c *Controller) OnPause(f func(g *model.Game)) {
	c.onPause = f
}

// Get retrieves a game by ID
func (c *Controller) Get(ctx context.Context, id model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, id)
}

// Create stores a brand new game and arms its timers
func (c *Controller) Create(ctx context.Context, game *model.Game) error {
	c.locks.lock(game.ID)
	defer c.locks.unlock(game.ID)

	if err := c.storage.SaveGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("save game: %w", err)
	}
	c.metrics.GameCreated()
	c.syncTimers(game)
	return nil
}

// Mutate loads the game, applies fn and persists the result, all under the game's lock.
// Events returned by fn are published in order after the save succeeds.
func (c *Controller) Mutate(ctx context.Context, id model.GameID, fn func(g *model.Game) ([]model.Event, error)) (*model.Game, error) {
	c.locks.lock(id)
	defer c.locks.unlock(id)

	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	wasTerminal := game.State.IsTerminal()

	events, err := fn(game)
	if errors.Is(err, ErrUnchanged) {
		c.syncTimers(game)
		return game, nil
	}
	if err != nil {
		return nil, err
	}

	game.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("save game: %w", err)
	}

	for _, ev := range events {
		c.publish(ev)
	}
	c.syncTimers(game)

	if !wasTerminal && game.State.IsTerminal() {
		c.onTerminal(ctx, game)
	}
	return game, nil
}

// Delete removes a game after check approves it, cancelling its timers and closing its subscribers
func (c *Controller) Delete(ctx context.Context, id model.GameID, check func(g *model.Game) error) error {
	c.locks.lock(id)
	defer c.locks.unlock(id)

	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(game); err != nil {
			return err
		}
	}

	if err := c.storage.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	c.timers.CancelAll(id)
	if c.publisher != nil {
		c.publisher.CloseGame(id)
	}

	c.logger.Info("game deleted",
		slog.String("game_id", string(id)),
		slog.String("state", string(game.State)),
	)
	return nil
}

// RestoreTimers re-arms the timers of every live stored game, for use after a restart
func (c *Controller) RestoreTimers(ctx context.Context) error {
	games, err := c.storage.ListGames(ctx)
	if err != nil {
		return err
	}
	for _, g := range games {
		if g.State != model.GameStateActive && g.State != model.GameStatePause {
			continue
		}
		if _, err := c.Mutate(ctx, g.ID, func(*model.Game) ([]model.Event, error) {
			return nil, ErrUnchanged
		}); err != nil && !errors.Is(err, model.ErrGameNotFound) {
			return err
		}
	}
	return nil
}

// syncTimers makes the pending timers match the game's state. Called with the game lock held.
func (c *Controller) syncTimers(game *model.Game) {
	switch {
	case game.State.IsTerminal():
		c.timers.CancelAll(game.ID)
	case game.State == model.GameStateActive:
		c.timers.Cancel(game.ID, timers.KindAbandon)
		round := game.CurrentRoundRecord()
		if round == nil || round.Status() == model.RoundResolved {
			c.timers.Cancel(game.ID, timers.KindRound)
			return
		}
		id, number := game.ID, round.Number
		deadline := round.CreatedAt.Add(c.cfg.RoundTimeout)
		c.timers.Schedule(id, timers.KindRound, deadline.Sub(c.clock.Now()), func() {
			c.expireRound(id, number)
		})
	case game.State == model.GameStatePause:
		c.timers.Cancel(game.ID, timers.KindRound)
		if c.onPause != nil {
			c.onPause(game)
		}
	}
}

func (c *Controller) publish(ev model.Event) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(ev)
}

func (c *Controller) onTerminal(ctx context.Context, game *model.Game) {
	c.metrics.GameFinished(string(game.FinishReason))
	c.logger.Info("game finished",
		slog.String("game_id", string(game.ID)),
		slog.String("state", string(game.State)),
		slog.String("reason", string(game.FinishReason)),
		slog.String("winner", string(game.Winner)),
		slog.Int("player1_score", game.Player1Score),
		slog.Int("player2_score", game.Player2Score),
	)

	if c.archive == nil {
		return
	}
	if err := c.archive.Record(ctx, game); err != nil {
		c.logger.Error("failed to archive game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
	}
}

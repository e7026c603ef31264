package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/redblue/internal/dependencies/clock"
	"github.com/mcoot/redblue/internal/dependencies/random"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/game"
	"github.com/mcoot/redblue/internal/storage"
)

const (
	// GameCodeLength is the length of generated join codes
	GameCodeLength = 6
	// GameCodeAlphabet is the characters used in join codes (avoid confusing chars)
	GameCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// DefaultPageSize is used when an admin listing omits page_size
	DefaultPageSize = 10
	// MaxPageSize bounds an admin listing page
	MaxPageSize = 100
)

// TokenIssuer mints the credential a player presents for a seat
type TokenIssuer interface {
	IssuePlayerToken(gameID model.GameID, role model.PlayerRole, name string) (string, error)
}

// Config holds lobby expiry settings
type Config struct {
	LobbyTTL          time.Duration
	FinishedRetention time.Duration
}

// DefaultConfig returns the standard ten minute lobby window
func DefaultConfig() Config {
	return Config{
		LobbyTTL:          10 * time.Minute,
		FinishedRetention: time.Hour,
	}
}

// Seat is a player's place in a game, with the token that proves it
type Seat struct {
	Game  *model.Game
	Role  model.PlayerRole
	Token string
}

// ListFilter narrows the admin listing
type ListFilter struct {
	State    model.GameState
	Page     int
	PageSize int
}

// Controller handles matchmaking, lobby management and cleanup
type Controller struct {
	storage        storage.Storage
	gameController *game.Controller
	tokens         TokenIssuer
	clock          clock.Clock
	random         random.Random
	logger         *slog.Logger
	cfg            Config
}

// NewController creates a new lobby Controller
func NewController(
	storage storage.Storage,
	gameController *game.Controller,
	tokens TokenIssuer,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	return &Controller{
		storage:        storage,
		gameController: gameController,
		tokens:         tokens,
		clock:          clock,
		random:         random,
		logger:         logger.With(slog.String("component", "lobby")),
		cfg:            cfg,
	}
}

// CreateGame opens a waiting game with the named player in the first seat
func (c *Controller) CreateGame(ctx context.Context, name string, visibility model.Visibility) (*Seat, error) {
	name = strings.TrimSpace(name)
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}

	code, err := c.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	g := &model.Game{
		ID:         model.GameID(c.random.UUID()),
		Code:       code,
		Visibility: visibility,
		State:      model.GameStateWaiting,
		Player1:    &model.Player{Name: name},
		Rounds:     []model.Round{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	token, err := c.tokens.IssuePlayerToken(g.ID, model.RolePlayer1, name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := c.gameController.Create(ctx, g); err != nil {
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(g.ID)),
		slog.String("code", string(g.Code)),
		slog.String("visibility", string(g.Visibility)),
	)
	return &Seat{Game: g, Role: model.RolePlayer1, Token: token}, nil
}

func (c *Controller) generateCode(ctx context.Context) (model.GameCode, error) {
	for {
		code := model.GameCode(c.random.String(GameCodeLength, GameCodeAlphabet))
		exists, err := c.storage.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

// JoinGame seats a second player by join code and starts round one
func (c *Controller) JoinGame(ctx context.Context, name, rawCode string) (*Seat, error) {
	name = strings.TrimSpace(name)
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	code := model.NormalizeCode(rawCode)
	if code == "" {
		return nil, model.ErrMissingCode
	}

	id, err := c.storage.GetGameIDByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	g, err := c.gameController.Mutate(ctx, id, func(g *model.Game) ([]model.Event, error) {
		if g.Player2 != nil || g.State != model.GameStateWaiting {
			return nil, model.ErrGameFull
		}
		if g.Player1 != nil && g.Player1.Name == name {
			return nil, model.ErrNameTaken
		}
		now := c.clock.Now()
		if c.lobbyExpired(g, now) {
			return nil, model.ErrSessionExpired
		}

		if err := g.Transition(model.GameStateActive); err != nil {
			return nil, err
		}
		g.Player2 = &model.Player{Name: name}
		game.OpenRound(g, now)

		// A creator who left the lobby is absent from the start. The pause window
		// opens at the join, not at the lobby-time disconnect.
		host := g.Player1
		if host != nil && host.DisconnectedAt != nil {
			host.Connected = false
			host.DisconnectedAt = &now
			if err := g.Transition(model.GameStatePause); err != nil {
				return nil, err
			}
		}

		joined := model.Event{
			Type:      model.EventLobbyActive,
			GameID:    g.ID,
			Timestamp: now,
			Payload:   model.LobbyActivePayload{Player2Name: name, State: g.State},
		}
		if g.State == model.GameStatePause {
			return []model.Event{joined, {
				Type:      model.EventDisconnect,
				GameID:    g.ID,
				Timestamp: now,
				Payload:   model.PresencePayload{PlayerName: host.Name, Role: model.RolePlayer1, State: g.State},
			}}, nil
		}
		return []model.Event{joined, c.gameController.RoundStartedEvent(g, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.IssuePlayerToken(g.ID, model.RolePlayer2, name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	c.logger.Info("player joined",
		slog.String("game_id", string(g.ID)),
		slog.String("code", string(g.Code)),
	)
	return &Seat{Game: g, Role: model.RolePlayer2, Token: token}, nil
}

// ListPublicGames returns open public lobbies, newest first
func (c *Controller) ListPublicGames(ctx context.Context) ([]*model.Game, error) {
	games, err := c.storage.ListGames(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	public := make([]*model.Game, 0, len(games))
	for _, g := range games {
		if g.Visibility != model.VisibilityPublic || g.State != model.GameStateWaiting || g.Player2 != nil {
			continue
		}
		if c.lobbyExpired(g, now) {
			continue
		}
		public = append(public, g)
	}
	sortNewestFirst(public)
	return public, nil
}

// ChangeVisibility toggles whether a waiting game is listed publicly
func (c *Controller) ChangeVisibility(ctx context.Context, id model.GameID, role model.PlayerRole) (model.Visibility, error) {
	g, err := c.gameController.Mutate(ctx, id, func(g *model.Game) ([]model.Event, error) {
		if role != model.RolePlayer1 {
			return nil, model.ErrNotOwner
		}
		if g.State != model.GameStateWaiting {
			return nil, model.ErrNotWaiting
		}
		g.Visibility = g.Visibility.Toggle()
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return g.Visibility, nil
}

// DeleteLobby removes a game that is still waiting for its second player
func (c *Controller) DeleteLobby(ctx context.Context, id model.GameID, role model.PlayerRole) error {
	return c.gameController.Delete(ctx, id, func(g *model.Game) error {
		if role != model.RolePlayer1 {
			return model.ErrNotOwner
		}
		if g.State != model.GameStateWaiting {
			return model.ErrNotWaiting
		}
		return nil
	})
}

// ListGames returns one page of games for administrators and the total matching count
func (c *Controller) ListGames(ctx context.Context, filter ListFilter) ([]*model.Game, int, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = DefaultPageSize
	}
	if filter.Page < 1 || filter.PageSize < 1 || filter.PageSize > MaxPageSize {
		return nil, 0, model.ErrInvalidPage
	}

	games, err := c.storage.ListGames(ctx)
	if err != nil {
		return nil, 0, err
	}

	matching := games[:0]
	for _, g := range games {
		if filter.State == "" || g.State == filter.State {
			matching = append(matching, g)
		}
	}
	sortNewestFirst(matching)

	total := len(matching)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*model.Game{}, total, nil
	}
	end := min(start+filter.PageSize, total)
	return matching[start:end], total, nil
}

// Cleanup removes expired lobbies and terminal games past their retention.
// It returns how many games were removed.
func (c *Controller) Cleanup(ctx context.Context) (int, error) {
	games, err := c.storage.ListGames(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, g := range games {
		if !c.stale(g, c.clock.Now()) {
			continue
		}
		err := c.gameController.Delete(ctx, g.ID, func(current *model.Game) error {
			if !c.stale(current, c.clock.Now()) {
				return errNotStale
			}
			return nil
		})
		switch {
		case err == nil:
			removed++
		case errors.Is(err, errNotStale), errors.Is(err, model.ErrGameNotFound):
		default:
			return removed, err
		}
	}

	if removed > 0 {
		c.logger.Info("cleanup removed games", slog.Int("removed", removed))
	}
	return removed, nil
}

var errNotStale = errors.New("game is not stale")

func (c *Controller) lobbyExpired(g *model.Game, now time.Time) bool {
	return g.State == model.GameStateWaiting && !now.Before(g.CreatedAt.Add(c.cfg.LobbyTTL))
}

func (c *Controller) stale(g *model.Game, now time.Time) bool {
	if c.lobbyExpired(g, now) {
		return true
	}
	if !g.State.IsTerminal() {
		return false
	}
	finished := g.UpdatedAt
	if g.FinishedAt != nil {
		finished = *g.FinishedAt
	}
	return !now.Before(finished.Add(c.cfg.FinishedRetention))
}

func sortNewestFirst(games []*model.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
}

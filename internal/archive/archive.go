// Package archive keeps a durable record of terminal sessions, separate from the live store.
package archive

import (
	"context"
	"time"

	"github.com/mcoot/redblue/internal/model"
)

// DefaultRecentLimit is used when Recent is called with a non-positive limit
const DefaultRecentLimit = 50

// Archiver records finished and abandoned games
type Archiver interface {
	// Record stores a terminal game. Recording the same game twice is a no-op.
	Record(ctx context.Context, game *model.Game) error
	// Recent returns archived games, most recently finished first
	Recent(ctx context.Context, limit int) ([]*model.Game, error)
	Close() error
}

// Entry is the flattened row form of an archived game
type Entry struct {
	ID           string
	Code         string
	Player1Name  string
	Player2Name  string
	Player1Score int
	Player2Score int
	State        string
	Winner       string
	FinishReason string
	Rounds       []model.Round
	CreatedAt    time.Time
	FinishedAt   time.Time
}

// EntryFrom flattens a game for storage
func EntryFrom(g *model.Game) Entry {
	e := Entry{
		ID:           string(g.ID),
		Code:         string(g.Code),
		Player1Name:  g.PlayerName(model.RolePlayer1),
		Player2Name:  g.PlayerName(model.RolePlayer2),
		Player1Score: g.Player1Score,
		Player2Score: g.Player2Score,
		State:        string(g.State),
		Winner:       string(g.Winner),
		FinishReason: string(g.FinishReason),
		Rounds:       g.Rounds,
		CreatedAt:    g.CreatedAt.UTC(),
		FinishedAt:   g.UpdatedAt.UTC(),
	}
	if g.FinishedAt != nil {
		e.FinishedAt = g.FinishedAt.UTC()
	}
	if e.Rounds == nil {
		e.Rounds = []model.Round{}
	}
	return e
}

// Game rebuilds a read-only game snapshot from an entry
func (e Entry) Game() *model.Game {
	finished := e.FinishedAt
	g := &model.Game{
		ID:           model.GameID(e.ID),
		Code:         model.GameCode(e.Code),
		State:        model.GameState(e.State),
		Player1Score: e.Player1Score,
		Player2Score: e.Player2Score,
		Rounds:       e.Rounds,
		Winner:       model.Outcome(e.Winner),
		FinishReason: model.FinishReason(e.FinishReason),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.FinishedAt,
		FinishedAt:   &finished,
	}
	if e.Player1Name != "" {
		g.Player1 = &model.Player{Name: e.Player1Name}
	}
	if e.Player2Name != "" {
		g.Player2 = &model.Player{Name: e.Player2Name}
	}
	g.CurrentRound = len(e.Rounds)
	return g
}

// Nop discards everything. Used when no archive is configured.
type Nop struct{}

func (Nop) Record(context.Context, *model.Game) error { return nil }

func (Nop) Recent(context.Context, int) ([]*model.Game, error) { return []*model.Game{}, nil }

func (Nop) Close() error { return nil }

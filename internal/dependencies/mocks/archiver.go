package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/redblue/internal/model"
)

// Archiver collects recorded games in memory
type Archiver struct {
	mu    sync.Mutex
	games []*model.Game
	Err   error
}

// NewArchiver creates an empty Archiver
func NewArchiver() *Archiver {
	return &Archiver{}
}

func (a *Archiver) Record(ctx context.Context, game *model.Game) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.games = append(a.games, game.Clone())
	return nil
}

// Recorded returns every archived game in recording order
func (a *Archiver) Recorded() []*model.Game {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*model.Game(nil), a.games...)
}

// Recent returns archived games, latest recorded first
func (a *Archiver) Recent(ctx context.Context, limit int) ([]*model.Game, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	out := make([]*model.Game, 0, len(a.games))
	for i := len(a.games) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, a.games[i].Clone())
	}
	return out, nil
}

func (a *Archiver) Close() error {
	return nil
}

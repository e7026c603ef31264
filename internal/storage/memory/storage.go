package memory

import (
	"context"
	"sync"

	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Games are copied on the way in and out.
type Storage struct {
	mu sync.RWMutex

	games     map[model.GameID]*model.Game
	codeIndex map[model.GameCode]model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:     make(map[model.GameID]*model.Game),
		codeIndex: make(map[model.GameCode]model.GameID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.games[game.ID]; ok && prev.Code != game.Code {
		delete(s.codeIndex, prev.Code)
	}
	s.games[game.ID] = game.Clone()
	s.codeIndex[game.Code] = game.ID
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if game, ok := s.games[id]; ok {
		delete(s.codeIndex, game.Code)
		delete(s.games, id)
	}
	return nil
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*model.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g.Clone())
	}
	return games, nil
}

func (s *Storage) GetGameIDByCode(ctx context.Context, code model.GameCode) (model.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return "", model.ErrGameNotFound
	}
	return id, nil
}

func (s *Storage) CodeExists(ctx context.Context, code model.GameCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codeIndex[code]
	return ok, nil
}

// Close is a no-op for the memory store
func (s *Storage) Close() error {
	return nil
}

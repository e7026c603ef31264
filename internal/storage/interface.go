package storage

import (
	"context"

	"github.com/mcoot/redblue/internal/model"
)

// Storage defines the interface for session persistence.
// Implementations return model.ErrGameNotFound for missing games and codes.
type Storage interface {
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error
	ListGames(ctx context.Context) ([]*model.Game, error)

	// Code index
	GetGameIDByCode(ctx context.Context, code model.GameCode) (model.GameID, error)
	CodeExists(ctx context.Context, code model.GameCode) (bool, error)

	Close() error
}

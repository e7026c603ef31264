package redis

import (
	"fmt"

	"github.com/mcoot/redblue/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "redblue"

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key for the code -> game_id index
func codeIndexKey(code model.GameCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// gamesIndexKey returns the Redis key for the SET of all game ids
func gamesIndexKey() string {
	return fmt.Sprintf("%s:idx:games", keyPrefix)
}

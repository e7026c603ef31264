package game

import (
	"sync"

	"github.com/mcoot/redblue/internal/model"
)

// gameLocks hands out one mutex per game id and forgets it once nobody holds it
type gameLocks struct {
	mu    sync.Mutex
	locks map[model.GameID]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[model.GameID]*gameLock)}
}

func (l *gameLocks) lock(id model.GameID) {
	l.mu.Lock()
	gl, ok := l.locks[id]
	if !ok {
		gl = &gameLock{}
		l.locks[id] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()
}

func (l *gameLocks) unlock(id model.GameID) {
	l.mu.Lock()
	gl := l.locks[id]
	gl.refs--
	if gl.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	gl.mu.Unlock()
}

func (l *gameLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

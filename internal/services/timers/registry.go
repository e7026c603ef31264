package timers

import (
	"sync"
	"time"

	"github.com/mcoot/redblue/internal/dependencies/clock"
	"github.com/mcoot/redblue/internal/model"
)

// Kind distinguishes the timers a single game can have pending
type Kind string

const (
	KindRound   Kind = "round"
	KindAbandon Kind = "abandon"
)

type key struct {
	gameID model.GameID
	kind   Kind
}

// Registry holds at most one pending timer per game and kind.
// Callbacks must re-check game state under the game lock; a timer that
// loses the race with Cancel may still fire once.
type Registry struct {
	clock clock.Clock

	mu      sync.Mutex
	pending map[key]*entry
}

type entry struct {
	timer clock.Timer
}

// New creates a new Registry
func New(clk clock.Clock) *Registry {
	return &Registry{
		clock:   clk,
		pending: make(map[key]*entry),
	}
}

// Schedule arms a timer for the game, replacing any pending timer of the same kind
func (r *Registry) Schedule(gameID model.GameID, kind Kind, d time.Duration, f func()) {
	if d < 0 {
		d = 0
	}
	k := key{gameID, kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.pending[k]; ok {
		prev.timer.Stop()
	}
	e := &entry{}
	r.pending[k] = e
	e.timer = r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		if r.pending[k] == e {
			delete(r.pending, k)
		}
		r.mu.Unlock()
		f()
	})
}

// Cancel stops the pending timer of the given kind
func (r *Registry) Cancel(gameID model.GameID, kind Kind) {
	k := key{gameID, kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.pending[k]; ok {
		e.timer.Stop()
		delete(r.pending, k)
	}
}

// CancelAll stops every pending timer for the game
func (r *Registry) CancelAll(gameID model.GameID) {
	r.Cancel(gameID, KindRound)
	r.Cancel(gameID, KindAbandon)
}

// Pending reports whether a timer of the given kind is armed
func (r *Registry) Pending(gameID model.GameID, kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[key{gameID, kind}]
	return ok
}

// Len returns the number of armed timers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

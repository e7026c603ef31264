// Package presence tracks player connectivity and pauses or abandons games when a player goes away.
package presence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/redblue/internal/dependencies/clock"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/game"
	"github.com/mcoot/redblue/internal/services/timers"
)

// Config holds presence settings
type Config struct {
	// PauseTimeout is how long a disconnected player has to come back
	PauseTimeout time.Duration
}

// DefaultConfig returns the standard ten minute pause window
func DefaultConfig() Config {
	return Config{PauseTimeout: 10 * time.Minute}
}

type seat struct {
	gameID model.GameID
	role   model.PlayerRole
}

// Monitor counts live sockets per seat and drives the pause and abandon transitions
type Monitor struct {
	games  *game.Controller
	timers *timers.Registry
	clock  clock.Clock
	logger *slog.Logger
	cfg    Config

	mu      sync.Mutex
	sockets map[seat]int
}

// NewMonitor creates a new presence Monitor
func NewMonitor(games *game.Controller, logger *slog.Logger, cfg Config) *Monitor {
	m := &Monitor{
		games:   games,
		timers:  games.Timers(),
		clock:   games.Clock(),
		logger:  logger.With(slog.String("component", "presence")),
		cfg:     cfg,
		sockets: make(map[seat]int),
	}
	// Any write that leaves a game paused re-arms its abandonment check
	games.OnPause(m.armAbandon)
	return m
}

// Attach records a new socket for a seat. The first socket counts as a reconnect.
func (m *Monitor) Attach(ctx context.Context, id model.GameID, role model.PlayerRole) error {
	m.mu.Lock()
	m.sockets[seat{id, role}]++
	first := m.sockets[seat{id, role}] == 1
	m.mu.Unlock()

	if !first {
		return nil
	}
	return m.reconnect(ctx, id, role, true)
}

// Detach records a closed socket. The last socket closing counts as a disconnect.
func (m *Monitor) Detach(ctx context.Context, id model.GameID, role model.PlayerRole) error {
	m.mu.Lock()
	k := seat{id, role}
	m.sockets[k]--
	last := m.sockets[k] <= 0
	if last {
		delete(m.sockets, k)
	}
	m.mu.Unlock()

	if !last {
		return nil
	}
	return m.disconnect(ctx, id, role, true)
}

// Sockets returns the number of live sockets for a seat
func (m *Monitor) Sockets(id model.GameID, role model.PlayerRole) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sockets[seat{id, role}]
}

// Disconnect marks a player as gone, pausing an active game
func (m *Monitor) Disconnect(ctx context.Context, id model.GameID, role model.PlayerRole) error {
	return m.disconnect(ctx, id, role, false)
}

// Reconnect marks a player as present, resuming a paused game once nobody is missing
func (m *Monitor) Reconnect(ctx context.Context, id model.GameID, role model.PlayerRole) error {
	return m.reconnect(ctx, id, role, false)
}

// disconnect applies a disconnect signal. Socket-driven signals are dropped if a socket reattached.
func (m *Monitor) disconnect(ctx context.Context, id model.GameID, role model.PlayerRole, fromSocket bool) error {
	_, err := m.games.Mutate(ctx, id, func(g *model.Game) ([]model.Event, error) {
		if fromSocket && m.Sockets(id, role) > 0 {
			return nil, game.ErrUnchanged
		}
		player := g.Player(role)
		if player == nil || g.State.IsTerminal() || player.DisconnectedAt != nil {
			return nil, game.ErrUnchanged
		}

		now := m.clock.Now()
		player.Connected = false
		player.DisconnectedAt = &now

		if g.State == model.GameStateActive {
			if err := g.Transition(model.GameStatePause); err != nil {
				return nil, err
			}
			m.logger.Info("game paused",
				slog.String("game_id", string(id)),
				slog.String("role", string(role)),
			)
		}

		return []model.Event{{
			Type:      model.EventDisconnect,
			GameID:    id,
			Timestamp: now,
			Payload:   model.PresencePayload{PlayerName: player.Name, Role: role, State: g.State},
		}}, nil
	})
	return err
}

// reconnect applies a reconnect signal. Socket-driven signals are dropped if the socket already left.
func (m *Monitor) reconnect(ctx context.Context, id model.GameID, role model.PlayerRole, fromSocket bool) error {
	_, err := m.games.Mutate(ctx, id, func(g *model.Game) ([]model.Event, error) {
		if fromSocket && m.Sockets(id, role) == 0 {
			return nil, game.ErrUnchanged
		}
		player := g.Player(role)
		if player == nil || g.State.IsTerminal() {
			return nil, game.ErrUnchanged
		}
		if player.DisconnectedAt == nil {
			if player.Connected {
				return nil, game.ErrUnchanged
			}
			// First sighting of this player, nothing to resume
			player.Connected = true
			return nil, nil
		}

		now := m.clock.Now()
		player.Connected = true
		player.DisconnectedAt = nil

		events := []model.Event{}
		if other := g.Player(role.Other()); g.State == model.GameStatePause && (other == nil || other.DisconnectedAt == nil) {
			if err := g.Transition(model.GameStateActive); err != nil {
				return nil, err
			}
			// The round window restarts in full
			if round := g.CurrentRoundRecord(); round != nil && round.Status() == model.RoundOpen {
				round.CreatedAt = now
			}
			m.logger.Info("game resumed",
				slog.String("game_id", string(id)),
				slog.String("role", string(role)),
			)
		}

		events = append(events, model.Event{
			Type:      model.EventResume,
			GameID:    id,
			Timestamp: now,
			Payload:   model.PresencePayload{PlayerName: player.Name, Role: role, State: g.State},
		})
		if g.State == model.GameStateActive && g.CurrentRound > 0 {
			events = append(events, m.games.RoundStartedEvent(g, now))
		}
		return events, nil
	})
	return err
}

// armAbandon schedules the abandonment check for a paused game
func (m *Monitor) armAbandon(g *model.Game) {
	if g.State != model.GameStatePause {
		return
	}
	_, at := g.EarliestDisconnect()
	if at == nil {
		return
	}
	id := g.ID
	deadline := at.Add(m.cfg.PauseTimeout)
	m.timers.Schedule(id, timers.KindAbandon, deadline.Sub(m.clock.Now()), func() {
		m.expire(id)
	})
}

// expire abandons a game whose pause window ran out
func (m *Monitor) expire(id model.GameID) {
	_, err := m.games.Mutate(context.Background(), id, func(g *model.Game) ([]model.Event, error) {
		if g.State != model.GameStatePause {
			return nil, game.ErrUnchanged
		}
		role, at := g.EarliestDisconnect()
		if at == nil || m.clock.Now().Before(at.Add(m.cfg.PauseTimeout)) {
			return nil, game.ErrUnchanged
		}

		ev, err := m.games.Finish(g, model.GameStateAbandoned, model.FinishReasonAbandon, model.OutcomeFor(role.Other()), g.PlayerName(role))
		if err != nil {
			return nil, err
		}
		m.logger.Info("game abandoned",
			slog.String("game_id", string(id)),
			slog.String("role", string(role)),
		)
		return []model.Event{ev}, nil
	})
	if err != nil && !errors.Is(err, model.ErrGameNotFound) {
		m.logger.Error("failed to expire pause",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

// RestoreSessions runs after a restart, when no socket survives. Every seat of a live
// game is marked disconnected as of now, and active games pause so the abandonment
// window starts. Seats already disconnected keep their original timestamp.
func (m *Monitor) RestoreSessions(ctx context.Context, games []*model.Game) error {
	for _, stored := range games {
		if stored.State != model.GameStateActive && stored.State != model.GameStatePause {
			continue
		}
		_, err := m.games.Mutate(ctx, stored.ID, func(g *model.Game) ([]model.Event, error) {
			if g.State != model.GameStateActive && g.State != model.GameStatePause {
				return nil, game.ErrUnchanged
			}
			now := m.clock.Now()
			for _, role := range []model.PlayerRole{model.RolePlayer1, model.RolePlayer2} {
				if p := g.Player(role); p != nil && p.DisconnectedAt == nil {
					p.Connected = false
					p.DisconnectedAt = &now
				}
			}
			if g.State == model.GameStateActive {
				if err := g.Transition(model.GameStatePause); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil && !errors.Is(err, model.ErrGameNotFound) {
			return err
		}
	}
	return nil
}

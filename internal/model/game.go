package model

import (
	"strings"
	"time"
)

// GameID uniquely identifies a game
type GameID string

// GameCode is the short shareable join code. Stored upper-case.
type GameCode string

// NormalizeCode returns the canonical form of a user-supplied code
func NormalizeCode(s string) GameCode {
	return GameCode(strings.ToUpper(strings.TrimSpace(s)))
}

// GameState represents the current state of a game
type GameState string

const (
	GameStateWaiting   GameState = "waiting"
	GameStateActive    GameState = "active"
	GameStatePause     GameState = "pause"
	GameStateFinished  GameState = "finished"
	GameStateAbandoned GameState = "abandoned"
)

// ParseGameState parses a state filter value
func ParseGameState(s string) (GameState, bool) {
	switch st := GameState(strings.ToLower(s)); st {
	case GameStateWaiting, GameStateActive, GameStatePause, GameStateFinished, GameStateAbandoned:
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no further mutation is permitted
func (s GameState) IsTerminal() bool {
	return s == GameStateFinished || s == GameStateAbandoned
}

var gameTransitions = map[GameState][]GameState{
	GameStateWaiting: {GameStateActive},
	GameStateActive:  {GameStatePause, GameStateFinished},
	GameStatePause:   {GameStateActive, GameStateFinished, GameStateAbandoned},
}

// CanTransition reports whether a game may move from one state to another
func CanTransition(from, to GameState) bool {
	for _, s := range gameTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Visibility controls whether a waiting game is listed publicly
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Toggle returns the opposite visibility
func (v Visibility) Toggle() Visibility {
	if v == VisibilityPublic {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// FinishReason records why a game reached a terminal state
type FinishReason string

const (
	FinishReasonFinish  FinishReason = "finish"
	FinishReasonAbandon FinishReason = "abandon"
)

// Outcome is the result of a terminal game
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomePlayer1 Outcome = "player1"
	OutcomePlayer2 Outcome = "player2"
	OutcomeDraw    Outcome = "draw"
)

// OutcomeFor returns the outcome naming role as the winner
func OutcomeFor(role PlayerRole) Outcome {
	if role == RolePlayer1 {
		return OutcomePlayer1
	}
	return OutcomePlayer2
}

// Game is one ten-round match between two players
type Game struct {
	ID           GameID       `json:"id"`
	Code         GameCode     `json:"code"`
	Visibility   Visibility   `json:"visibility"`
	State        GameState    `json:"state"`
	Player1      *Player      `json:"player1,omitempty"`
	Player2      *Player      `json:"player2,omitempty"`
	CurrentRound int          `json:"current_round"`
	Player1Score int          `json:"player1_score"`
	Player2Score int          `json:"player2_score"`
	Rounds       []Round      `json:"rounds"`
	Winner       Outcome      `json:"winner,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}

// Transition moves the game to a new state if the transition table allows it
func (g *Game) Transition(to GameState) error {
	if g.State.IsTerminal() {
		return ErrGameOver
	}
	if !CanTransition(g.State, to) {
		return ErrIllegalTransition
	}
	g.State = to
	return nil
}

// Player returns the occupant of a seat, or nil
func (g *Game) Player(role PlayerRole) *Player {
	if role == RolePlayer1 {
		return g.Player1
	}
	return g.Player2
}

// PlayerName returns the name in a seat, or ""
func (g *Game) PlayerName(role PlayerRole) string {
	if p := g.Player(role); p != nil {
		return p.Name
	}
	return ""
}

// RoleOf returns the seat held by the named player
func (g *Game) RoleOf(name string) (PlayerRole, bool) {
	if g.Player1 != nil && g.Player1.Name == name {
		return RolePlayer1, true
	}
	if g.Player2 != nil && g.Player2.Name == name {
		return RolePlayer2, true
	}
	return "", false
}

// CurrentRoundRecord returns the ledger entry for the current round, or nil
func (g *Game) CurrentRoundRecord() *Round {
	if g.CurrentRound < 1 || g.CurrentRound > len(g.Rounds) {
		return nil
	}
	return &g.Rounds[g.CurrentRound-1]
}

// Score returns the running total for a seat
func (g *Game) Score(role PlayerRole) int {
	if role == RolePlayer1 {
		return g.Player1Score
	}
	return g.Player2Score
}

// ScoreOutcome compares running totals
func (g *Game) ScoreOutcome() Outcome {
	switch {
	case g.Player1Score > g.Player2Score:
		return OutcomePlayer1
	case g.Player2Score > g.Player1Score:
		return OutcomePlayer2
	default:
		return OutcomeDraw
	}
}

// EarliestDisconnect returns the earliest disconnect timestamp of either seat
func (g *Game) EarliestDisconnect() (PlayerRole, *time.Time) {
	var role PlayerRole
	var earliest *time.Time
	for _, r := range []PlayerRole{RolePlayer1, RolePlayer2} {
		p := g.Player(r)
		if p == nil || p.DisconnectedAt == nil {
			continue
		}
		if earliest == nil || p.DisconnectedAt.Before(*earliest) {
			role, earliest = r, p.DisconnectedAt
		}
	}
	return role, earliest
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.Player1 = clonePlayer(g.Player1)
	c.Player2 = clonePlayer(g.Player2)
	c.Rounds = make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		c.Rounds[i] = r
		c.Rounds[i].ResolvedAt = cloneTime(r.ResolvedAt)
	}
	c.FinishedAt = cloneTime(g.FinishedAt)
	return &c
}

func clonePlayer(p *Player) *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.DisconnectedAt = cloneTime(p.DisconnectedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

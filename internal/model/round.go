package model

import (
	"strings"
	"time"
)

const (
	// MaxRounds is the number of rounds in a game
	MaxRounds = 10
	// DoubledFromRound is the first round whose deltas are doubled
	DoubledFromRound = 9
)

// Choice is a player's per-round selection
type Choice string

const (
	ChoiceNone Choice = ""
	ChoiceRed  Choice = "RED"
	ChoiceBlue Choice = "BLUE"
)

// ParseChoice parses a choice case-insensitively
func ParseChoice(s string) (Choice, error) {
	switch Choice(strings.ToUpper(strings.TrimSpace(s))) {
	case ChoiceRed:
		return ChoiceRed, nil
	case ChoiceBlue:
		return ChoiceBlue, nil
	default:
		return ChoiceNone, ErrInvalidChoice
	}
}

// ResolutionTrigger records what closed a round
type ResolutionTrigger string

const (
	ResolvedByChoices ResolutionTrigger = "choices"
	ResolvedByTimeout ResolutionTrigger = "timeout"
)

// RoundStatus is the lifecycle state of a single round
type RoundStatus string

const (
	RoundOpen     RoundStatus = "open"
	RoundResolved RoundStatus = "resolved"
)

// Round is one entry in a game's round ledger
type Round struct {
	Number        int               `json:"round_number"`
	Player1Choice Choice            `json:"player1_choice"`
	Player2Choice Choice            `json:"player2_choice"`
	Player1Score  int               `json:"player1_score"`
	Player2Score  int               `json:"player2_score"`
	CreatedAt     time.Time         `json:"created_at"`
	ResolvedAt    *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy    ResolutionTrigger `json:"resolved_by,omitempty"`
}

// Status returns whether the round is still accepting choices
func (r *Round) Status() RoundStatus {
	if r.ResolvedAt != nil {
		return RoundResolved
	}
	return RoundOpen
}

// Choice returns the choice recorded for a seat
func (r *Round) Choice(role PlayerRole) Choice {
	if role == RolePlayer1 {
		return r.Player1Choice
	}
	return r.Player2Choice
}

// SetChoice records a seat's choice. Choices are immutable once set.
func (r *Round) SetChoice(role PlayerRole, c Choice) error {
	if r.Status() == RoundResolved {
		return ErrInvalidRound
	}
	if r.Choice(role) != ChoiceNone {
		return ErrDuplicateChoice
	}
	if role == RolePlayer1 {
		r.Player1Choice = c
	} else {
		r.Player2Choice = c
	}
	return nil
}

// BothChosen reports whether both seats have chosen
func (r *Round) BothChosen() bool {
	return r.Player1Choice != ChoiceNone && r.Player2Choice != ChoiceNone
}

package model

import (
	"time"
	"unicode/utf8"
)

const (
	// NameMinLength is the minimum player name length in characters
	NameMinLength = 3
	// NameMaxLength is the maximum player name length in characters
	NameMaxLength = 16
)

// PlayerRole identifies a seat in a game
type PlayerRole string

const (
	RolePlayer1 PlayerRole = "player1"
	RolePlayer2 PlayerRole = "player2"
)

// Valid reports whether r is one of the two seats
func (r PlayerRole) Valid() bool {
	return r == RolePlayer1 || r == RolePlayer2
}

// Other returns the opposing seat
func (r PlayerRole) Other() PlayerRole {
	if r == RolePlayer1 {
		return RolePlayer2
	}
	return RolePlayer1
}

// Player is one seat's occupant
type Player struct {
	Name           string     `json:"name"`
	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// ValidateName checks the player name length rule
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < NameMinLength || n > NameMaxLength {
		return ErrInvalidName
	}
	return nil
}

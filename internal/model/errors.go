package model

import "errors"

// ErrorKind classifies an error for callers and transports
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindState      ErrorKind = "state"
	KindAuth       ErrorKind = "auth"
	KindForbidden  ErrorKind = "forbidden"
	KindInternal   ErrorKind = "internal"
)

// Error is a domain error with a stable code and a human-readable message
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of the first domain error in err's chain, or KindInternal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidName   = newError(KindValidation, "INVALID_NAME", "player name must be between 3 and 16 characters")
	ErrMissingCode   = newError(KindValidation, "MISSING_CODE", "game code is required")
	ErrInvalidChoice = newError(KindValidation, "INVALID_CHOICE", "choice must be RED or BLUE")
	ErrInvalidPage   = newError(KindValidation, "INVALID_PAGE", "page must be at least 1 and page_size between 1 and 100")
	ErrInvalidState  = newError(KindValidation, "INVALID_STATE", "unknown game state")

	// Not found errors
	ErrGameNotFound = newError(KindNotFound, "GAME_NOT_FOUND", "game not found")

	// Conflict errors
	ErrGameFull        = newError(KindConflict, "GAME_FULL", "game is full")
	ErrNameTaken       = newError(KindConflict, "NAME_TAKEN", "that name is already used in this game")
	ErrDuplicateChoice = newError(KindConflict, "DUPLICATE_CHOICE", "choice already submitted for this round")
	ErrInvalidRound    = newError(KindConflict, "INVALID_ROUND", "round number does not match the current round")

	// State errors
	ErrSessionNotActive  = newError(KindState, "GAME_NOT_ACTIVE", "game is not active")
	ErrSessionExpired    = newError(KindState, "GAME_EXPIRED", "game lobby has expired")
	ErrNotWaiting        = newError(KindState, "GAME_NOT_WAITING", "game is no longer waiting for players")
	ErrGameOver          = newError(KindState, "GAME_OVER", "game is already over")
	ErrIllegalTransition = newError(KindState, "ILLEGAL_TRANSITION", "illegal game state transition")

	// Auth errors
	ErrUnauthorized       = newError(KindAuth, "UNAUTHORIZED", "missing or invalid token")
	ErrInvalidCredentials = newError(KindAuth, "INVALID_CREDENTIALS", "invalid admin password")

	// Forbidden errors
	ErrForbidden = newError(KindForbidden, "FORBIDDEN", "token is not valid for this game")
	ErrNotOwner  = newError(KindForbidden, "NOT_OWNER", "only the player who created the game can do this")
)

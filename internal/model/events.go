package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventRoundResolved EventType = "round_resolved"
	EventRoundStarted  EventType = "round_started"
	EventGameFinished  EventType = "game_finished"
	EventLobbyActive   EventType = "lobby_active"
	EventDisconnect    EventType = "disconnect"
	EventResume        EventType = "resume"
)

// Event is a session state change destined for subscribers
type Event struct {
	Type      EventType
	GameID    GameID
	Timestamp time.Time
	Payload   any
}

// RoundResolvedPayload contains data for round resolved events.
// NextRound is zero when the resolved round was the last one.
type RoundResolvedPayload struct {
	Round        int
	NextRound    int
	Player1Score int
	Player2Score int
	Rounds       []Round
	State        GameState
}

// RoundStartedPayload announces a freshly opened round window
type RoundStartedPayload struct {
	Round    int
	Deadline time.Time
}

// GameFinishedPayload contains data for game finished events
type GameFinishedPayload struct {
	Reason       FinishReason
	State        GameState
	Winner       Outcome
	Player1Score int
	Player2Score int
	// PlayerName is the player who surrendered or left, when Reason is abandon
	PlayerName string
}

// LobbyActivePayload contains data for opponent joined events
type LobbyActivePayload struct {
	Player2Name string
	State       GameState
}

// PresencePayload contains data for disconnect and resume events
type PresencePayload struct {
	PlayerName string
	Role       PlayerRole
	State      GameState
}

package response

import (
	"time"

	"github.com/mcoot/redblue/internal/model"
)

// Seat is the response for create and join
type Seat struct {
	GameID string `json:"game_id"`
	Code   string `json:"code"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// Round is one ledger entry. Choices in the open round are hidden from everyone but their owner.
type Round struct {
	RoundNumber   int        `json:"round_number"`
	Player1Choice string     `json:"player1_choice"`
	Player2Choice string     `json:"player2_choice"`
	Player1Chosen bool       `json:"player1_chosen"`
	Player2Chosen bool       `json:"player2_chosen"`
	Player1Score  int        `json:"player1_score"`
	Player2Score  int        `json:"player2_score"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy    string     `json:"resolved_by,omitempty"`
}

// RoundFromModel converts a ledger entry as seen by viewer
func RoundFromModel(r model.Round, viewer model.PlayerRole) Round {
	resolved := r.Status() == model.RoundResolved
	out := Round{
		RoundNumber:   r.Number,
		Player1Chosen: r.Player1Choice != model.ChoiceNone,
		Player2Chosen: r.Player2Choice != model.ChoiceNone,
		Player1Score:  r.Player1Score,
		Player2Score:  r.Player2Score,
		CreatedAt:     r.CreatedAt,
		ResolvedAt:    r.ResolvedAt,
		ResolvedBy:    string(r.ResolvedBy),
	}
	if resolved || viewer == model.RolePlayer1 {
		out.Player1Choice = string(r.Player1Choice)
	}
	if resolved || viewer == model.RolePlayer2 {
		out.Player2Choice = string(r.Player2Choice)
	}
	return out
}

// Game is the full session snapshot
type Game struct {
	ID                    string     `json:"id"`
	Code                  string     `json:"code"`
	Visibility            string     `json:"visibility"`
	GameState             string     `json:"game_state"`
	Player1Name           string     `json:"player1_name"`
	Player2Name           string     `json:"player2_name,omitempty"`
	Player1Connected      bool       `json:"player1_connected"`
	Player2Connected      bool       `json:"player2_connected"`
	Player1DisconnectedAt *time.Time `json:"player1_disconnected_at"`
	Player2DisconnectedAt *time.Time `json:"player2_disconnected_at"`
	Player1Score          int        `json:"player1_score"`
	Player2Score          int        `json:"player2_score"`
	CurrentRound          int        `json:"current_round"`
	RoundDeadline         *time.Time `json:"round_deadline,omitempty"`
	Rounds                []Round    `json:"rounds"`
	Winner                string     `json:"winner,omitempty"`
	FinishReason          string     `json:"finish_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	FinishedAt            *time.Time `json:"finished_at"`
	Role                  string     `json:"role,omitempty"`
}

// GameFromModel converts a game as seen by viewer. An empty viewer sees no open-round choices.
func GameFromModel(g *model.Game, viewer model.PlayerRole) Game {
	out := Game{
		ID:           string(g.ID),
		Code:         string(g.Code),
		Visibility:   string(g.Visibility),
		GameState:    string(g.State),
		Player1Score: g.Player1Score,
		Player2Score: g.Player2Score,
		CurrentRound: g.CurrentRound,
		Rounds:       make([]Round, 0, len(g.Rounds)),
		Winner:       string(g.Winner),
		FinishReason: string(g.FinishReason),
		CreatedAt:    g.CreatedAt,
		FinishedAt:   g.FinishedAt,
		Role:         string(viewer),
	}
	if p := g.Player1; p != nil {
		out.Player1Name = p.Name
		out.Player1Connected = p.Connected
		out.Player1DisconnectedAt = p.DisconnectedAt
	}
	if p := g.Player2; p != nil {
		out.Player2Name = p.Name
		out.Player2Connected = p.Connected
		out.Player2DisconnectedAt = p.DisconnectedAt
	}
	for _, r := range g.Rounds {
		out.Rounds = append(out.Rounds, RoundFromModel(r, viewer))
	}
	return out
}

// GamesFromModel converts a listing as seen by an administrator
func GamesFromModel(games []*model.Game) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		out = append(out, GameFromModel(g, ""))
	}
	return out
}

// ChoiceResponse acknowledges a submitted choice
type ChoiceResponse struct {
	Message     string `json:"message"`
	RoundNumber int    `json:"round_number"`
	Choice      string `json:"choice"`
	Game        Game   `json:"game"`
}

// PublicGame is a joinable lobby in the public listing
type PublicGame struct {
	GameID      string    `json:"game_id"`
	Code        string    `json:"code"`
	Player1Name string    `json:"player1_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublicGamesResponse is the public lobby listing
type PublicGamesResponse struct {
	Games []PublicGame `json:"games"`
}

// PublicGamesFromModel converts open lobbies
func PublicGamesFromModel(games []*model.Game) PublicGamesResponse {
	out := PublicGamesResponse{Games: make([]PublicGame, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, PublicGame{
			GameID:      string(g.ID),
			Code:        string(g.Code),
			Player1Name: g.PlayerName(model.RolePlayer1),
			CreatedAt:   g.CreatedAt,
		})
	}
	return out
}

// VisibilityResponse reports a game's new visibility
type VisibilityResponse struct {
	GameID     string `json:"game_id"`
	Visibility string `json:"visibility"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// AdminLoginResponse carries the admin bearer token
type AdminLoginResponse struct {
	AdminToken string `json:"admin_token"`
}

// AdminGamesResponse is one page of the admin listing
type AdminGamesResponse struct {
	Games      []Game `json:"games"`
	FoundGames int    `json:"found_games"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// CleanupResponse reports how many games a cleanup removed
type CleanupResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// HistoryResponse lists archived games
type HistoryResponse struct {
	Games []Game `json:"games"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status string `json:"status"`
}

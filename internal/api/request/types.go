package request

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	Player1Name string `json:"player1_name"`
	Visibility  string `json:"visibility,omitempty"`
}

// JoinGameRequest is the request body for joining a game by code
type JoinGameRequest struct {
	PlayerName string `json:"player_name"`
	Code       string `json:"code"`
}

// ChoiceRequest is the request body for submitting a round choice.
// GameID and RoundNumber, when set, must match the path.
type ChoiceRequest struct {
	GameID      string `json:"game_id,omitempty"`
	RoundNumber int    `json:"round_number,omitempty"`
	PlayerName  string `json:"player_name,omitempty"`
	Choice      string `json:"choice"`
	Token       string `json:"token,omitempty"`
}

// AbandonRequest is the request body for surrendering a game
type AbandonRequest struct {
	GameID     string `json:"game_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Token      string `json:"token,omitempty"`
}

// AdminLoginRequest is the request body for admin login
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// AdminRequest is the request body for admin actions that carry the token in the body
type AdminRequest struct {
	AdminToken string `json:"admin_token,omitempty"`
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mcoot/redblue/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"detail": err.Error()})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Seat:
		o.printSeat(v)
	case response.Game:
		o.printGame(v)
	case response.ChoiceResponse:
		fmt.Fprintf(o.w, "%s: %s for round %d\n", v.Message, v.Choice, v.RoundNumber)
		o.printGame(v.Game)
	case response.PublicGamesResponse:
		o.printPublicGames(v)
	case response.VisibilityResponse:
		fmt.Fprintf(o.w, "Game %s is now %s\n", v.GameID, v.Visibility)
	case response.AdminLoginResponse:
		fmt.Fprintln(o.w, "Logged in as admin")
		fmt.Fprintf(o.w, "Admin token: %s\n", v.AdminToken)
	case response.AdminGamesResponse:
		fmt.Fprintf(o.w, "Games: %d found (page %d, %d per page)\n", v.FoundGames, v.Page, v.PageSize)
		o.printGameRows(v.Games)
	case response.CleanupResponse:
		fmt.Fprintf(o.w, "%s: %d removed\n", v.Message, v.Removed)
	case response.HistoryResponse:
		fmt.Fprintf(o.w, "Archived games: %d\n", len(v.Games))
		o.printGameRows(v.Games)
	case response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printSeat(s response.Seat) {
	fmt.Fprintf(o.w, "Game: %s\n", s.GameID)
	fmt.Fprintf(o.w, "Code: %s\n", s.Code)
	fmt.Fprintf(o.w, "Role: %s\n", s.Role)
	fmt.Fprintf(o.w, "Token: %s\n", s.Token)
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s (code %s, %s)\n", g.ID, g.Code, g.Visibility)
	fmt.Fprintf(o.w, "State: %s\n", g.GameState)
	if g.Role != "" {
		fmt.Fprintf(o.w, "You are: %s\n", g.Role)
	}
	fmt.Fprintf(o.w, "Player 1: %s\n", playerLine(g.Player1Name, g.Player1Score, g.Player1Connected, g.Player1DisconnectedAt != nil))
	if g.Player2Name != "" {
		fmt.Fprintf(o.w, "Player 2: %s\n", playerLine(g.Player2Name, g.Player2Score, g.Player2Connected, g.Player2DisconnectedAt != nil))
	} else {
		fmt.Fprintln(o.w, "Player 2: (waiting)")
	}
	if g.CurrentRound > 0 {
		fmt.Fprintf(o.w, "Round: %d\n", g.CurrentRound)
	}
	if g.RoundDeadline != nil {
		fmt.Fprintf(o.w, "Deadline: %s\n", g.RoundDeadline.Local().Format("15:04:05"))
	}

	if len(g.Rounds) > 0 {
		fmt.Fprintln(o.w, "\nRounds:")
		for _, r := range g.Rounds {
			fmt.Fprintf(o.w, "  %2d  %-5s %-5s  %+d / %+d\n",
				r.RoundNumber,
				choiceCell(r.Player1Choice, r.Player1Chosen),
				choiceCell(r.Player2Choice, r.Player2Chosen),
				r.Player1Score, r.Player2Score)
		}
	}

	if g.Winner != "" {
		fmt.Fprintf(o.w, "\nWinner: %s (%s)\n", winnerName(g), g.FinishReason)
	}
}

func (o *Output) printPublicGames(p response.PublicGamesResponse) {
	if len(p.Games) == 0 {
		fmt.Fprintln(o.w, "No public games")
		return
	}
	for _, g := range p.Games {
		fmt.Fprintf(o.w, "  %s  %-16s  created %s\n", g.Code, g.Player1Name, g.CreatedAt.Local().Format("15:04:05"))
	}
}

func (o *Output) printGameRows(games []response.Game) {
	for _, g := range games {
		players := g.Player1Name
		if g.Player2Name != "" {
			players += " vs " + g.Player2Name
		}
		fmt.Fprintf(o.w, "  %s  %s  %-9s  %s  %d:%d\n", g.ID, g.Code, g.GameState, players, g.Player1Score, g.Player2Score)
	}
}

func playerLine(name string, score int, connected, away bool) string {
	line := fmt.Sprintf("%s, %d points", name, score)
	switch {
	case away:
		line += " [disconnected]"
	case connected:
		line += " [connected]"
	}
	return line
}

// choiceCell shows a hidden choice as "?" and a missing one as "-"
func choiceCell(choice string, chosen bool) string {
	switch {
	case choice != "":
		return choice
	case chosen:
		return "?"
	default:
		return "-"
	}
}

func winnerName(g response.Game) string {
	switch g.Winner {
	case "player1":
		return g.Player1Name
	case "player2":
		return g.Player2Name
	default:
		return g.Winner
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/redblue/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameChooseCmd())
	cmd.AddCommand(newGameAbandonCmd())
	cmd.AddCommand(newGameVisibilityCmd())
	cmd.AddCommand(newGameDeleteCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	var public bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new game and wait for an opponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			visibility := "private"
			if public {
				visibility = "public"
			}
			req := map[string]string{"player1_name": args[0], "visibility": visibility}

			var result response.Seat
			if err := client.Post("/api/v1/game/create", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "List the game publicly")

	return cmd
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code> <name>",
		Short: "Join a game by its code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"code": args[0], "player_name": args[1]}

			var result response.Seat
			if err := client.Post("/api/v1/game/join", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get current game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game
			if err := client.Get("/api/v1/game/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameChooseCmd() *cobra.Command {
	var round int

	cmd := &cobra.Command{
		Use:   "choose <id> <RED|BLUE>",
		Short: "Submit a choice for the current round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			choice := strings.ToUpper(args[1])
			if choice != "RED" && choice != "BLUE" {
				return fmt.Errorf("choice must be RED or BLUE")
			}

			// Default to whichever round is open
			if round == 0 {
				var game response.Game
				if err := client.Get("/api/v1/game/"+id, &game); err != nil {
					return err
				}
				round = game.CurrentRound
			}

			req := map[string]any{"game_id": id, "round_number": round, "choice": choice}
			var result response.ChoiceResponse

			if err := client.Post(fmt.Sprintf("/api/v1/game/%s/round/%d/choice", id, round), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&round, "round", 0, "Round number (default: the current round)")

	return cmd
}

func newGameAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <id>",
		Short: "Surrender the game to your opponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game
			if err := client.Post(fmt.Sprintf("/api/v1/game/%s/abandon", args[0]), map[string]string{"game_id": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameVisibilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visibility <id>",
		Short: "Toggle whether a waiting game is listed publicly (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.VisibilityResponse
			if err := client.Post(fmt.Sprintf("/api/v1/game/%s/change_visibility", args[0]), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a game that is still waiting (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse
			if err := client.Delete(fmt.Sprintf("/api/v1/game/%s/delete", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(result.Message)
			return nil
		},
	}
}

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Game listings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "public",
		Short: "List public games waiting for an opponent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.PublicGamesResponse
			if err := client.Get("/api/v1/games/public", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/redblue/internal/api/response"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminLoginCmd())
	cmd.AddCommand(newAdminGamesCmd())
	cmd.AddCommand(newAdminCleanupCmd())
	cmd.AddCommand(newAdminHistoryCmd())

	return cmd
}

// adminClient sends the admin token instead of the player token
func adminClient() (*Client, error) {
	if cfg.AdminToken == "" {
		return nil, errors.New("no admin token: run 'redblue admin login' first")
	}
	return client.WithToken(cfg.AdminToken), nil
}

func newAdminLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <password>",
		Short: "Log in as administrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.AdminLoginResponse
			if err := client.WithToken("").Post("/api/v1/admin/login", map[string]string{"password": args[0]}, &result); err != nil {
				return err
			}

			if err := cfg.SaveAdminToken(result.AdminToken); err != nil {
				return fmt.Errorf("failed to save admin token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminGamesCmd() *cobra.Command {
	var page, pageSize int
	var state string

	cmd := &cobra.Command{
		Use:   "games",
		Short: "List all games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := adminClient()
			if err != nil {
				return err
			}

			q := url.Values{}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if pageSize > 0 {
				q.Set("page_size", strconv.Itoa(pageSize))
			}
			if state != "" {
				q.Set("game_state", state)
			}
			path := "/api/v1/games"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result response.AdminGamesResponse
			if err := c.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number (default 1)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Games per page (default 10, max 100)")
	cmd.Flags().StringVar(&state, "state", "", "Only list games in this state")

	return cmd
}

func newAdminCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired lobbies and old finished games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := adminClient()
			if err != nil {
				return err
			}

			var result response.CleanupResponse
			if err := c.Post("/api/v1/admin/cleanup", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived games, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := adminClient()
			if err != nil {
				return err
			}

			path := "/api/v1/admin/history"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}

			var result response.HistoryResponse
			if err := c.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of games (default 50)")

	return cmd
}

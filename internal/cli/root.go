package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "redblue",
		Short: "CLI tool for the RED/BLUE game API",
		Long: `redblue is a CLI tool for interacting with the RED/BLUE game JSON API.

It covers matchmaking, playing rounds, admin operations and watching a
game's WebSocket feed in real time.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load tokens from file if not provided via flag/env
			if err := cfg.LoadTokens(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: REDBLUE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Player token (env: REDBLUE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Player token file path (env: REDBLUE_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminToken, "admin-token", cfg.AdminToken, "Admin token (env: REDBLUE_ADMIN_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminTokenFile, "admin-token-file", cfg.AdminTokenFile, "Admin token file path (env: REDBLUE_ADMIN_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newGamesCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

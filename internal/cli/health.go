package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/redblue/internal/api/response"
)

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  "Check server health. With --wait, retry until the server answers or the wait elapses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.HealthResponse

			deadline := time.Now().Add(wait)
			for {
				err := client.Get("/api/v1/health", &result)
				if err == nil {
					break
				}
				if time.Now().After(deadline) {
					return err
				}
				time.Sleep(250 * time.Millisecond)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "keep retrying for up to this long")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check server health.

By default this calls /api/v1/health and prints the server's status and
clock. With --live only the bare /healthz probe is checked, which is what
process supervisors poll.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			if live {
				if err := client.Live(cmd.Context()); err != nil {
					return err
				}
				out.PrintMessage("Server is live")
				return nil
			}

			var result HealthResult
			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Only check the liveness probe")

	return cmd
}

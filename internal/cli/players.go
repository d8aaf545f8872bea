package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newTodayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List players available today",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/players/today"
			if date != "" {
				path += "?date=" + url.QueryEscape(date)
			}

			var result TodayResult
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to look at, YYYY-MM-DD (default: today)")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show player counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatsResult
			if err := client.Get(cmd.Context(), "/api/v1/stats", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerDeleteCmd())

	return cmd
}

func newPlayerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a player and their declarations (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.AdminDelete(cmd.Context(), "/api/v1/players/"+url.PathEscape(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Player %s deleted", args[0]))
			return nil
		},
	}
}

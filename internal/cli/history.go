package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune standup history",
}

var historyListLimit int

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent standups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if History == nil {
			return fmt.Errorf("standup history not initialized")
		}

		entries, err := History.Recent(historyListLimit)
		if err != nil {
			return fmt.Errorf("reading standup history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No standups recorded yet.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("--- %s (id: %s) ---\n%s\n\n", e.Date, e.ID, e.Summary)
		}
		return nil
	},
}

var historyPruneDays int

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete standups older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if History == nil {
			return fmt.Errorf("standup history not initialized")
		}

		days := historyPruneDays
		if days <= 0 && Config != nil {
			days = Config.HistoryDaysToKeep
		}
		if days <= 0 {
			days = 30
		}

		removed, err := History.Prune(days)
		if err != nil {
			return fmt.Errorf("pruning standup history: %w", err)
		}
		fmt.Printf("Removed %d standup(s) older than %d days.\n", removed, days)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyListLimit, "limit", 5, "Number of standups to show")
	historyPruneCmd.Flags().IntVar(&historyPruneDays, "days", 0, "Retention window in days (default from config)")
	historyCmd.AddCommand(historyListCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

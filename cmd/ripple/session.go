package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session [counter]",
	Short: "Show or set the session counter used for staleness",
	Long: `Show or set the session counter. Review prompts compare an item's
last-touched session against the current counter; items untouched for
three or more sessions are flagged stale.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Printf("Current session: %d\n", currentSession(cmd.Context()))
			return nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid session counter %q: %w", args[0], err)
		}
		if err := store.SetConfig(cmd.Context(), "current_session", args[0]); err != nil {
			return err
		}
		fmt.Printf("Session counter set to %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/cascade"
)

var cascadeCmd = &cobra.Command{
	Use:   "cascade <id>",
	Short: "Run the completion cascade for an item",
	Long: `Recompute the downstream effects of an item's completion: dependents
to unblock, related items to re-review, milestone progress, documentation
mentions, and review prompts.

The cascade only fires when the item's status is terminal. It is
idempotent: re-running it against an unchanged corpus reproduces the same
report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		item, err := eng.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		report, err := casc.Run(cmd.Context(), item.ID, item.Status, cascade.RunOptions{DryRun: dryRun})
		if err != nil {
			return err
		}
		fmt.Print(report.Summary)
		return nil
	},
}

func init() {
	cascadeCmd.Flags().Bool("dry-run", false, "compute the report without appending an audit event")
	rootCmd.AddCommand(cascadeCmd)
}

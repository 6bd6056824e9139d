package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/cascade"
)

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Mark a work item complete and run the cascade",
	Long: `Mark a work item complete, stamp the closure time, and run the
completion cascade: unblock dependents, flag related items, advance the
milestone, and surface documentation mentions.

The record itself stays in the active namespace; status, not location, is
authoritative. Use "ripple archive" to move it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		id, err := eng.Close(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Closed %s\n", green("✓"), id)

		item, err := eng.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		report, err := casc.Run(cmd.Context(), id, item.Status, cascade.RunOptions{DryRun: dryRun})
		if err != nil {
			return err
		}
		fmt.Print(report.Summary)

		if !dryRun {
			for _, delta := range report.MilestoneDeltas {
				if err := casc.ApplyMilestoneDelta(cmd.Context(), id, delta); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	closeCmd.Flags().Bool("dry-run", false, "compute the cascade without logging or milestone writes")
	rootCmd.AddCommand(closeCmd)
}

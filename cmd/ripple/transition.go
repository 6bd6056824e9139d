package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/cascade"
)

var transitionCmd = &cobra.Command{
	Use:   "transition <id> <node>",
	Short: "Move a work item to a new lifecycle node",
	Long: `Move a work item to a new lifecycle node.

The move must be legal for the item's lifecycle; the open node-history
entry is closed and a new one opened. If the item's status is already
terminal the completion cascade runs afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.Transition(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s is now at %s\n", green("✓"), item.ID, item.CyclePhase)

		// The cascade fires on terminal status, not on any particular node.
		if item.Status.IsTerminal() {
			report, err := casc.Run(cmd.Context(), item.ID, item.Status, cascade.RunOptions{})
			if err != nil {
				return err
			}
			fmt.Print(report.Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transitionCmd)
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/engine"
	"github.com/ripplework/ripple/internal/types"
)

var createCmd = &cobra.Command{
	Use:   "create <id> <title>",
	Short: "Create a work item",
	Long: `Create a work item seeded at its lifecycle's entry node.

Re-creating an existing non-terminal ID overwrites it; an ID whose record
is complete or archived is unavailable.

Examples:
  ripple create core-12 "Wire the cascade engine"
  ripple create core-13 "Spike: report format" --type spike --priority high
  ripple create core-14 "Queue ordering" --milestone m1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		milestone, _ := cmd.Flags().GetString("milestone")
		priority, _ := cmd.Flags().GetString("priority")
		workType, _ := cmd.Flags().GetString("type")

		item, err := eng.Create(cmd.Context(), args[0], args[1], engine.CreateOptions{
			Milestone: milestone,
			Priority:  types.Priority(priority),
			Type:      types.WorkType(workType),
		})
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created %s at %s\n", green("✓"), item.ID, item.CyclePhase)
		return nil
	},
}

func init() {
	createCmd.Flags().String("milestone", "", "milestone id")
	createCmd.Flags().String("priority", "", "critical|high|medium|low (default medium)")
	createCmd.Flags().String("type", "", "feature|investigation|bug|chore|spike (default feature)")
	rootCmd.AddCommand(createCmd)
}

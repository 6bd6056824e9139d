package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/types"
)

var milestoneCmd = &cobra.Command{
	Use:   "milestone",
	Short: "Manage milestones",
}

var milestoneCreateCmd = &cobra.Command{
	Use:   "create <id> <name> [item...]",
	Short: "Create a milestone over a set of work items",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := &types.Milestone{
			ID:    args[0],
			Name:  args[1],
			Items: args[2:],
		}
		if err := store.PutMilestone(cmd.Context(), m); err != nil {
			return err
		}
		fmt.Printf("Milestone %s tracks %d items\n", m.ID, len(m.Items))
		return nil
	},
}

var milestoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List milestones with progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		milestones, err := store.ListMilestones(cmd.Context())
		if err != nil {
			return err
		}
		if len(milestones) == 0 {
			fmt.Println("No milestones")
			return nil
		}
		for _, m := range milestones {
			fmt.Printf("%-16s %3d%%  %s (%d/%d complete)\n",
				m.ID, m.Progress, m.Name, len(m.Complete), len(m.Items))
		}
		return nil
	},
}

func init() {
	milestoneCmd.AddCommand(milestoneCreateCmd)
	milestoneCmd.AddCommand(milestoneListCmd)
	rootCmd.AddCommand(milestoneCmd)
}

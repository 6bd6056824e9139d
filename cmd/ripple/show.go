package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a work item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(item)
		}

		fmt.Printf("%s: %s\n", item.ID, item.Title)
		fmt.Printf("  status:   %s\n", item.Status)
		fmt.Printf("  type:     %s (%s)\n", item.Type, item.Priority)
		fmt.Printf("  phase:    %s\n", item.CyclePhase)
		fmt.Printf("  position: %s\n", item.QueuePosition)
		if item.Milestone != "" {
			fmt.Printf("  milestone: %s\n", item.Milestone)
		}
		if len(item.BlockedBy) > 0 {
			fmt.Printf("  blocked by: %v\n", item.BlockedBy)
		}
		if len(item.Related) > 0 {
			fmt.Printf("  related: %v\n", item.Related)
		}
		fmt.Printf("  history:\n")
		for _, entry := range item.NodeHistory {
			if entry.ExitedAt != nil {
				fmt.Printf("    %s  %s -> %s\n", entry.Node,
					entry.EnteredAt.Format("2006-01-02 15:04"),
					entry.ExitedAt.Format("2006-01-02 15:04"))
			} else {
				fmt.Printf("    %s  %s -> (open)\n", entry.Node,
					entry.EnteredAt.Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(showCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage memory references",
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <id> <ref>...",
	Short: "Attach memory references to a work item",
	Long: `Attach memory reference IDs to a work item. Duplicates are ignored.
The memory bridge and reference portal are notified best-effort; their
failures never fail the command.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.AddMemoryRefs(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d memory refs\n", item.ID, len(item.MemoryRefs))
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryAddCmd)
	rootCmd.AddCommand(memoryCmd)
}

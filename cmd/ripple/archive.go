package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move a work item to the archive namespace",
	Long: `Move a work item and its substructure from the active namespace to
the archive. The record is preserved in full; nothing is ever deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := eng.Archive(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Archived %s\n", green("✓"), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

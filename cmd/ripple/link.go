package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage blocking and related links",
}

var linkBlocksCmd = &cobra.Command{
	Use:   "blocks <id> <blocker>",
	Short: "Record that an item is blocked by another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.AddBlocker(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s blocked by %v\n", item.ID, item.BlockedBy)
		return nil
	},
}

var linkUnblockCmd = &cobra.Command{
	Use:   "unblock <id> <blocker>",
	Short: "Remove a blocker from an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.RemoveBlocker(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s blocked by %v\n", item.ID, item.BlockedBy)
		return nil
	},
}

var linkRelatedCmd = &cobra.Command{
	Use:   "related <id> <other>",
	Short: "Flag two items for review together",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.AddRelated(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s related to %v\n", item.ID, item.Related)
		return nil
	},
}

func init() {
	linkCmd.AddCommand(linkBlocksCmd)
	linkCmd.AddCommand(linkUnblockCmd)
	linkCmd.AddCommand(linkRelatedCmd)
	rootCmd.AddCommand(linkCmd)
}

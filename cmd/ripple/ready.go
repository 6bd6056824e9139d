package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List unblocked, workable items",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := eng.GetReady(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No ready work")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%-16s %-8s %s\n", item.ID, item.Priority, item.Title)
		}
		return nil
	},
}

var inProgressCmd = &cobra.Command{
	Use:   "in-progress",
	Short: "List items currently in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := eng.GetInProgress(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing in progress")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%-16s %-12s %s\n", item.ID, item.CyclePhase, item.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(inProgressCmd)
}

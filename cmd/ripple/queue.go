package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/engine"
	"github.com/ripplework/ripple/internal/types"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect work queues",
}

var queueListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List a queue's items in policy order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := engine.DefaultQueueName
		if len(args) == 1 {
			name = args[0]
		}
		items, err := eng.GetQueue(cmd.Context(), name)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Printf("Queue %s is empty\n", name)
			return nil
		}
		for i, item := range items {
			fmt.Printf("%2d. %-16s %-8s %s\n", i+1, item.ID, item.Priority, item.Title)
		}
		return nil
	},
}

var queueNextCmd = &cobra.Command{
	Use:   "next [name]",
	Short: "Show the head of a queue",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := engine.DefaultQueueName
		if len(args) == 1 {
			name = args[0]
		}
		item, err := eng.GetNext(cmd.Context(), name)
		if err != nil {
			return err
		}
		if item == nil {
			fmt.Printf("Queue %s is empty\n", name)
			return nil
		}
		fmt.Printf("%s: %s\n", item.ID, item.Title)
		return nil
	},
}

var queuePositionCmd = &cobra.Command{
	Use:   "position <id> <backlog|in_progress|done>",
	Short: "Move an item between kanban columns",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := eng.SetQueuePosition(cmd.Context(), args[0], types.QueuePosition(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", item.ID, item.QueuePosition)
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueNextCmd)
	queueCmd.AddCommand(queuePositionCmd)
	rootCmd.AddCommand(queueCmd)
}

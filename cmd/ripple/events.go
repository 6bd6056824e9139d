package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/eventlog"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the cascade audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		log := eventlog.New(eventLogPath)
		events, err := log.Read(cmd.Context())
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No cascade events")
			return nil
		}
		if limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}
		for _, e := range events {
			fmt.Printf("%s  %s  %s\n", e.Timestamp, e.Source, strings.Join(e.Effects, " "))
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().Int("limit", 20, "show at most this many recent events")
	rootCmd.AddCommand(eventsCmd)
}

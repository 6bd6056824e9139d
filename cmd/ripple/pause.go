package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause-point <id>",
	Short: "Check whether an item is at a safe pause point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := eng.IsAtPausePoint(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ok {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %s is at a safe pause point\n", green("✓"), args[0])
		} else {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s %s is mid-phase; finish the current node before pausing\n",
				yellow("!"), args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
}

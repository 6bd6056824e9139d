package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ripplework/ripple/internal/lifecycle"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .ripple workspace",
	Long: `Create the workspace database and write starter queue and lifecycle
configuration files. Existing files are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The database itself was created by command setup; this writes the
		// editable config files next to it.
		green := color.New(color.FgGreen).SprintFunc()

		if err := writeIfAbsent(queuePath, starterQueueConfig()); err != nil {
			return err
		}
		if err := writeIfAbsent(lifecyclePath, starterLifecycleConfig()); err != nil {
			return err
		}

		fmt.Printf("%s Initialized workspace (db: %s)\n", green("✓"), dbPath)
		return nil
	},
}

func writeIfAbsent(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  %s exists; keeping it\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("  wrote %s\n", path)
	return nil
}

func starterQueueConfig() []byte {
	return []byte(`# Named work queues. Items may be an explicit id list or [auto],
# which derives membership from ready work.
queues:
  default:
    type: priority
    items: [auto]
  oldest:
    type: fifo
    items: [auto]
`)
}

func starterLifecycleConfig() []byte {
	data, err := yaml.Marshal(lifecycle.DefaultConfig())
	if err != nil {
		// DefaultConfig is a static literal; marshaling it cannot fail.
		panic(err)
	}
	return data
}

func init() {
	rootCmd.AddCommand(initCmd)
}

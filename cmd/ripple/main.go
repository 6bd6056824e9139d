package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ripplework/ripple/internal/cascade"
	"github.com/ripplework/ripple/internal/engine"
	"github.com/ripplework/ripple/internal/eventlog"
	"github.com/ripplework/ripple/internal/lifecycle"
	"github.com/ripplework/ripple/internal/storage"
)

var (
	dbPath        string
	queuePath     string
	lifecyclePath string
	eventLogPath  string
	verbose       bool

	store  storage.Storage
	eng    *engine.Engine
	casc   *cascade.Engine
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ripple",
	Short: "Work-item tracker with completion cascades",
	Long: `ripple tracks discrete units of work as they move through lifecycle
graphs, and propagates the consequences of each completion: unblocking
dependents, flagging related items for review, advancing milestones, and
surfacing stale work.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
}

func setup(ctx context.Context) error {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	var err error
	store, err = storage.NewStorage(ctx, &storage.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	cycles, err := lifecycle.LoadConfig(lifecyclePath)
	if err != nil {
		return err
	}

	eng, err = engine.New(engine.Config{
		Store:           store,
		Cycles:          cycles,
		Validator:       lifecycle.NewGraphValidator(cycles),
		QueueConfigPath: queuePath,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	casc, err = cascade.New(cascade.Config{
		Store:          store,
		Events:         eventlog.New(eventLogPath),
		CurrentSession: currentSession,
		Logger:         logger,
	})
	return err
}

// currentSession reads the session counter from storage config. Absent or
// malformed values count as session 0.
func currentSession(ctx context.Context) int {
	value, err := store.GetConfig(ctx, "current_session")
	if err != nil || value == "" {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0
	}
	return n
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", ".ripple/ripple.db", "work item database path")
	rootCmd.PersistentFlags().StringVar(&queuePath, "queues", ".ripple/queues.yaml", "queue config path")
	rootCmd.PersistentFlags().StringVar(&lifecyclePath, "lifecycles", ".ripple/lifecycles.yaml", "lifecycle config path")
	rootCmd.PersistentFlags().StringVar(&eventLogPath, "events", ".ripple/events.jsonl", "audit event log path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

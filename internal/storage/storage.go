package storage

import (
	"context"

	"github.com/ripplework/ripple/internal/storage/sqlite"
	"github.com/ripplework/ripple/internal/types"
)

// Storage defines the interface for work-item storage backends. The work
// engine is the sole writer; every other component reads only.
//
// Records live in one of two namespaces: active or archive. Archival moves
// a record between namespaces but never deletes it.
type Storage interface {
	// Work items
	CreateItem(ctx context.Context, item *types.WorkItem) error
	GetItem(ctx context.Context, id string) (*types.WorkItem, error)
	PutItem(ctx context.Context, item *types.WorkItem) error
	ListActive(ctx context.Context) ([]*types.WorkItem, error)
	ListArchived(ctx context.Context) ([]*types.WorkItem, error)
	ArchiveItem(ctx context.Context, id string) error

	// Milestones
	GetMilestone(ctx context.Context, id string) (*types.Milestone, error)
	PutMilestone(ctx context.Context, m *types.Milestone) error
	ListMilestones(ctx context.Context) ([]*types.Milestone, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".ripple/ripple.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".ripple/ripple.db",
	}
}

// NewStorage creates a new SQLite storage backend.
// The ctx parameter is currently unused but kept for API consistency.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = ".ripple/ripple.db"
	}
	return sqlite.New(cfg.Path)
}

// Package bridge defines the external collaborators the work engine
// notifies but never depends on for correctness. Every call through these
// interfaces is best-effort: the engine logs failures and moves on, and the
// primary state mutation is never rolled back.
package bridge

import (
	"context"

	"github.com/rs/zerolog"
)

// MemoryBridge links work items to opaque memory references in an external
// knowledge system. Fire-and-forget from the engine's point of view.
type MemoryBridge interface {
	AutoLink(ctx context.Context, workItemID string, refIDs []string) error
}

// PortalManager maintains the reference-portal artifact associated with
// each work item. Return values are advisory only.
type PortalManager interface {
	CreatePortal(ctx context.Context, workItemID, path string) error
	UpdatePortal(ctx context.Context, workItemID string, updates map[string]string) error
}

// NoopBridge ignores every notification. Used when no memory system is
// configured.
type NoopBridge struct{}

func (NoopBridge) AutoLink(ctx context.Context, workItemID string, refIDs []string) error {
	return nil
}

// NoopPortal ignores every portal request.
type NoopPortal struct{}

func (NoopPortal) CreatePortal(ctx context.Context, workItemID, path string) error {
	return nil
}

func (NoopPortal) UpdatePortal(ctx context.Context, workItemID string, updates map[string]string) error {
	return nil
}

// LoggingBridge records every notification through a structured logger.
// Useful for observing side-channel traffic without a real backend.
type LoggingBridge struct {
	Logger zerolog.Logger
}

func (b LoggingBridge) AutoLink(ctx context.Context, workItemID string, refIDs []string) error {
	b.Logger.Debug().
		Str("work_item", workItemID).
		Strs("refs", refIDs).
		Msg("memory bridge auto-link")
	return nil
}

// LoggingPortal records every portal request through a structured logger.
type LoggingPortal struct {
	Logger zerolog.Logger
}

func (p LoggingPortal) CreatePortal(ctx context.Context, workItemID, path string) error {
	p.Logger.Debug().
		Str("work_item", workItemID).
		Str("path", path).
		Msg("portal create")
	return nil
}

func (p LoggingPortal) UpdatePortal(ctx context.Context, workItemID string, updates map[string]string) error {
	p.Logger.Debug().
		Str("work_item", workItemID).
		Int("fields", len(updates)).
		Msg("portal update")
	return nil
}

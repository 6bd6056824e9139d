// Package engine implements the work-item state machine: validated
// lifecycle transitions, node-history bookkeeping, closure, archival, and
// queue selection. The engine is the sole writer of work-item records;
// every mutation flows through one persist path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ripplework/ripple/internal/bridge"
	"github.com/ripplework/ripple/internal/lifecycle"
	"github.com/ripplework/ripple/internal/storage"
	"github.com/ripplework/ripple/internal/types"
)

// defaultExcludedStatuses are skipped by GetReady in addition to whatever
// the caller configures. These are statuses that mean "no work will happen
// here" without necessarily being cascade triggers.
var defaultExcludedStatuses = []string{
	"complete", "archived", "dismissed", "invalid", "deferred",
}

// Config wires the engine's collaborators at construction time. Nothing is
// read from ambient process state.
type Config struct {
	Store     storage.Storage
	Validator lifecycle.Validator
	Cycles    *lifecycle.Config
	Memory    bridge.MemoryBridge
	Portal    bridge.PortalManager

	// QueueConfigPath locates the YAML queue definitions. A missing file
	// falls back to a single default priority queue with auto membership.
	QueueConfigPath string

	// ExcludedStatuses overrides the ready-work exclusion set.
	ExcludedStatuses []string

	Logger zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine owns all reads and writes of work-item records.
type Engine struct {
	store     storage.Storage
	validator lifecycle.Validator
	cycles    *lifecycle.Config
	memory    bridge.MemoryBridge
	portal    bridge.PortalManager
	queuePath string
	excluded  map[string]bool
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a work engine. Store is required; every other collaborator
// has a usable default.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine requires a storage backend")
	}
	if cfg.Cycles == nil {
		cfg.Cycles = lifecycle.DefaultConfig()
	}
	if cfg.Validator == nil {
		cfg.Validator = lifecycle.NewGraphValidator(cfg.Cycles)
	}
	if cfg.Memory == nil {
		cfg.Memory = bridge.NoopBridge{}
	}
	if cfg.Portal == nil {
		cfg.Portal = bridge.NoopPortal{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	excluded := make(map[string]bool)
	statuses := cfg.ExcludedStatuses
	if len(statuses) == 0 {
		statuses = defaultExcludedStatuses
	}
	for _, s := range statuses {
		excluded[s] = true
	}

	return &Engine{
		store:     cfg.Store,
		validator: cfg.Validator,
		cycles:    cfg.Cycles,
		memory:    cfg.Memory,
		portal:    cfg.Portal,
		queuePath: cfg.QueueConfigPath,
		excluded:  excluded,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}, nil
}

// Get retrieves a work item, looking in the active namespace first and the
// archive second.
func (e *Engine) Get(ctx context.Context, id string) (*types.WorkItem, error) {
	return e.store.GetItem(ctx, id)
}

// CreateOptions carries the optional fields of Create.
type CreateOptions struct {
	Milestone string
	Priority  types.Priority
	Type      types.WorkType
}

// Create makes a new work item seeded at its lifecycle's entry node.
//
// An existing record with the same ID blocks creation only if its status is
// complete or archived; re-creating a non-terminal ID is an idempotent
// overwrite, kept for callers that retry creation.
func (e *Engine) Create(ctx context.Context, id, title string, opts CreateOptions) (*types.WorkItem, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", types.ErrInvalidArgument)
	}

	existing, err := e.store.GetItem(ctx, id)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing item: %w", err)
	}
	if existing != nil && existing.Status.BlocksReuse() {
		return nil, fmt.Errorf("%w: %s is %s", types.ErrIDUnavailable, id, existing.Status)
	}

	if opts.Priority == "" {
		opts.Priority = types.PriorityMedium
	}
	if opts.Type == "" {
		opts.Type = types.TypeFeature
	}

	now := e.now()
	item := &types.WorkItem{
		ID:            id,
		Title:         title,
		Status:        types.StatusActive,
		Type:          opts.Type,
		Priority:      opts.Priority,
		QueuePosition: types.PositionBacklog,
		Milestone:     opts.Milestone,
		CyclePhase:    e.cycles.EntryNode(opts.Type),
		NodeHistory: []types.NodeHistoryEntry{
			{Node: e.cycles.EntryNode(opts.Type), EnteredAt: now},
		},
		CreatedAt: now,
	}

	if err := e.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create work item %s: %w", id, err)
	}

	// Portal creation is a side channel: log and continue on failure.
	portalPath := filepath.Join("portals", id+".md")
	if err := e.portal.CreatePortal(ctx, id, portalPath); err != nil {
		e.logger.Warn().Err(err).Str("work_item", id).
			Msg("portal creation failed; continuing")
	}

	return item, nil
}

// Transition moves a work item to a new lifecycle node after the validator
// approves the move. The open node-history entry is closed and a new one
// appended, both stamped with the same instant.
//
// Transition never triggers the completion cascade itself: the cascade
// fires on terminal *status*, and deciding that is the caller's job.
func (e *Engine) Transition(ctx context.Context, id, toNode string) (*types.WorkItem, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if !e.validator.Validate(item.CyclePhase, toNode) {
		return nil, fmt.Errorf("%w: %s -> %s for %s",
			types.ErrInvalidTransition, item.CyclePhase, toNode, id)
	}

	now := e.now()
	if entry := item.CurrentEntry(); entry != nil && entry.ExitedAt == nil {
		entry.ExitedAt = &now
	}
	item.NodeHistory = append(item.NodeHistory, types.NodeHistoryEntry{
		Node:      toNode,
		EnteredAt: now,
	})
	item.CyclePhase = toNode

	if err := e.persist(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Close marks a work item complete and stamps the closure time. The record
// stays where it is: status, not location, is authoritative. Returns the
// item's identity for the caller's bookkeeping.
func (e *Engine) Close(ctx context.Context, id string) (string, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return "", err
	}

	now := e.now()
	item.Status = types.StatusComplete
	item.ClosedAt = &now

	if err := e.persist(ctx, item); err != nil {
		return "", err
	}
	return item.ID, nil
}

// Archive moves the record from the active namespace to the archive
// namespace, preserving the full record and its substructure.
func (e *Engine) Archive(ctx context.Context, id string) (string, error) {
	if err := e.store.ArchiveItem(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// AddMemoryRefs unions new reference IDs into the item's memory refs, then
// notifies the memory bridge and refreshes the portal. Both notifications
// are best-effort.
func (e *Engine) AddMemoryRefs(ctx context.Context, id string, refs []string) (*types.WorkItem, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(item.MemoryRefs))
	for _, r := range item.MemoryRefs {
		seen[r] = true
	}
	var added []string
	for _, r := range refs {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		item.MemoryRefs = append(item.MemoryRefs, r)
		added = append(added, r)
	}

	if err := e.persist(ctx, item); err != nil {
		return nil, err
	}

	if len(added) > 0 {
		if err := e.memory.AutoLink(ctx, id, added); err != nil {
			e.logger.Warn().Err(err).Str("work_item", id).
				Msg("memory bridge auto-link failed; continuing")
		}
		if err := e.portal.UpdatePortal(ctx, id, map[string]string{
			"memory_refs": fmt.Sprintf("%d refs", len(item.MemoryRefs)),
		}); err != nil {
			e.logger.Warn().Err(err).Str("work_item", id).
				Msg("portal update failed; continuing")
		}
	}

	return item, nil
}

// SetQueuePosition moves the item between kanban columns. Queue position
// and cycle phase share the single persist path, so the two are always
// written together.
func (e *Engine) SetQueuePosition(ctx context.Context, id string, pos types.QueuePosition) (*types.WorkItem, error) {
	if !pos.IsValid() {
		return nil, fmt.Errorf("%w: queue position %q", types.ErrInvalidArgument, pos)
	}

	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.QueuePosition = pos

	if err := e.persist(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetReady returns every active item with no blockers and a workable
// status.
func (e *Engine) GetReady(ctx context.Context) ([]*types.WorkItem, error) {
	items, err := e.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var ready []*types.WorkItem
	for _, item := range items {
		if len(item.BlockedBy) > 0 {
			continue
		}
		if e.excluded[strings.ToLower(string(item.Status))] {
			continue
		}
		ready = append(ready, item)
	}
	return ready, nil
}

// GetInProgress returns every item currently in the in_progress column.
// The engine does not enforce a single-in-flight constraint; that belongs
// to the orchestration layer, which uses this query to do it.
func (e *Engine) GetInProgress(ctx context.Context) ([]*types.WorkItem, error) {
	items, err := e.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var inProgress []*types.WorkItem
	for _, item := range items {
		if item.QueuePosition == types.PositionInProgress {
			inProgress = append(inProgress, item)
		}
	}
	return inProgress, nil
}

// IsAtPausePoint reports whether the item's current node is a safe pause
// point for its lifecycle family.
func (e *Engine) IsAtPausePoint(ctx context.Context, id string) (bool, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	return e.cycles.IsPausePoint(item.Type, item.CyclePhase), nil
}

// persist is the single write path shared by every mutation.
func (e *Engine) persist(ctx context.Context, item *types.WorkItem) error {
	if err := e.store.PutItem(ctx, item); err != nil {
		return fmt.Errorf("failed to persist work item %s: %w", item.ID, err)
	}
	return nil
}

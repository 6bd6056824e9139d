package engine

import (
	"context"
	"fmt"

	"github.com/ripplework/ripple/internal/types"
)

// AddBlocker records that id cannot start until blockerID completes. The
// blocker must exist; a self-block is rejected.
func (e *Engine) AddBlocker(ctx context.Context, id, blockerID string) (*types.WorkItem, error) {
	if id == blockerID {
		return nil, fmt.Errorf("%w: %s cannot block itself", types.ErrInvalidArgument, id)
	}
	if _, err := e.store.GetItem(ctx, blockerID); err != nil {
		return nil, err
	}

	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, b := range item.BlockedBy {
		if b == blockerID {
			return item, nil
		}
	}
	item.BlockedBy = append(item.BlockedBy, blockerID)

	if err := e.persist(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveBlocker drops blockerID from id's blocker set. Removing a blocker
// that is not present is a no-op.
func (e *Engine) RemoveBlocker(ctx context.Context, id, blockerID string) (*types.WorkItem, error) {
	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := item.BlockedBy[:0]
	for _, b := range item.BlockedBy {
		if b != blockerID {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(item.BlockedBy) {
		return item, nil
	}
	item.BlockedBy = kept

	if err := e.persist(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// AddRelated records the advisory "review together" relation. The relation
// is symmetric by convention but stored on one side; the cascade discovers
// it from either direction.
func (e *Engine) AddRelated(ctx context.Context, id, relatedID string) (*types.WorkItem, error) {
	if id == relatedID {
		return nil, fmt.Errorf("%w: %s cannot relate to itself", types.ErrInvalidArgument, id)
	}
	if _, err := e.store.GetItem(ctx, relatedID); err != nil {
		return nil, err
	}

	item, err := e.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range item.Related {
		if r == relatedID {
			return item, nil
		}
	}
	item.Related = append(item.Related, relatedID)

	if err := e.persist(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

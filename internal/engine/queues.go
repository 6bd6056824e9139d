package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ripplework/ripple/internal/types"
)

// queueFile is the on-disk shape of the queue configuration: a named
// mapping of queue name to definition.
type queueFile struct {
	Queues map[string]types.Queue `yaml:"queues"`
}

// DefaultQueueName is the queue used when no configuration file exists.
const DefaultQueueName = "default"

// LoadQueues reads the named queue definitions. When no config file is
// configured or present, it falls back to a single default priority queue
// with auto-derived membership.
func (e *Engine) LoadQueues(ctx context.Context) ([]types.Queue, error) {
	if e.queuePath == "" {
		return []types.Queue{defaultQueue()}, nil
	}

	data, err := os.ReadFile(e.queuePath)
	if os.IsNotExist(err) {
		return []types.Queue{defaultQueue()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue config: %w", err)
	}

	var file queueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse queue config: %w", err)
	}
	if len(file.Queues) == 0 {
		return []types.Queue{defaultQueue()}, nil
	}

	queues := make([]types.Queue, 0, len(file.Queues))
	for name, q := range file.Queues {
		q.Name = name
		if q.Type == "" {
			q.Type = types.QueuePriority
		}
		if !q.Type.IsValid() {
			return nil, fmt.Errorf("%w: queue %s has unknown type %q",
				types.ErrInvalidArgument, name, q.Type)
		}
		queues = append(queues, q)
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].Name < queues[j].Name })
	return queues, nil
}

func defaultQueue() types.Queue {
	return types.Queue{
		Name:  DefaultQueueName,
		Type:  types.QueuePriority,
		Items: []string{types.QueueItemsAuto},
	}
}

// GetQueue returns the named queue's items in policy order.
//
// Explicit item lists are loaded by ID, terminal records dropped, and for
// fifo the configured order preserved. Auto lists derive from ready work:
// fifo orders by when each item first entered its lifecycle, priority by
// rank with ID as the tie-break.
func (e *Engine) GetQueue(ctx context.Context, name string) ([]*types.WorkItem, error) {
	queues, err := e.LoadQueues(ctx)
	if err != nil {
		return nil, err
	}

	var queue *types.Queue
	for i := range queues {
		if queues[i].Name == name {
			queue = &queues[i]
			break
		}
	}
	if queue == nil {
		return nil, fmt.Errorf("%w: queue %s", types.ErrNotFound, name)
	}

	var items []*types.WorkItem
	if queue.IsAuto() {
		items, err = e.GetReady(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		for _, id := range queue.Items {
			item, err := e.store.GetItem(ctx, id)
			if errors.Is(err, types.ErrNotFound) {
				e.logger.Warn().Str("queue", name).Str("work_item", id).
					Msg("queue lists unknown work item; skipping")
				continue
			}
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	filtered := items[:0]
	for _, item := range items {
		if item.Status.IsTerminal() || item.Status.BlocksReuse() {
			continue
		}
		filtered = append(filtered, item)
	}
	items = filtered

	switch queue.Type {
	case types.QueuePriority:
		sort.SliceStable(items, func(i, j int) bool {
			ri, rj := items[i].Priority.Rank(), items[j].Priority.Rank()
			if ri != rj {
				return ri < rj
			}
			return items[i].ID < items[j].ID
		})
	case types.QueueFIFO:
		if queue.IsAuto() {
			// Oldest work first, judged by when the item first entered its
			// lifecycle. Explicit fifo lists keep their configured order.
			sort.SliceStable(items, func(i, j int) bool {
				return firstEntered(items[i]).Before(firstEntered(items[j]))
			})
		}
	}
	// batch and chapter_aligned queues keep their configured order; phase
	// grouping is the consumer's concern.

	return items, nil
}

// GetNext returns the head of the named queue, or nil when the queue is
// empty.
func (e *Engine) GetNext(ctx context.Context, name string) (*types.WorkItem, error) {
	items, err := e.GetQueue(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// IsCycleAllowed reports whether the named lifecycle may run against the
// named queue. Unknown queues are permissive.
func (e *Engine) IsCycleAllowed(ctx context.Context, queueName, cycle string) (bool, error) {
	queues, err := e.LoadQueues(ctx)
	if err != nil {
		return false, err
	}
	for i := range queues {
		if queues[i].Name == queueName {
			return queues[i].AllowsCycle(cycle), nil
		}
	}
	return true, nil
}

func firstEntered(item *types.WorkItem) time.Time {
	if len(item.NodeHistory) > 0 {
		return item.NodeHistory[0].EnteredAt
	}
	return item.CreatedAt
}

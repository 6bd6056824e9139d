package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripplework/ripple/internal/storage/sqlite"
	"github.com/ripplework/ripple/internal/types"
)

func newQueueEngine(t *testing.T, queueYAML string) *Engine {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	queuePath := ""
	if queueYAML != "" {
		queuePath = filepath.Join(dir, "queues.yaml")
		require.NoError(t, os.WriteFile(queuePath, []byte(queueYAML), 0644))
	}

	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	eng, err := New(Config{Store: store, Now: clock.Now, QueueConfigPath: queuePath})
	require.NoError(t, err)
	return eng
}

func TestLoadQueuesFallsBackToDefault(t *testing.T) {
	eng := newQueueEngine(t, "")
	queues, err := eng.LoadQueues(context.Background())
	require.NoError(t, err)
	require.Len(t, queues, 1)
	assert.Equal(t, DefaultQueueName, queues[0].Name)
	assert.Equal(t, types.QueuePriority, queues[0].Type)
	assert.True(t, queues[0].IsAuto())
}

func TestFIFOQueuePreservesConfiguredOrder(t *testing.T) {
	eng := newQueueEngine(t, `
queues:
  pipeline:
    type: fifo
    items: [core-C, core-A, core-B]
`)
	ctx := context.Background()
	for _, id := range []string{"core-A", "core-B", "core-C"} {
		_, err := eng.Create(ctx, id, "Item "+id, CreateOptions{})
		require.NoError(t, err)
	}

	items, err := eng.GetQueue(ctx, "pipeline")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "core-C", items[0].ID)
	assert.Equal(t, "core-A", items[1].ID)
	assert.Equal(t, "core-B", items[2].ID)

	// Terminal items drop out but order holds.
	_, err = eng.Close(ctx, "core-C")
	require.NoError(t, err)
	items, err = eng.GetQueue(ctx, "pipeline")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "core-A", items[0].ID)
	assert.Equal(t, "core-B", items[1].ID)
}

func TestPriorityQueueOrdersByRankThenID(t *testing.T) {
	eng := newQueueEngine(t, `
queues:
  triage:
    type: priority
    items: [core-low, core-high, core-med, core-high2]
`)
	ctx := context.Background()
	_, err := eng.Create(ctx, "core-low", "Low", CreateOptions{Priority: types.PriorityLow})
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-high", "High", CreateOptions{Priority: types.PriorityHigh})
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-med", "Medium", CreateOptions{Priority: types.PriorityMedium})
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-high2", "High too", CreateOptions{Priority: types.PriorityHigh})
	require.NoError(t, err)

	items, err := eng.GetQueue(ctx, "triage")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "core-high", items[0].ID) // ties broken by id ascending
	assert.Equal(t, "core-high2", items[1].ID)
	assert.Equal(t, "core-med", items[2].ID)
	assert.Equal(t, "core-low", items[3].ID)
}

func TestAutoFIFOOrdersByFirstEntered(t *testing.T) {
	eng := newQueueEngine(t, `
queues:
  oldest:
    type: fifo
    items: [auto]
`)
	ctx := context.Background()
	// The test clock ticks forward on every call, so creation order is
	// entry order.
	for _, id := range []string{"core-2", "core-3", "core-1"} {
		_, err := eng.Create(ctx, id, "Item "+id, CreateOptions{})
		require.NoError(t, err)
	}

	items, err := eng.GetQueue(ctx, "oldest")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "core-2", items[0].ID)
	assert.Equal(t, "core-3", items[1].ID)
	assert.Equal(t, "core-1", items[2].ID)
}

func TestGetNext(t *testing.T) {
	eng := newQueueEngine(t, "")
	ctx := context.Background()

	next, err := eng.GetNext(ctx, DefaultQueueName)
	require.NoError(t, err)
	assert.Nil(t, next)

	_, err = eng.Create(ctx, "core-1", "Only", CreateOptions{})
	require.NoError(t, err)

	next, err = eng.GetNext(ctx, DefaultQueueName)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "core-1", next.ID)
}

func TestGetQueueUnknownName(t *testing.T) {
	eng := newQueueEngine(t, "")
	_, err := eng.GetQueue(context.Background(), "phantom")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestQueueSkipsUnknownItems(t *testing.T) {
	eng := newQueueEngine(t, `
queues:
  partial:
    type: fifo
    items: [core-1, ghost]
`)
	ctx := context.Background()
	_, err := eng.Create(ctx, "core-1", "Exists", CreateOptions{})
	require.NoError(t, err)

	items, err := eng.GetQueue(ctx, "partial")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "core-1", items[0].ID)
}

func TestIsCycleAllowed(t *testing.T) {
	eng := newQueueEngine(t, `
queues:
  restricted:
    type: priority
    items: [auto]
    allowed_cycles: [implementation]
  open:
    type: priority
    items: [auto]
`)
	ctx := context.Background()

	ok, err := eng.IsCycleAllowed(ctx, "restricted", "implementation")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.IsCycleAllowed(ctx, "restricted", "triage")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eng.IsCycleAllowed(ctx, "open", "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	// Unknown queues are permissive.
	ok, err = eng.IsCycleAllowed(ctx, "phantom", "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}

package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripplework/ripple/internal/storage/sqlite"
	"github.com/ripplework/ripple/internal/types"
)

// testClock hands out strictly increasing instants so history ordering is
// deterministic in tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	eng, err := New(Config{Store: store, Now: clock.Now})
	require.NoError(t, err)
	return eng, clock
}

func TestCreateSeedsEntryNode(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	item, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusActive, item.Status)
	assert.Equal(t, types.PositionBacklog, item.QueuePosition)
	assert.Equal(t, types.PriorityMedium, item.Priority)
	assert.Equal(t, "backlog", item.CyclePhase)
	require.Len(t, item.NodeHistory, 1)
	assert.Equal(t, "backlog", item.NodeHistory[0].Node)
	assert.Nil(t, item.NodeHistory[0].ExitedAt)
}

func TestCreateIdempotentOnNonTerminal(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	// Re-creating a non-terminal ID is an idempotent overwrite.
	item, err := eng.Create(ctx, "core-1", "First again", CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "First again", item.Title)
}

func TestCreateRejectsTerminalIDs(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.Close(ctx, "core-1")
	require.NoError(t, err)

	_, err = eng.Create(ctx, "core-1", "Reborn", CreateOptions{})
	assert.ErrorIs(t, err, types.ErrIDUnavailable)

	// Archived records block reuse too.
	_, err = eng.Create(ctx, "core-2", "Second", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.Archive(ctx, "core-2")
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-2", "Reborn", CreateOptions{})
	assert.ErrorIs(t, err, types.ErrIDUnavailable)
}

func TestTransitionMaintainsHistoryInvariants(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	item, err := eng.Transition(ctx, "core-1", "plan")
	require.NoError(t, err)
	assert.Equal(t, "plan", item.CyclePhase)
	require.Len(t, item.NodeHistory, 2)

	// The closed entry's exit time equals the new entry's entry time.
	require.NotNil(t, item.NodeHistory[0].ExitedAt)
	assert.True(t, item.NodeHistory[0].ExitedAt.Equal(item.NodeHistory[1].EnteredAt))
	assert.Nil(t, item.NodeHistory[1].ExitedAt)

	item, err = eng.Transition(ctx, "core-1", "do")
	require.NoError(t, err)
	require.Len(t, item.NodeHistory, 3)
	assert.Nil(t, item.NodeHistory[2].ExitedAt)
	require.NoError(t, item.ValidateHistory())
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	_, err = eng.Transition(ctx, "core-1", "done")
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = eng.Transition(ctx, "ghost", "plan")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCloseSetsStatusAndDate(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	id, err := eng.Close(ctx, "core-1")
	require.NoError(t, err)
	assert.Equal(t, "core-1", id)

	item, err := eng.Get(ctx, "core-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusComplete, item.Status)
	require.NotNil(t, item.ClosedAt)
	// Closing does not move the record.
	assert.True(t, item.Status.IsTerminal())
}

func TestAddMemoryRefsDeduplicates(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	item, err := eng.AddMemoryRefs(ctx, "core-1", []string{"ref-1", "ref-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ref-1", "ref-2"}, item.MemoryRefs)

	item, err = eng.AddMemoryRefs(ctx, "core-1", []string{"ref-2", "ref-3", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"ref-1", "ref-2", "ref-3"}, item.MemoryRefs)
}

func TestSetQueuePosition(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	item, err := eng.SetQueuePosition(ctx, "core-1", types.PositionInProgress)
	require.NoError(t, err)
	assert.Equal(t, types.PositionInProgress, item.QueuePosition)

	_, err = eng.SetQueuePosition(ctx, "core-1", "parked")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestGetReadyFiltersBlockedAndExcluded(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "Ready", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-2", "Blocked", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.AddBlocker(ctx, "core-2", "core-1")
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-3", "Done", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.Close(ctx, "core-3")
	require.NoError(t, err)

	ready, err := eng.GetReady(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "core-1", ready[0].ID)
}

func TestGetInProgress(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-2", "Second", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.SetQueuePosition(ctx, "core-2", types.PositionInProgress)
	require.NoError(t, err)

	inProgress, err := eng.GetInProgress(ctx)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, "core-2", inProgress[0].ID)
}

func TestIsAtPausePoint(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)

	// backlog is a pause point for implementation work.
	ok, err := eng.IsAtPausePoint(ctx, "core-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = eng.Transition(ctx, "core-1", "plan")
	require.NoError(t, err)
	ok, err = eng.IsAtPausePoint(ctx, "core-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlockerLinks(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, "core-1", "First", CreateOptions{})
	require.NoError(t, err)
	_, err = eng.Create(ctx, "core-2", "Second", CreateOptions{})
	require.NoError(t, err)

	_, err = eng.AddBlocker(ctx, "core-2", "ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = eng.AddBlocker(ctx, "core-2", "core-2")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	item, err := eng.AddBlocker(ctx, "core-2", "core-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"core-1"}, item.BlockedBy)

	// Duplicate add is a no-op.
	item, err = eng.AddBlocker(ctx, "core-2", "core-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"core-1"}, item.BlockedBy)

	item, err = eng.RemoveBlocker(ctx, "core-2", "core-1")
	require.NoError(t, err)
	assert.Empty(t, item.BlockedBy)
}

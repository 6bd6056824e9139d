package cascade

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripplework/ripple/internal/engine"
	"github.com/ripplework/ripple/internal/eventlog"
	"github.com/ripplework/ripple/internal/storage/sqlite"
	"github.com/ripplework/ripple/internal/types"
)

type fixture struct {
	store  *sqlite.SQLiteStorage
	eng    *engine.Engine
	casc   *Engine
	events *eventlog.Log
	dir    string
}

type tick struct{ now time.Time }

func (c *tick) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newFixture(t *testing.T, session int) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &tick{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	eng, err := engine.New(engine.Config{Store: store, Now: clock.Now})
	require.NoError(t, err)

	events := eventlog.New(filepath.Join(dir, "events.jsonl"))
	casc, err := New(Config{
		Store:          store,
		Events:         events,
		DocRoots:       []string{filepath.Join(dir, "README.md")},
		CurrentSession: func(context.Context) int { return session },
	})
	require.NoError(t, err)

	return &fixture{store: store, eng: eng, casc: casc, events: events, dir: dir}
}

func (f *fixture) create(t *testing.T, id string) {
	t.Helper()
	_, err := f.eng.Create(context.Background(), id, "Item "+id, engine.CreateOptions{})
	require.NoError(t, err)
}

func TestTriggerGate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.create(t, "core-1")

	report, err := f.casc.Run(ctx, "core-1", "active", RunOptions{})
	require.NoError(t, err)
	assert.False(t, report.Triggered)
	assert.Empty(t, report.Effects)

	for _, status := range []types.Status{"complete", "Completed", "done", "closed", "accepted"} {
		report, err := f.casc.Run(ctx, "core-1", status, RunOptions{DryRun: true})
		require.NoError(t, err)
		assert.True(t, report.Triggered, "status %q should trigger", status)
	}
}

func TestUnblockCorrectness(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	// A blocked by B and C.
	f.create(t, "item-A")
	f.create(t, "item-B")
	f.create(t, "item-C")
	_, err := f.eng.AddBlocker(ctx, "item-A", "item-B")
	require.NoError(t, err)
	_, err = f.eng.AddBlocker(ctx, "item-A", "item-C")
	require.NoError(t, err)

	// C incomplete: completing B leaves A blocked on C.
	_, err = f.eng.Close(ctx, "item-B")
	require.NoError(t, err)
	report, err := f.casc.Run(ctx, "item-B", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Unblocks, 1)
	assert.Equal(t, "item-A", report.Unblocks[0].ID)
	assert.False(t, report.Unblocks[0].Ready)
	assert.Equal(t, []string{"item-C"}, report.Unblocks[0].RemainingBlockers)

	// With C complete too, A is ready.
	_, err = f.eng.Close(ctx, "item-C")
	require.NoError(t, err)
	report, err = f.casc.Run(ctx, "item-B", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Unblocks, 1)
	assert.True(t, report.Unblocks[0].Ready)
	assert.Empty(t, report.Unblocks[0].RemainingBlockers)
	assert.Equal(t, "item-A", report.NextReady())
}

func TestUnblockSkipsTerminalDependents(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.create(t, "item-A")
	f.create(t, "item-B")
	_, err := f.eng.AddBlocker(ctx, "item-A", "item-B")
	require.NoError(t, err)
	_, err = f.eng.Close(ctx, "item-A")
	require.NoError(t, err)
	_, err = f.eng.Close(ctx, "item-B")
	require.NoError(t, err)

	report, err := f.casc.Run(ctx, "item-B", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, report.Unblocks, "already-complete dependents need no unblocking")
}

func TestRelatedBidirectional(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	// X lists Y; Y does not list X back.
	f.create(t, "item-X")
	f.create(t, "item-Y")
	f.create(t, "item-Z")
	_, err := f.eng.AddRelated(ctx, "item-X", "item-Y")
	require.NoError(t, err)
	_, err = f.eng.AddRelated(ctx, "item-X", "item-Z")
	require.NoError(t, err)

	// Completing Y surfaces X inbound.
	report, err := f.casc.Run(ctx, "item-Y", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Related, 1)
	assert.Equal(t, "item-X", report.Related[0].ID)
	assert.Equal(t, types.RelatedInbound, report.Related[0].Direction)

	// Completing X surfaces Y and Z outbound, deduplicated.
	report, err = f.casc.Run(ctx, "item-X", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Related, 2)
	ids := []string{report.Related[0].ID, report.Related[1].ID}
	assert.ElementsMatch(t, []string{"item-Y", "item-Z"}, ids)
	for _, rel := range report.Related {
		assert.Equal(t, types.RelatedOutbound, rel.Direction)
	}
}

func TestMilestoneDeltaAndSuppression(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.create(t, "item-1")
	f.create(t, "item-2")
	require.NoError(t, f.store.PutMilestone(ctx, &types.Milestone{
		ID:    "m1",
		Name:  "Release",
		Items: []string{"item-1", "item-2"},
	}))

	report, err := f.casc.Run(ctx, "item-1", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.MilestoneDeltas, 1)
	assert.Equal(t, 0, report.MilestoneDeltas[0].OldProgress)
	assert.Equal(t, 50, report.MilestoneDeltas[0].NewProgress)

	// A milestone already at 100% whose member completes again emits
	// nothing.
	f.create(t, "item-3")
	require.NoError(t, f.store.PutMilestone(ctx, &types.Milestone{
		ID:       "m2",
		Name:     "Done already",
		Items:    []string{"item-3"},
		Complete: []string{"item-3"},
		Progress: 100,
	}))
	report, err = f.casc.Run(ctx, "item-3", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, report.MilestoneDeltas)
}

func TestApplyMilestoneDelta(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.create(t, "item-1")
	f.create(t, "item-2")
	require.NoError(t, f.store.PutMilestone(ctx, &types.Milestone{
		ID:    "m1",
		Name:  "Release",
		Items: []string{"item-1", "item-2"},
	}))

	report, err := f.casc.Run(ctx, "item-1", "complete", RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.MilestoneDeltas, 1)
	require.NoError(t, f.casc.ApplyMilestoneDelta(ctx, "item-1", report.MilestoneDeltas[0]))

	m, err := f.store.GetMilestone(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 50, m.Progress)
	assert.Equal(t, 0, m.PriorProgress)
	assert.Equal(t, []string{"item-1"}, m.Complete)

	// Applying again is a no-op.
	require.NoError(t, f.casc.ApplyMilestoneDelta(ctx, "item-1", report.MilestoneDeltas[0]))
	m, err = f.store.GetMilestone(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"item-1"}, m.Complete)
}

func TestSubstantiveReferences(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.create(t, "item-1")

	readme := filepath.Join(f.dir, "README.md")
	require.NoError(t, os.WriteFile(readme,
		[]byte("# Project\n\nNext up: finish item-1 and ship.\n"), 0644))

	report, err := f.casc.Run(ctx, "item-1", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Substantive, 1)
	assert.Equal(t, readme, report.Substantive[0].Location)

	// No mention, no effect.
	require.NoError(t, os.WriteFile(readme, []byte("# Project\n"), 0644))
	report, err = f.casc.Run(ctx, "item-1", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, report.Substantive)
}

func TestReviewPromptStaleness(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	f.create(t, "item-A")
	f.create(t, "item-B")
	_, err := f.eng.AddBlocker(ctx, "item-A", "item-B")
	require.NoError(t, err)
	_, err = f.eng.Close(ctx, "item-B")
	require.NoError(t, err)

	// item-A was last touched at session 0; current session is 5.
	report, err := f.casc.Run(ctx, "item-B", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.ReviewPrompts, 1)
	assert.Equal(t, "item-A", report.ReviewPrompts[0].ID)
	assert.Equal(t, 5, report.ReviewPrompts[0].SessionsSinceLastTouch)
	assert.True(t, report.ReviewPrompts[0].Stale)
}

func TestReviewPromptAlwaysEmittedForReady(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.create(t, "item-A")
	f.create(t, "item-B")
	_, err := f.eng.AddBlocker(ctx, "item-A", "item-B")
	require.NoError(t, err)
	_, err = f.eng.Close(ctx, "item-B")
	require.NoError(t, err)

	// Fresh item still gets a prompt; it just isn't stale.
	report, err := f.casc.Run(ctx, "item-B", "complete", RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.ReviewPrompts, 1)
	assert.False(t, report.ReviewPrompts[0].Stale)
}

func TestCascadeIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.create(t, "item-A")
	f.create(t, "item-B")
	f.create(t, "item-C")
	_, err := f.eng.AddBlocker(ctx, "item-A", "item-B")
	require.NoError(t, err)
	_, err = f.eng.AddRelated(ctx, "item-B", "item-C")
	require.NoError(t, err)
	_, err = f.eng.Close(ctx, "item-B")
	require.NoError(t, err)

	first, err := f.casc.Run(ctx, "item-B", "complete", RunOptions{})
	require.NoError(t, err)
	second, err := f.casc.Run(ctx, "item-B", "complete", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.Effects, second.Effects)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestNoDependentsAffected(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.create(t, "item-1")

	report, err := f.casc.Run(ctx, "item-1", "complete", RunOptions{})
	require.NoError(t, err)
	assert.False(t, report.HasEffects())
	assert.Contains(t, report.Summary, "No dependents affected")

	// No effects means no audit event.
	events, err := f.events.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// TestEndToEndCompletionCascade walks one item through its whole lifecycle
// and checks the cascade and audit trail at the end.
func TestEndToEndCompletionCascade(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.create(t, "E2-110")
	f.create(t, "E2-120")
	_, err := f.eng.AddBlocker(ctx, "E2-120", "E2-110")
	require.NoError(t, err)

	for _, node := range []string{"plan", "do", "check", "done"} {
		_, err := f.eng.Transition(ctx, "E2-110", node)
		require.NoError(t, err)
	}

	_, err = f.eng.Close(ctx, "E2-110")
	require.NoError(t, err)
	item, err := f.eng.Get(ctx, "E2-110")
	require.NoError(t, err)
	require.True(t, item.Status.IsTerminal())

	report, err := f.casc.Run(ctx, "E2-110", item.Status, RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Unblocks, 1)
	assert.Equal(t, "E2-120", report.Unblocks[0].ID)
	assert.True(t, report.Unblocks[0].Ready)
	assert.Contains(t, report.Effects, "unblock:E2-120")
	assert.Contains(t, report.Summary, "Action: E2-120 is next")

	events, err := f.events.Read(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "E2-110", events[0].Source)
	assert.Equal(t, types.EventTypeCascade, events[0].Type)
	assert.Contains(t, events[0].Effects, "unblock:E2-120")
}

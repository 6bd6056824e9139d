// Package cascade implements completion-cascade propagation: when a work
// item reaches a terminal status, it scans the corpus for downstream
// effects and produces one report.
//
// The engine is stateless and idempotent per invocation: the report is a
// pure function of corpus state. Side effects are limited to the audit
// event append and a best-effort summary refresh, both of which leave the
// corpus untouched.
package cascade

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ripplework/ripple/internal/storage"
	"github.com/ripplework/ripple/internal/types"
)

// DefaultStaleThreshold is how many sessions untouched before a
// newly-unblocked item gets an urgency annotation.
const DefaultStaleThreshold = 3

// Appender records one cascade audit event. Satisfied by eventlog.Log.
type Appender interface {
	Append(ctx context.Context, source string, effects []string) (*types.CascadeEvent, error)
}

// SummaryRefresher regenerates a derived summary after a cascade. Failures
// are swallowed.
type SummaryRefresher interface {
	Refresh(ctx context.Context) error
}

// Config wires the cascade engine's collaborators at construction time.
type Config struct {
	Store  storage.Storage
	Events Appender

	// DocRoots are the documentation entry points scanned for literal
	// mentions of the completed item's ID.
	DocRoots []string

	// CurrentSession supplies the session counter used for staleness. Nil
	// means session 0.
	CurrentSession func(ctx context.Context) int

	// StaleThreshold overrides DefaultStaleThreshold when positive.
	StaleThreshold int

	// Refresher, when set, is poked after a non-dry-run cascade that fired
	// at least one effect.
	Refresher SummaryRefresher

	Logger zerolog.Logger
}

// DefaultDocRoots are scanned when the config names none.
var DefaultDocRoots = []string{"README.md", "ROADMAP.md", "STATUS.md"}

// Engine computes cascade reports.
type Engine struct {
	store     storage.Storage
	events    Appender
	docRoots  []string
	session   func(ctx context.Context) int
	threshold int
	refresher SummaryRefresher
	logger    zerolog.Logger
}

// New creates a cascade engine. Store is required.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("cascade engine requires a storage backend")
	}
	if cfg.CurrentSession == nil {
		cfg.CurrentSession = func(context.Context) int { return 0 }
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = DefaultStaleThreshold
	}
	if len(cfg.DocRoots) == 0 {
		cfg.DocRoots = DefaultDocRoots
	}
	return &Engine{
		store:     cfg.Store,
		events:    cfg.Events,
		docRoots:  cfg.DocRoots,
		session:   cfg.CurrentSession,
		threshold: cfg.StaleThreshold,
		refresher: cfg.Refresher,
		logger:    cfg.Logger,
	}, nil
}

// RunOptions controls one cascade invocation.
type RunOptions struct {
	// DryRun computes the full report but appends no audit event.
	DryRun bool
}

// Run computes every downstream effect of the given item reaching the
// given status. If the status is not terminal the result is a no-op report
// with Triggered=false.
func (e *Engine) Run(ctx context.Context, id string, status types.Status, opts RunOptions) (*types.CascadeReport, error) {
	report := &types.CascadeReport{Source: id, Status: status}
	if !status.IsTerminal() {
		report.Summary = fmt.Sprintf("%s status %q is not terminal; no cascade", id, status)
		return report, nil
	}
	report.Triggered = true

	corpus, err := e.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	source := corpus[id]

	report.Unblocks = e.scanUnblocks(corpus, id)
	report.Related = e.scanRelated(corpus, id, source)

	deltas, err := e.scanMilestones(ctx, id)
	if err != nil {
		return nil, err
	}
	report.MilestoneDeltas = deltas

	report.Substantive = e.scanDocs(id)
	report.ReviewPrompts = e.reviewPrompts(ctx, corpus, report.Unblocks)

	report.Effects = flatEffects(report)
	report.Summary = renderSummary(report)

	if report.HasEffects() && !opts.DryRun {
		// Audit logging and summary refresh are side channels: the report
		// already exists, so failures are logged and swallowed.
		if e.events != nil {
			if _, err := e.events.Append(ctx, id, report.Effects); err != nil {
				e.logger.Warn().Err(err).Str("source", id).
					Msg("cascade audit append failed; continuing")
			}
		}
		if e.refresher != nil {
			if err := e.refresher.Refresh(ctx); err != nil {
				e.logger.Warn().Err(err).Str("source", id).
					Msg("summary refresh failed; continuing")
			}
		}
	}

	return report, nil
}

// loadCorpus reads the full work-item corpus, active and archived, keyed
// by ID. Completed blockers may already have been archived, so both
// namespaces matter for blocker resolution.
func (e *Engine) loadCorpus(ctx context.Context) (map[string]*types.WorkItem, error) {
	corpus := make(map[string]*types.WorkItem)
	active, err := e.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	for _, item := range active {
		corpus[item.ID] = item
	}
	archived, err := e.store.ListArchived(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	for _, item := range archived {
		corpus[item.ID] = item
	}
	return corpus, nil
}

// blockerComplete applies the terminal-status rule to one blocker ID. An
// archived blocker counts as complete; a blocker that does not exist in
// the corpus cannot complete, so it stays blocking.
func blockerComplete(corpus map[string]*types.WorkItem, completedID, blockerID string) bool {
	if blockerID == completedID {
		return true
	}
	blocker, ok := corpus[blockerID]
	if !ok {
		return false
	}
	return blocker.Status.IsTerminal() || blocker.Status.BlocksReuse()
}

// scanUnblocks finds every dependent of the completed item and reports
// whether removing this blocker leaves it ready. Dependents already in a
// terminal status are skipped.
func (e *Engine) scanUnblocks(corpus map[string]*types.WorkItem, completedID string) []types.UnblockEffect {
	var effects []types.UnblockEffect
	for _, item := range sortedItems(corpus) {
		if item.ID == completedID || item.Status.IsTerminal() || item.Status.BlocksReuse() {
			continue
		}
		blocked := false
		var remaining []string
		for _, blocker := range item.BlockedBy {
			if blocker == completedID {
				blocked = true
				continue
			}
			if !blockerComplete(corpus, completedID, blocker) {
				remaining = append(remaining, blocker)
			}
		}
		if !blocked {
			continue
		}
		effects = append(effects, types.UnblockEffect{
			ID:                item.ID,
			Ready:             len(remaining) == 0,
			RemainingBlockers: remaining,
		})
	}
	return effects
}

// scanRelated discovers the symmetric review-together relation in both
// directions, deduplicated by ID. Inbound hits (the other item points at
// the completed one) win over outbound.
func (e *Engine) scanRelated(corpus map[string]*types.WorkItem, completedID string, source *types.WorkItem) []types.RelatedEffect {
	var effects []types.RelatedEffect
	seen := make(map[string]bool)

	for _, item := range sortedItems(corpus) {
		if item.ID == completedID || item.Status.IsTerminal() || item.Status.BlocksReuse() {
			continue
		}
		for _, rel := range item.Related {
			if rel != completedID {
				continue
			}
			seen[item.ID] = true
			effects = append(effects, types.RelatedEffect{
				ID:        item.ID,
				Direction: types.RelatedInbound,
				Reason:    fmt.Sprintf("lists %s as related", completedID),
			})
			break
		}
	}

	if source == nil {
		return effects
	}
	for _, rel := range source.Related {
		if seen[rel] {
			continue
		}
		target, ok := corpus[rel]
		if !ok || target.Status.IsTerminal() || target.Status.BlocksReuse() {
			continue
		}
		seen[rel] = true
		effects = append(effects, types.RelatedEffect{
			ID:        rel,
			Direction: types.RelatedOutbound,
			Reason:    fmt.Sprintf("%s lists it as related", completedID),
		})
	}
	return effects
}

// scanMilestones computes the progress advance of the milestone containing
// the completed item. A no-change or backward move is suppressed.
func (e *Engine) scanMilestones(ctx context.Context, completedID string) ([]types.MilestoneDelta, error) {
	milestones, err := e.store.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}

	var deltas []types.MilestoneDelta
	for _, m := range milestones {
		member := false
		for _, id := range m.Items {
			if id == completedID {
				member = true
				break
			}
		}
		if !member {
			continue
		}

		complete := len(m.Complete)
		counted := false
		for _, id := range m.Complete {
			if id == completedID {
				counted = true
				break
			}
		}
		if !counted {
			complete++
		}

		newProgress := m.ComputeProgress(complete)
		if newProgress > m.Progress {
			deltas = append(deltas, types.MilestoneDelta{
				MilestoneID: m.ID,
				OldProgress: m.Progress,
				NewProgress: newProgress,
			})
		}
	}
	return deltas, nil
}

// ApplyMilestoneDelta persists a computed milestone advance: the completed
// item joins the milestone's complete set and progress moves forward, with
// the old value kept as prior progress. Run itself never writes, so
// callers invoke this after a non-dry-run cascade.
func (e *Engine) ApplyMilestoneDelta(ctx context.Context, completedID string, delta types.MilestoneDelta) error {
	m, err := e.store.GetMilestone(ctx, delta.MilestoneID)
	if err != nil {
		return err
	}
	for _, id := range m.Complete {
		if id == completedID {
			return nil
		}
	}
	m.Complete = append(m.Complete, completedID)
	m.PriorProgress = m.Progress
	m.Progress = delta.NewProgress
	return e.store.PutMilestone(ctx, m)
}

// scanDocs substring-searches the fixed documentation entry points for the
// completed item's ID. No semantic understanding, just literal mentions.
func (e *Engine) scanDocs(completedID string) []types.SubstantiveReference {
	var refs []types.SubstantiveReference
	for _, path := range e.docRoots {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), completedID) {
			refs = append(refs, types.SubstantiveReference{
				Location: path,
				Note:     fmt.Sprintf("mentions %s; consider updating", completedID),
			})
		}
	}
	return refs
}

// reviewPrompts emits one prompt per newly-ready item. Every unblocked
// item needs review before work starts on it; staleness only adds urgency.
func (e *Engine) reviewPrompts(ctx context.Context, corpus map[string]*types.WorkItem, unblocks []types.UnblockEffect) []types.ReviewPrompt {
	current := e.session(ctx)
	var prompts []types.ReviewPrompt
	for _, u := range unblocks {
		if !u.Ready {
			continue
		}
		item := corpus[u.ID]
		if item == nil {
			continue
		}
		sessionsAgo := current - item.LastTouchedSession
		if sessionsAgo < 0 {
			sessionsAgo = 0
		}
		prompts = append(prompts, types.ReviewPrompt{
			ID:                     u.ID,
			SessionsSinceLastTouch: sessionsAgo,
			Stale:                  sessionsAgo >= e.threshold,
		})
	}
	return prompts
}

func sortedItems(corpus map[string]*types.WorkItem) []*types.WorkItem {
	items := make([]*types.WorkItem, 0, len(corpus))
	for _, item := range corpus {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

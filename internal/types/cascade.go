package types

import "fmt"

// UnblockEffect reports a dependent whose blocker set shrank because the
// source item completed. Ready is true when no blockers remain incomplete.
type UnblockEffect struct {
	ID                string   `json:"id"`
	Ready             bool     `json:"ready"`
	RemainingBlockers []string `json:"remaining_blockers,omitempty"`
}

// RelatedDirection distinguishes how a related item was discovered.
type RelatedDirection string

const (
	// RelatedInbound: the other item lists the completed item in its
	// related set.
	RelatedInbound RelatedDirection = "inbound"
	// RelatedOutbound: the completed item lists the other item.
	RelatedOutbound RelatedDirection = "outbound"
)

// RelatedEffect flags an item that should be re-reviewed because a related
// item completed. The relation is advisory, not blocking.
type RelatedEffect struct {
	ID        string           `json:"id"`
	Direction RelatedDirection `json:"direction"`
	Reason    string           `json:"reason"`
}

// MilestoneDelta reports a milestone whose completion percentage advanced.
type MilestoneDelta struct {
	MilestoneID string `json:"milestone_id"`
	OldProgress int    `json:"old_progress"`
	NewProgress int    `json:"new_progress"`
}

// Delta returns the progress advance in percentage points.
func (m MilestoneDelta) Delta() int { return m.NewProgress - m.OldProgress }

// SubstantiveReference reports a documentation entry point that mentions
// the completed item by ID and may need updating.
type SubstantiveReference struct {
	Location string `json:"location"`
	Note     string `json:"note"`
}

// ReviewPrompt reports a newly-unblocked item that needs review before work
// starts on it. SessionsSinceLastTouch adds urgency when it crosses the
// staleness threshold.
type ReviewPrompt struct {
	ID                     string `json:"id"`
	SessionsSinceLastTouch int    `json:"sessions_since_last_touch"`
	Stale                  bool   `json:"stale"`
}

// CascadeReport aggregates every downstream effect of one item reaching a
// terminal status. Effects is the flat list that gets durably logged;
// Summary is the human-readable rendering.
type CascadeReport struct {
	Source    string `json:"source"`
	Status    Status `json:"status"`
	Triggered bool   `json:"triggered"`

	Unblocks        []UnblockEffect        `json:"unblocks,omitempty"`
	Related         []RelatedEffect        `json:"related,omitempty"`
	MilestoneDeltas []MilestoneDelta       `json:"milestone_deltas,omitempty"`
	Substantive     []SubstantiveReference `json:"substantive,omitempty"`
	ReviewPrompts   []ReviewPrompt         `json:"review_prompts,omitempty"`

	Summary string   `json:"summary"`
	Effects []string `json:"effects"`
}

// HasEffects reports whether any scan produced at least one effect.
func (r *CascadeReport) HasEffects() bool {
	return len(r.Unblocks) > 0 || len(r.Related) > 0 ||
		len(r.MilestoneDeltas) > 0 || len(r.Substantive) > 0 ||
		len(r.ReviewPrompts) > 0
}

// NextReady returns the ID of the first dependent reported ready, or "".
func (r *CascadeReport) NextReady() string {
	for _, u := range r.Unblocks {
		if u.Ready {
			return u.ID
		}
	}
	return ""
}

// CascadeEvent is one append-only audit log entry recording a cascade run.
type CascadeEvent struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"ts"`
	Type      string   `json:"type"`
	Source    string   `json:"source"`
	Effects   []string `json:"effects"`
}

// EventTypeCascade is the event log type tag for cascade runs.
const EventTypeCascade = "cascade"

// EffectTag formats one entry of the flat effects list, e.g.
// "unblock:item-12" or "milestone:+25".
func EffectTag(kind, value string) string {
	return fmt.Sprintf("%s:%s", kind, value)
}

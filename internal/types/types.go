package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WorkItem represents a trackable unit of work moving through a lifecycle graph.
type WorkItem struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Status             Status             `json:"status"`
	Type               WorkType           `json:"type"`
	CyclePhase         string             `json:"cycle_phase"`
	QueuePosition      QueuePosition      `json:"queue_position"`
	Priority           Priority           `json:"priority"`
	BlockedBy          []string           `json:"blocked_by,omitempty"`
	NodeHistory        []NodeHistoryEntry `json:"node_history"`
	MemoryRefs         []string           `json:"memory_refs,omitempty"`
	Milestone          string             `json:"milestone,omitempty"`
	Related            []string           `json:"related,omitempty"`
	RequirementRefs    []string           `json:"requirement_refs,omitempty"`
	SourceFiles        []string           `json:"source_files,omitempty"`
	AcceptanceCriteria string             `json:"acceptance_criteria,omitempty"`
	Artifacts          []string           `json:"artifacts,omitempty"`
	Extensions         map[string]any     `json:"extensions,omitempty"`
	LastTouchedSession int                `json:"last_touched_session,omitempty"`

	// Version is the optimistic-concurrency token. Every persisted write
	// checks the stored version and increments it; a stale writer gets
	// ErrVersionConflict instead of silently losing the other write.
	Version int `json:"version"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// workItemAlias avoids UnmarshalJSON recursion.
type workItemAlias WorkItem

// UnmarshalJSON accepts the legacy current_node/currentNode header name as
// an alias for cycle_phase. cycle_phase wins when both are present.
func (w *WorkItem) UnmarshalJSON(data []byte) error {
	var aux struct {
		workItemAlias
		CurrentNodeSnake string `json:"current_node"`
		CurrentNodeCamel string `json:"currentNode"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*w = WorkItem(aux.workItemAlias)
	if w.CyclePhase == "" {
		if aux.CurrentNodeSnake != "" {
			w.CyclePhase = aux.CurrentNodeSnake
		} else {
			w.CyclePhase = aux.CurrentNodeCamel
		}
	}
	return nil
}

// Validate checks if the work item has valid field values
func (w *WorkItem) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(w.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(w.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(w.Title))
	}
	if !w.Type.IsValid() {
		return fmt.Errorf("invalid work type: %s", w.Type)
	}
	if !w.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", w.Priority)
	}
	if !w.QueuePosition.IsValid() {
		return fmt.Errorf("invalid queue position: %s", w.QueuePosition)
	}
	return w.ValidateHistory()
}

// ValidateHistory enforces the node-history invariants: non-empty, entries
// ordered by EnteredAt non-decreasing, and only the final entry may be open.
func (w *WorkItem) ValidateHistory() error {
	if len(w.NodeHistory) == 0 {
		return fmt.Errorf("node_history must not be empty")
	}
	for i, entry := range w.NodeHistory {
		if entry.Node == "" {
			return fmt.Errorf("node_history[%d]: node is required", i)
		}
		if i > 0 && entry.EnteredAt.Before(w.NodeHistory[i-1].EnteredAt) {
			return fmt.Errorf("node_history[%d]: entered_at precedes previous entry", i)
		}
		if entry.ExitedAt == nil && i != len(w.NodeHistory)-1 {
			return fmt.Errorf("node_history[%d]: only the last entry may be open", i)
		}
	}
	return nil
}

// CurrentEntry returns the open (last) node-history entry, or nil if the
// history is empty.
func (w *WorkItem) CurrentEntry() *NodeHistoryEntry {
	if len(w.NodeHistory) == 0 {
		return nil
	}
	return &w.NodeHistory[len(w.NodeHistory)-1]
}

// NodeHistoryEntry records one visit to a lifecycle node.
type NodeHistoryEntry struct {
	Node      string     `json:"node"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
}

// Status is the free-form status string of a work item. A fixed subset of
// values is "terminal": reaching one triggers the completion cascade.
type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusArchived Status = "archived"
)

// terminalStatuses is the cascade trigger set. Membership is checked on the
// lowercased value because statuses are free-form strings.
var terminalStatuses = map[string]bool{
	"complete":  true,
	"completed": true,
	"done":      true,
	"closed":    true,
	"accepted":  true,
}

// IsTerminal reports whether the status is in the cascade trigger set.
func (s Status) IsTerminal() bool {
	return terminalStatuses[strings.ToLower(string(s))]
}

// BlocksReuse reports whether an existing item with this status prevents
// re-creating the same ID. Archived records block reuse even though
// "archived" is not a cascade trigger.
func (s Status) BlocksReuse() bool {
	lower := strings.ToLower(string(s))
	return lower == string(StatusComplete) || lower == string(StatusArchived)
}

// WorkType categorizes the kind of work
type WorkType string

const (
	TypeFeature       WorkType = "feature"
	TypeInvestigation WorkType = "investigation"
	TypeBug           WorkType = "bug"
	TypeChore         WorkType = "chore"
	TypeSpike         WorkType = "spike"
)

// IsValid checks if the work type value is valid
func (t WorkType) IsValid() bool {
	switch t {
	case TypeFeature, TypeInvestigation, TypeBug, TypeChore, TypeSpike:
		return true
	}
	return false
}

// Priority indicates scheduling urgency
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank returns the sort rank for priority queues: critical sorts first,
// then high=0, medium=1, low=2. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return -1
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// QueuePosition is the item's coarse kanban column
type QueuePosition string

const (
	PositionBacklog    QueuePosition = "backlog"
	PositionInProgress QueuePosition = "in_progress"
	PositionDone       QueuePosition = "done"
)

// IsValid checks if the queue position value is valid
func (q QueuePosition) IsValid() bool {
	switch q {
	case PositionBacklog, PositionInProgress, PositionDone:
		return true
	}
	return false
}

// Milestone is a named group of work items with an aggregate completion
// percentage. Progress is an integer percent, rounded half-up.
type Milestone struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Items         []string `json:"items"`
	Complete      []string `json:"complete,omitempty"`
	Progress      int      `json:"progress"`
	PriorProgress int      `json:"prior_progress"`
}

// ComputeProgress returns round(|complete| / |items| * 100), or 0 for an
// empty milestone.
func (m *Milestone) ComputeProgress(complete int) int {
	if len(m.Items) == 0 {
		return 0
	}
	return int(float64(complete)/float64(len(m.Items))*100 + 0.5)
}

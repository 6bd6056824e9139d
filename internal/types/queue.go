package types

// QueueItemsAuto is the sentinel item list meaning "derive membership from
// the corpus" (ready work) instead of an explicit ID list.
const QueueItemsAuto = "auto"

// QueueType selects the ordering policy for a queue.
type QueueType string

const (
	QueueFIFO           QueueType = "fifo"
	QueuePriority       QueueType = "priority"
	QueueBatch          QueueType = "batch"
	QueueChapterAligned QueueType = "chapter_aligned"
)

// IsValid checks if the queue type value is valid
func (q QueueType) IsValid() bool {
	switch q {
	case QueueFIFO, QueuePriority, QueueBatch, QueueChapterAligned:
		return true
	}
	return false
}

// Queue is a named, policy-ordered view over a subset of work items.
type Queue struct {
	Name          string    `json:"name" yaml:"name"`
	Type          QueueType `json:"type" yaml:"type"`
	Items         []string  `json:"items,omitempty" yaml:"items,omitempty"`
	AllowedCycles []string  `json:"allowed_cycles,omitempty" yaml:"allowed_cycles,omitempty"`
	Phases        []string  `json:"phases,omitempty" yaml:"phases,omitempty"`
}

// IsAuto reports whether the queue derives its membership from the corpus
// rather than an explicit item list. An empty list counts as auto.
func (q *Queue) IsAuto() bool {
	if len(q.Items) == 0 {
		return true
	}
	return len(q.Items) == 1 && q.Items[0] == QueueItemsAuto
}

// AllowsCycle reports whether the named lifecycle may run against this
// queue. An empty AllowedCycles list means unrestricted.
func (q *Queue) AllowsCycle(cycle string) bool {
	if len(q.AllowedCycles) == 0 {
		return true
	}
	for _, c := range q.AllowedCycles {
		if c == cycle {
			return true
		}
	}
	return false
}

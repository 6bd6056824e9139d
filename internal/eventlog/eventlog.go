// Package eventlog provides the append-only audit log for cascade runs.
//
// Events are line-delimited JSON, one object per line. Appends are guarded
// by an advisory file lock so concurrent appenders from separate processes
// cannot interleave partial lines.
package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/ripplework/ripple/internal/types"
)

// Log appends and reads cascade events on a single JSONL file.
type Log struct {
	path string
}

// New creates a log backed by the given file path. The file and its parent
// directory are created on first append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Append writes one cascade event. The event ID and timestamp are assigned
// here; callers supply source and effects.
func (l *Log) Append(ctx context.Context, source string, effects []string) (*types.CascadeEvent, error) {
	event := &types.CascadeEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Type:      types.EventTypeCascade,
		Source:    source,
		Effects:   effects,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cascade event: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}

	// A fresh lock handle per append: distinct file descriptors contend
	// properly even between goroutines of the same process.
	lock := flock.New(l.path + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event log: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock event log: lock unavailable")
	}
	defer lock.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to append cascade event: %w", err)
	}
	return event, nil
}

// Read returns all events in append order. A missing file is an empty log.
func (l *Log) Read(ctx context.Context) ([]*types.CascadeEvent, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []*types.CascadeEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event types.CascadeEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("failed to parse event log line: %w", err)
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return events, nil
}

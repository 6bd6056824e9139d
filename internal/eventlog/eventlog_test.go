package eventlog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func TestAppendAndRead(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "events.jsonl"))
	ctx := context.Background()

	event, err := log.Append(ctx, "core-1", []string{"unblock:core-2", "related:1"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if event.ID == "" || event.Timestamp == "" {
		t.Error("expected event id and timestamp to be assigned")
	}
	if event.Type != "cascade" {
		t.Errorf("expected type cascade, got %s", event.Type)
	}

	_, err = log.Append(ctx, "core-2", []string{"milestone:+50"})
	if err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	events, err := log.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Source != "core-1" || events[1].Source != "core-2" {
		t.Errorf("events out of append order: %s, %s", events[0].Source, events[1].Source)
	}
	if len(events[0].Effects) != 2 {
		t.Errorf("effects not preserved: %v", events[0].Effects)
	}
}

func TestReadMissingFile(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "absent.jsonl"))
	events, err := log.Read(context.Background())
	if err != nil {
		t.Fatalf("Read of missing file failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty log, got %d events", len(events))
	}
}

func TestConcurrentAppends(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "events.jsonl"))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := log.Append(ctx, "core-1", []string{"unblock:core-2"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append failed: %v", err)
		}
	}

	events, err := log.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(events) != n {
		t.Errorf("expected %d events, got %d (lost or torn appends)", n, len(events))
	}
}

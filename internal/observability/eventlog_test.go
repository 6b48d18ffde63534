package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("opening event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := newTestLog(t)

	if err := log.Write(Event{Type: "task_created", Data: map[string]any{"task_id": "abc"}}); err != nil {
		t.Fatalf("writing: %v", err)
	}
	if err := log.Write(Event{Type: "standup_posted"}); err != nil {
		t.Fatalf("writing: %v", err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "task_created" || events[0].Data["task_id"] != "abc" {
		t.Errorf("first event mapped wrong: %+v", events[0])
	}
}

func TestEventLog_ZeroTimeAutoSet(t *testing.T) {
	log, _ := newTestLog(t)

	before := time.Now().UTC().Add(-time.Second)
	if err := log.Write(Event{Type: "task_created"}); err != nil {
		t.Fatal(err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Time.Before(before) {
		t.Errorf("expected write time stamped, got %v", events[0].Time)
	}
}

func TestEventLog_FilterByType(t *testing.T) {
	log, _ := newTestLog(t)

	for _, typ := range []string{"task_created", "task_completed", "task_created"} {
		if err := log.Write(Event{Type: typ}); err != nil {
			t.Fatal(err)
		}
	}

	events, err := log.Read(EventFilter{Type: "task_created"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 matching events, got %d", len(events))
	}
}

func TestEventLog_FilterByTimeWindow(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := log.Write(Event{Time: base.AddDate(0, 0, i), Type: "task_created"}); err != nil {
			t.Fatal(err)
		}
	}

	since := base.AddDate(0, 0, 1)
	until := base.AddDate(0, 0, 1)
	events, err := log.Read(EventFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event in the window, got %d", len(events))
	}
	if !events[0].Time.Equal(since) {
		t.Errorf("wrong event selected: %v", events[0].Time)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)

	if err := log.Write(Event{Type: "task_created"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{truncated partial wri\n\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if err := log.Write(Event{Type: "standup_posted"}); err != nil {
		t.Fatal(err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading past a malformed line: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected malformed line skipped, got %d events", len(events))
	}
}

func TestEventLog_ReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = log.Close() }()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("missing file must read as empty: %v", err)
	}
	if events != nil {
		t.Errorf("expected nil events, got %v", events)
	}
}

func TestEventLog_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Write(Event{Type: "task_created"}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = second.Close() }()
	if err := second.Write(Event{Type: "task_completed"}); err != nil {
		t.Fatal(err)
	}

	events, err := second.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("expected both events across reopen, got %d", len(events))
	}
}

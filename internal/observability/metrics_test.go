package observability

import (
	"math"
	"testing"
	"time"
)

func TestMetrics_Calculate(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: base, Type: "task_created"},
		{Time: base.Add(time.Hour), Type: "task_updated"},
		{Time: base.Add(2 * time.Hour), Type: "task_completed", Data: map[string]any{"duration_hours": 2.0}},
		{Time: base.Add(3 * time.Hour), Type: "task_completed", Data: map[string]any{"duration_hours": 4.0}},
		{Time: base.Add(4 * time.Hour), Type: "work_log_queried"},
		{Time: base.Add(5 * time.Hour), Type: "standup_posted"},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatal(err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating: %v", err)
	}

	if m.TasksCreated != 1 || m.TasksUpdated != 1 || m.TasksCompleted != 2 {
		t.Errorf("task counts wrong: %+v", m)
	}
	if m.WorkLogQueries != 1 || m.StandupsPosted != 1 {
		t.Errorf("query/post counts wrong: %+v", m)
	}
	if m.EventCount != 6 {
		t.Errorf("EventCount = %d, want 6", m.EventCount)
	}
	if math.Abs(m.AvgTaskHours-3.0) > 1e-9 {
		t.Errorf("AvgTaskHours = %v, want 3.0", m.AvgTaskHours)
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v", m.OldestEvent)
	}
	if m.NewestEvent == nil || !m.NewestEvent.Equal(base.Add(5*time.Hour)) {
		t.Errorf("NewestEvent = %v", m.NewestEvent)
	}
}

func TestMetrics_SinceBoundExcludesOldEvents(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	if err := log.Write(Event{Time: base.AddDate(0, 0, -10), Type: "task_created"}); err != nil {
		t.Fatal(err)
	}
	if err := log.Write(Event{Time: base, Type: "task_created"}); err != nil {
		t.Fatal(err)
	}

	m, err := NewMetricsCalculator(log).Calculate(base.AddDate(0, 0, -1))
	if err != nil {
		t.Fatal(err)
	}
	if m.TasksCreated != 1 || m.EventCount != 1 {
		t.Errorf("expected only the recent event counted: %+v", m)
	}
}

func TestMetrics_CompletionWithoutDuration(t *testing.T) {
	log, _ := newTestLog(t)

	if err := log.Write(Event{Type: "task_completed"}); err != nil {
		t.Fatal(err)
	}

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if m.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d", m.TasksCompleted)
	}
	if m.AvgTaskHours != 0 {
		t.Errorf("untimed completions must not skew the average, got %v", m.AvgTaskHours)
	}
}

func TestMetrics_EmptyLog(t *testing.T) {
	log, _ := newTestLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}

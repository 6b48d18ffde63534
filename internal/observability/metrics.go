package observability

import (
	"fmt"
	"time"
)

// Metrics summarizes agent activity derived from the event log.
type Metrics struct {
	TasksCreated   int        `json:"tasks_created"`
	TasksUpdated   int        `json:"tasks_updated"`
	TasksCompleted int        `json:"tasks_completed"`
	WorkLogQueries int        `json:"work_log_queries"`
	StandupsPosted int        `json:"standups_posted"`
	AvgTaskHours   float64    `json:"avg_task_hours"`
	EventCount     int        `json:"event_count"`
	OldestEvent    *time.Time `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator over the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{EventCount: len(events)}

	var totalHours float64
	var timedCompletions int

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "task_created":
			m.TasksCreated++
		case "task_updated":
			m.TasksUpdated++
		case "task_completed":
			m.TasksCompleted++
			if hours, ok := event.Data["duration_hours"].(float64); ok {
				totalHours += hours
				timedCompletions++
			}
		case "work_log_queried":
			m.WorkLogQueries++
		case "standup_posted":
			m.StandupsPosted++
		}
	}

	if timedCompletions > 0 {
		m.AvgTaskHours = totalHours / float64(timedCompletions)
	}

	return m, nil
}

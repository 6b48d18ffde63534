package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability
// package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Telemetry event names emitted by the task tools and publish protocol.
const (
	EventTaskCreated    = "task_created"
	EventTaskUpdated    = "task_updated"
	EventTaskCompleted  = "task_completed"
	EventWorkLogQueried = "work_log_queried"
	EventStandupPosted  = "standup_posted"
)

// emit sends a telemetry event best-effort. Emission failures are
// swallowed: telemetry must never fail the underlying operation.
func emit(logger EventLogger, eventType string, data map[string]any) {
	if logger == nil {
		return
	}
	_ = logger.LogEvent(eventType, data)
}

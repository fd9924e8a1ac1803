package notification

import (
	"time"
)

// Topics notifications are published on
const (
	TopicAttendanceWarnings = "attendance.warnings"
	TopicReconciliation     = "attendance.reconciliation"
)

// Event names carried on the stream
const (
	EventDuplicateWarning   = "attendance-duplicate-warning"
	EventReconcileFailed    = "attendance-reconcile-delete-failed"
	EventReconcileCompleted = "attendance-reconcile-completed"
)

// Message is one fire-and-forget notification. Messages are not persisted;
// subscribers that are not connected when a message is delivered miss it.
type Message struct {
	ID        string
	Topic     string
	Event     string
	Message   string
	Detail    interface{}
	CreatedAt time.Time
}

// KnownTopic reports whether topic is one the service delivers on.
func KnownTopic(topic string) bool {
	switch topic {
	case TopicAttendanceWarnings, TopicReconciliation:
		return true
	}
	return false
}

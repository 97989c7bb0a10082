// Package notify carries the engine's human-readable notifications and
// progress events out to the UI. The engine raises them; it never formats
// or renders them.
package notify

import "github.com/stockmeta/api/internal/model"

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notifier receives engine events for one session.
type Notifier interface {
	// Notify raises a human-readable (title, message, severity) triple.
	Notify(sessionID, title, message string, severity Severity)

	// ItemStatus reports an item status transition.
	ItemStatus(sessionID, itemID string, status model.ProcessStatus)

	// QueueState reports the scheduler entering or leaving its loop.
	QueueState(sessionID string, processing bool)
}

// Nop discards all events. Used in tests and as a default.
type Nop struct{}

func (Nop) Notify(sessionID, title, message string, severity Severity)      {}
func (Nop) ItemStatus(sessionID, itemID string, status model.ProcessStatus) {}
func (Nop) QueueState(sessionID string, processing bool)                    {}

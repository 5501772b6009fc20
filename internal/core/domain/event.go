package domain

import "fmt"

// EventType classifies an Event emitted by a running task.
type EventType string

const (
	// EventProgress reports intermediate work.
	EventProgress EventType = "progress"
	// EventCompleted reports a terminal summary.
	EventCompleted EventType = "completed"
	// EventException reports a failure that was isolated to one unit of work.
	EventException EventType = "exception"
)

// Event is a progress, completion or exception signal from a task.
type Event struct {
	Type EventType
	Data string
}

// Progressf builds a progress event.
func Progressf(format string, args ...any) Event {
	return Event{Type: EventProgress, Data: fmt.Sprintf(format, args...)}
}

// Completedf builds a completion event.
func Completedf(format string, args ...any) Event {
	return Event{Type: EventCompleted, Data: fmt.Sprintf(format, args...)}
}

// Exception wraps err into an exception event.
func Exception(err error) Event {
	return Event{Type: EventException, Data: "ERROR: " + err.Error()}
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Data)
}

// Package events defines the events a filtering run emits.
// All events are designed for JSON serialization.
//
// Every event embeds BaseEvent, which carries the type, time and run ID.
// A run emits, in order: one StartEvent, one MatchEvent per matched pair,
// then either a SummaryEvent or an ErrorEvent, and finally a CompleteEvent.
package events

import "time"

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeStart indicates a run has started.
	EventTypeStart EventType = "start"
	// EventTypeMatch indicates a request/response pair matched.
	EventTypeMatch EventType = "match"
	// EventTypeError indicates the run failed.
	EventTypeError EventType = "error"
	// EventTypeSummary carries the run totals.
	EventTypeSummary EventType = "summary"
	// EventTypeComplete indicates a run has finished, successfully or not.
	EventTypeComplete EventType = "complete"
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	RunID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

// NewBase returns a BaseEvent stamped with the current time.
func NewBase(t EventType, runID string) BaseEvent {
	return BaseEvent{Type: t, Time: time.Now(), Run: runID}
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunID returns the identifier of the run that produced this event.
func (e BaseEvent) RunID() string { return e.Run }

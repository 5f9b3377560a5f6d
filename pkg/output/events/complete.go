package events

import "time"

// CompleteEvent is always the last event of a run.
type CompleteEvent struct {
	BaseEvent
	Success    bool          `json:"success"`
	ExitReason string        `json:"exit_reason"`
	Duration   time.Duration `json:"duration_ns,format:nano"`
}

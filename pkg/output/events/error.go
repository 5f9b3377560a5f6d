package events

// ErrorEvent is emitted when a run fails. Malformed traffic never produces
// one; only missing input, empty input, write failures and internal faults do.
type ErrorEvent struct {
	BaseEvent
	Input     string `json:"input,omitempty"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

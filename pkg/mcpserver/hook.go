package mcpserver

import (
	"context"

	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Hook bridges a run's event dispatcher to the MCP session (log
// notifications) and to the server-wide dispatcher. It implements
// dispatcher.Hook.
type Hook struct {
	types   []events.EventType
	onEvent func(context.Context, events.Event)
}

// NewHook creates a Hook that calls fn for every event of the given types,
// or for every event when types is empty.
func NewHook(fn func(context.Context, events.Event), types ...events.EventType) *Hook {
	return &Hook{types: types, onEvent: fn}
}

// OnEvent is called by the dispatcher for each matching event.
func (h *Hook) OnEvent(ctx context.Context, event events.Event) error {
	if h.onEvent != nil {
		h.onEvent(ctx, event)
	}
	return nil
}

// EventTypes returns the types passed to NewHook.
func (h *Hook) EventTypes() []events.EventType {
	return h.types
}

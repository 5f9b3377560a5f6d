// Package dispatcher routes run events to writers and hooks.
//
// Writers persist events (the JSONL stream); hooks integrate with live
// systems (logging, metrics, tracing, run history). Events are delivered
// synchronously and in emission order, so a hook observing CompleteEvent
// has seen everything before it.
package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Writer is the interface for all output writers.
type Writer interface {
	// Write writes an event to the output.
	Write(event events.Event) error

	// Flush ensures all buffered events are written.
	Flush() error

	// Close closes the writer and releases any resources.
	Close() error

	// SupportsEvent returns true if the writer handles this event type.
	SupportsEvent(eventType events.EventType) bool
}

// Hook is the interface for event hooks.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(ctx context.Context, event events.Event) error

	// EventTypes returns the event types this hook handles.
	// Return nil or empty slice to receive all events.
	EventTypes() []events.EventType
}

// Dispatcher routes events to writers and hooks. It is safe for
// concurrent use, but a single run should dispatch from one goroutine to
// keep event order meaningful.
type Dispatcher struct {
	mu      sync.RWMutex
	writers []Writer
	hooks   []Hook
	logger  *slog.Logger
	closed  bool
}

// New creates a dispatcher. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// RegisterWriter adds a writer to the dispatcher.
func (d *Dispatcher) RegisterWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append(d.writers, w)
}

// RegisterHook adds a hook to the dispatcher.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch delivers event to every interested writer and hook. A failing
// consumer is logged and skipped; the others still receive the event.
// Dispatch on a closed or nil dispatcher is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	et := event.EventType()
	for _, w := range d.writers {
		if !w.SupportsEvent(et) {
			continue
		}
		if err := w.Write(event); err != nil {
			d.logger.Warn("event writer failed", slog.String("event", string(et)), slog.String("error", err.Error()))
		}
	}
	for _, h := range d.hooks {
		if !handles(h, et) {
			continue
		}
		if err := h.OnEvent(ctx, event); err != nil {
			d.logger.Warn("event hook failed", slog.String("event", string(et)), slog.String("error", err.Error()))
		}
	}
}

func handles(h Hook, et events.EventType) bool {
	types := h.EventTypes()
	return len(types) == 0 || slices.Contains(types, et)
}

// Flush flushes all registered writers.
func (d *Dispatcher) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for _, w := range d.writers {
		errs = append(errs, w.Flush())
	}
	return errors.Join(errs...)
}

// Close flushes and closes all writers, and closes hooks that implement
// io.Closer. The dispatcher drops events afterwards.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	for _, w := range d.writers {
		errs = append(errs, w.Flush(), w.Close())
	}
	for _, h := range d.hooks {
		if c, ok := h.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

package hooks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/history"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*HistoryHook)(nil)

// HistoryHook saves one record per successful run. It remembers each
// run's start configuration and persists when the summary arrives.
type HistoryHook struct {
	store  *history.Store
	tags   []string
	logger *slog.Logger

	mu     sync.Mutex
	starts map[string]*events.StartEvent
}

// HistoryHookOptions configures the history hook.
type HistoryHookOptions struct {
	// Store receives the records.
	Store *history.Store

	// Tags are user-defined labels attached to every record.
	Tags []string

	// Logger for structured logging (default: slog.Default()).
	Logger *slog.Logger
}

// NewHistoryHook creates a new history hook.
func NewHistoryHook(opts HistoryHookOptions) *HistoryHook {
	return &HistoryHook{
		store:  opts.Store,
		tags:   opts.Tags,
		logger: orDefault(opts.Logger),
		starts: make(map[string]*events.StartEvent),
	}
}

// OnEvent records starts and saves summaries. A failed save is logged and
// never fails the run.
func (h *HistoryHook) OnEvent(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		h.starts[e.RunID()] = e
	case *events.CompleteEvent:
		delete(h.starts, e.RunID())
	case *events.SummaryEvent:
		rec := h.buildRecord(e, h.starts[e.RunID()])
		if err := h.store.Save(rec); err != nil {
			h.logger.Warn("failed to save run record", slog.String("error", err.Error()))
			return nil
		}
		h.logger.Debug("saved run record", slog.String("id", rec.ID), slog.String("output", rec.OutputPath))
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *HistoryHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeStart, events.EventTypeSummary, events.EventTypeComplete}
}

func (h *HistoryHook) buildRecord(s *events.SummaryEvent, start *events.StartEvent) *history.RunRecord {
	rec := &history.RunRecord{
		ID:         s.RunID(),
		Timestamp:  s.Timestamp(),
		Input:      s.Input,
		URLKeyword: s.URLKeyword,
		Mode:       s.Mode,
		OutputPath: s.OutputPath,
		Matched:    s.Count,
		Entries:    s.Totals.Entries,
		Candidates: s.Totals.Candidates,
		Repaired:   s.Totals.Repaired,
		DurationMs: s.Duration.Milliseconds(),
		Version:    defaults.Version,
		Tags:       h.tags,
	}
	if start != nil {
		rec.ContentType = start.Config.ContentType
		rec.MatchMode = start.Config.MatchMode
		rec.Scanner = start.Config.Scanner
	}
	return rec
}

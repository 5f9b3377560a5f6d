package hooks

import (
	"context"
	"log/slog"

	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// LoggerHook writes every run event to a structured logger. Matches log at
// debug level; run boundaries at info; failures at error.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook returns a hook logging to logger (slog.Default() if nil).
func NewLoggerHook(logger *slog.Logger) *LoggerHook {
	return &LoggerHook{logger: orDefault(logger)}
}

// OnEvent logs event.
func (h *LoggerHook) OnEvent(ctx context.Context, event events.Event) error {
	run := slog.String("run_id", event.RunID())
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.InfoContext(ctx, "run started", run,
			slog.String("input", e.Input),
			slog.Int("bytes", e.Bytes),
			slog.String("url_keyword", e.Config.URLKeyword),
			slog.String("match_mode", e.Config.MatchMode),
			slog.String("scanner", e.Config.Scanner))
	case *events.MatchEvent:
		h.logger.DebugContext(ctx, "pair matched", run,
			slog.Int("index", e.Index),
			slog.String("request", e.RequestLine),
			slog.String("status", e.StatusLine),
			slog.Int("valid", e.Valid),
			slog.Int("repaired", e.Repaired))
	case *events.SummaryEvent:
		h.logger.InfoContext(ctx, "run summary", run,
			slog.String("output", e.OutputPath),
			slog.Int("count", e.Count),
			slog.Int("entries", e.Totals.Entries),
			slog.Int("repaired", e.Totals.Repaired),
			slog.Duration("duration", e.Duration))
	case *events.ErrorEvent:
		h.logger.ErrorContext(ctx, "run failed", run,
			slog.String("error_type", e.ErrorType),
			slog.String("error", e.Message))
	case *events.CompleteEvent:
		h.logger.DebugContext(ctx, "run complete", run,
			slog.Bool("success", e.Success),
			slog.String("reason", e.ExitReason))
	}
	return nil
}

// EventTypes returns nil: the logger sees every event.
func (h *LoggerHook) EventTypes() []events.EventType { return nil }

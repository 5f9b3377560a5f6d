// Package sieve runs one traffic filtering job end to end: read the capture
// log, filter it, write the export, and report the outcome.
//
// Every run emits events through an optional dispatcher, so logging,
// metrics, tracing and run history observe runs without the engine knowing
// about them. A run never panics out: unexpected failures are recovered and
// returned as ErrInternal.
package sieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/iohelper"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
	"github.com/trafficsieve/trafficsieve/pkg/traffic"
)

// Options carries run collaborators. The zero value is usable.
type Options struct {
	// Dispatcher receives run events. Nil disables events.
	Dispatcher *dispatcher.Dispatcher

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// RunID defaults to a new UUID.
	RunID string

	// Now stamps the output file name. Defaults to time.Now.
	Now func() time.Time
}

// Report is the outcome of a successful run.
type Report struct {
	RunID      string        `json:"run_id"`
	Input      string        `json:"input"`
	URLKeyword string        `json:"url_keyword"`
	Mode       string        `json:"mode"`
	OutputPath string        `json:"output_path"`
	Count      int           `json:"count"`
	Stats      traffic.Stats `json:"stats"`
	Duration   time.Duration `json:"duration_ns,format:nano"`
	// Summary is the human-readable outcome: absolute output path and count.
	Summary string `json:"summary"`
}

type run struct {
	cfg    config.Config
	opts   Options
	logger *slog.Logger
	id     string
	start  time.Time
}

func newRun(cfg config.Config, opts Options) *run {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return &run{
		cfg:    cfg,
		opts:   opts,
		logger: opts.Logger.With(slog.String("run_id", id)),
		id:     id,
		start:  time.Now(),
	}
}

// Run filters cfg.Log and writes the export into cfg.ExportDir.
//
// Errors match ErrInputNotFound, ErrInputUnreadable, ErrInputEmpty,
// ErrWriteFailure, ErrInternal or config.ErrInvalidConfig /
// config.ErrMissingRequired. A log with no matching traffic is not an
// error: the export is written empty and Count is zero.
func Run(ctx context.Context, cfg config.Config, opts Options) (rep *Report, err error) {
	r := newRun(cfg, opts)
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("run panicked", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			rep, err = nil, fmt.Errorf("%w: %v", ErrInternal, p)
		}
		if err != nil {
			r.fail(ctx, err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := ParseSummaryTemplate(cfg.SummaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	raw, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	res, err := traffic.Filter(raw, cfg.Filter())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	r.emitMatches(ctx, res.Pairs)

	path, err := traffic.Create(cfg.ExportDir, cfg.URLKeyword, cfg.PreserveContext, r.opts.Now(), res.Text(separator(cfg)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}

	rep = &Report{
		RunID:      r.id,
		Input:      cfg.Log,
		URLKeyword: cfg.URLKeyword,
		Mode:       traffic.ExportMode(cfg.PreserveContext),
		OutputPath: path,
		Count:      res.Count,
		Stats:      res.Stats,
		Duration:   time.Since(r.start),
	}
	if rep.Summary, err = renderSummary(tmpl, rep); err != nil {
		// The export exists; fall back to the built-in wording.
		r.logger.Warn("custom summary template failed", slog.String("error", err.Error()))
		def, _ := ParseSummaryTemplate("")
		rep.Summary, _ = renderSummary(def, rep)
	}

	r.succeed(ctx, rep)
	return rep, nil
}

// read loads the log and emits the start event.
func (r *run) read(ctx context.Context) (string, error) {
	raw, err := iohelper.ReadFile(r.cfg.Log, defaults.MaxLogSize)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, r.cfg.Log)
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	case strings.TrimSpace(raw) == "":
		return "", fmt.Errorf("%w: %s", ErrInputEmpty, r.cfg.Log)
	}

	r.opts.Dispatcher.Dispatch(ctx, &events.StartEvent{
		BaseEvent: events.NewBase(events.EventTypeStart, r.id),
		Input:     r.cfg.Log,
		Bytes:     len(raw),
		Config:    runConfig(r.cfg),
	})
	return raw, nil
}

func (r *run) emitMatches(ctx context.Context, pairs []traffic.MatchedPair) {
	for i, p := range pairs {
		ps := summarize(i+1, p)
		r.opts.Dispatcher.Dispatch(ctx, &events.MatchEvent{
			BaseEvent:   events.NewBase(events.EventTypeMatch, r.id),
			Index:       ps.Index,
			RequestLine: ps.RequestLine,
			StatusLine:  ps.StatusLine,
			Valid:       ps.Valid,
			Repaired:    ps.Repaired,
		})
	}
}

func (r *run) succeed(ctx context.Context, rep *Report) {
	d := r.opts.Dispatcher
	d.Dispatch(ctx, &events.SummaryEvent{
		BaseEvent:  events.NewBase(events.EventTypeSummary, r.id),
		Input:      rep.Input,
		URLKeyword: rep.URLKeyword,
		Mode:       rep.Mode,
		OutputPath: rep.OutputPath,
		Count:      rep.Count,
		Totals:     totals(rep.Stats),
		Duration:   rep.Duration,
	})
	d.Dispatch(ctx, &events.CompleteEvent{
		BaseEvent:  events.NewBase(events.EventTypeComplete, r.id),
		Success:    true,
		ExitReason: "completed",
		Duration:   rep.Duration,
	})
	r.logger.Debug("run finished", slog.String("output", rep.OutputPath), slog.Int("count", rep.Count))
}

func (r *run) fail(ctx context.Context, err error) {
	kind := ErrorType(err)
	d := r.opts.Dispatcher
	d.Dispatch(ctx, &events.ErrorEvent{
		BaseEvent: events.NewBase(events.EventTypeError, r.id),
		Input:     r.cfg.Log,
		ErrorType: kind,
		Message:   err.Error(),
	})
	d.Dispatch(ctx, &events.CompleteEvent{
		BaseEvent:  events.NewBase(events.EventTypeComplete, r.id),
		ExitReason: kind,
		Duration:   time.Since(r.start),
	})
}

func runConfig(cfg config.Config) events.RunConfig {
	return events.RunConfig{
		URLKeyword:      cfg.URLKeyword,
		ContentType:     cfg.ContentType,
		MinJSONLength:   cfg.MinJSONLength,
		PreserveContext: cfg.PreserveContext,
		MatchMode:       cfg.MatchMode,
		Scanner:         cfg.Scanner,
		Dedupe:          cfg.Dedupe,
		ExportDir:       cfg.ExportDir,
	}
}

func totals(s traffic.Stats) events.Totals {
	return events.Totals{
		Entries:    s.Entries,
		Requests:   s.Requests,
		Responses:  s.Responses,
		Unknown:    s.Unknown,
		Foreign:    s.Foreign,
		Orphans:    s.Orphans,
		Discarded:  s.Discarded,
		Rejected:   s.Rejected,
		Candidates: s.Candidates,
		Valid:      s.Valid,
		Repaired:   s.Repaired,
		Duplicates: s.Duplicates,
	}
}

func separator(cfg config.Config) string {
	if cfg.Separator == "" {
		return defaults.Separator
	}
	return cfg.Separator
}

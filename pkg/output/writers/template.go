package writers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
	"github.com/trafficsieve/trafficsieve/templates"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig selects the report template. Exactly one field is used,
// in the order TemplatePath, TemplateString, BuiltIn.
type TemplateConfig struct {
	TemplatePath   string
	TemplateString string
	// BuiltIn is one of BuiltInTemplates().
	BuiltIn string
}

// BuiltInTemplates returns the names of the built-in report templates.
func BuiltInTemplates() []string {
	return templates.ReportNames()
}

// TemplateWriter buffers match and summary events and renders one report
// on Close. Sprig functions are available in templates.
type TemplateWriter struct {
	mu      sync.Mutex
	w       io.Writer
	tmpl    *template.Template
	runID   string
	matches []*events.MatchEvent
	summary *events.SummaryEvent
}

// NewTemplateWriter parses the template immediately and fails on errors.
func NewTemplateWriter(w io.Writer, cfg TemplateConfig) (*TemplateWriter, error) {
	src, err := templateSource(cfg)
	if err != nil {
		return nil, err
	}
	funcs := sprig.TxtFuncMap()
	funcs["escapeCSV"] = tmplEscapeCSV
	funcs["json"] = tmplToJSON

	tmpl, err := template.New("report").Funcs(funcs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &TemplateWriter{w: w, tmpl: tmpl}, nil
}

func templateSource(cfg TemplateConfig) (string, error) {
	switch {
	case cfg.TemplatePath != "":
		content, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(content), nil
	case cfg.TemplateString != "":
		return cfg.TemplateString, nil
	case cfg.BuiltIn != "":
		content, ok := templates.Report(cfg.BuiltIn)
		if !ok {
			return "", fmt.Errorf("unknown built-in template: %s (available: %s)",
				cfg.BuiltIn, strings.Join(BuiltInTemplates(), ", "))
		}
		return content, nil
	default:
		return "", fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}
}

// Write buffers an event for later rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.runID == "" {
		tw.runID = event.RunID()
	}
	switch e := event.(type) {
	case *events.MatchEvent:
		tw.matches = append(tw.matches, e)
	case *events.SummaryEvent:
		tw.summary = e
	}
	return nil
}

// Flush is a no-op; the report is rendered once on Close.
func (tw *TemplateWriter) Flush() error { return nil }

// Close renders the report. Runs that failed before a summary render with
// an empty summary.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	summary := tw.summary
	if summary == nil {
		summary = &events.SummaryEvent{}
	}
	data := struct {
		RunID   string
		Summary *events.SummaryEvent
		Matches []*events.MatchEvent
	}{tw.runID, summary, tw.matches}

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}
	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for match and summary events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeMatch || eventType == events.EventTypeSummary
}

func tmplEscapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func tmplToJSON(v any) string {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

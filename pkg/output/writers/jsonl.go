// Package writers provides dispatcher.Writer implementations for run events.
package writers

import (
	"bufio"
	"io"
	"slices"
	"sync"

	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONLWriter)(nil)

// JSONLWriter writes events as newline-delimited JSON, one event per line,
// so the stream can be followed with tail -f and filtered with jq.
type JSONLWriter struct {
	mu      sync.Mutex
	dst     io.Writer
	buf     *bufio.Writer
	encoder *jsonutil.Encoder
	opts    JSONLOptions
}

// JSONLOptions configures the JSONL writer behavior.
type JSONLOptions struct {
	// Types restricts output to these event types. Empty writes all.
	Types []events.EventType

	// Pretty enables indented JSON output. Not JSONL compliant; for debugging.
	Pretty bool
}

// NewJSONLWriter creates a JSONL writer that writes to w.
// The writer is safe for concurrent use.
func NewJSONLWriter(w io.Writer, opts JSONLOptions) *JSONLWriter {
	buf := bufio.NewWriter(w)
	enc := jsonutil.NewStreamEncoder(buf)
	if opts.Pretty {
		enc.SetIndent("  ")
	}
	return &JSONLWriter{dst: w, buf: buf, encoder: enc, opts: opts}
}

// Write encodes event as one JSON line.
func (jw *JSONLWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.encoder.Encode(event)
}

// Flush writes buffered lines to the destination.
func (jw *JSONLWriter) Flush() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.buf.Flush()
}

// Close flushes and, if the destination implements io.Closer, closes it.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	if err := jw.buf.Flush(); err != nil {
		return err
	}
	if closer, ok := jw.dst.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent reports whether eventType passes the Types filter.
func (jw *JSONLWriter) SupportsEvent(eventType events.EventType) bool {
	return len(jw.opts.Types) == 0 || slices.Contains(jw.opts.Types, eventType)
}

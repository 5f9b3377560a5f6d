package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// OTelHook exports one span per run to an OpenTelemetry collector.
// Matches become span events; the summary becomes span attributes.
// Runs are tracked by run ID, so one hook can serve concurrent runs.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	mu     sync.Mutex
	spans  map[string]trace.Span
	closed bool
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP gRPC endpoint (default: "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: defaults.ToolName).
	ServiceName string

	// Insecure disables TLS to the collector.
	Insecure bool

	// Headers are sent with every export request.
	Headers map[string]string

	// ShutdownTimeout bounds the final flush (default: 5s).
	ShutdownTimeout time.Duration

	// SpanProcessor replaces the OTLP exporter. Used by tests and by
	// callers that already run a pipeline.
	SpanProcessor sdktrace.SpanProcessor
}

// NewOTelHook creates the hook. Without a SpanProcessor it dials the OTLP
// endpoint; the connection is established lazily and export failures never
// fail a run.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4317"
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = defaults.ShutdownTimeout
	}

	processor := opts.SpanProcessor
	if processor == nil {
		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			exporterOpts = append(exporterOpts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		}
		if len(opts.Headers) > 0 {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
		}
		exporter, err := otlptracegrpc.New(context.Background(), exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("otel: create exporter: %w", err)
		}
		processor = sdktrace.NewBatchSpanProcessor(exporter)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "filter"),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return &OTelHook{
		opts:           opts,
		tracerProvider: tp,
		tracer:         tp.Tracer(defaults.ToolName + "/run"),
		spans:          make(map[string]trace.Span),
	}, nil
}

// OnEvent records event on the span of its run.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	if start, ok := event.(*events.StartEvent); ok {
		h.handleStart(ctx, start)
		return nil
	}
	span, ok := h.spans[event.RunID()]
	if !ok {
		return nil
	}

	switch e := event.(type) {
	case *events.MatchEvent:
		span.AddEvent("pair_matched", trace.WithAttributes(
			attribute.Int("index", e.Index),
			attribute.String("request_line", e.RequestLine),
			attribute.String("status_line", e.StatusLine),
			attribute.Int("valid", e.Valid),
			attribute.Int("repaired", e.Repaired),
		))
	case *events.SummaryEvent:
		span.SetAttributes(
			attribute.String("output.path", e.OutputPath),
			attribute.String("output.mode", e.Mode),
			attribute.Int("totals.matched", e.Count),
			attribute.Int("totals.entries", e.Totals.Entries),
			attribute.Int("totals.requests", e.Totals.Requests),
			attribute.Int("totals.responses", e.Totals.Responses),
			attribute.Int("totals.candidates", e.Totals.Candidates),
			attribute.Int("totals.repaired", e.Totals.Repaired),
			attribute.Int("totals.duplicates", e.Totals.Duplicates),
		)
	case *events.ErrorEvent:
		span.AddEvent("run_failed", trace.WithAttributes(
			attribute.String("error_type", e.ErrorType),
			attribute.String("message", e.Message),
		))
		span.SetStatus(codes.Error, e.Message)
	case *events.CompleteEvent:
		if e.Success {
			span.SetStatus(codes.Ok, e.ExitReason)
		} else {
			span.SetStatus(codes.Error, e.ExitReason)
		}
		span.End()
		delete(h.spans, e.RunID())
	}
	return nil
}

func (h *OTelHook) handleStart(ctx context.Context, start *events.StartEvent) {
	_, span := h.tracer.Start(ctx, defaults.ToolName+".run",
		trace.WithTimestamp(start.Timestamp()),
		trace.WithAttributes(
			attribute.String("run_id", start.RunID()),
			attribute.String("input", start.Input),
			attribute.Int("input.bytes", start.Bytes),
			attribute.String("filter.url_keyword", start.Config.URLKeyword),
			attribute.String("filter.content_type", start.Config.ContentType),
			attribute.Int("filter.min_json_length", start.Config.MinJSONLength),
			attribute.Bool("filter.preserve_context", start.Config.PreserveContext),
			attribute.String("filter.match_mode", start.Config.MatchMode),
			attribute.String("filter.scanner", start.Config.Scanner),
		),
	)
	h.spans[start.RunID()] = span
}

// EventTypes returns nil: every run event is relevant to the span.
func (h *OTelHook) EventTypes() []events.EventType { return nil }

// Close ends open spans and flushes pending telemetry.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for id, span := range h.spans {
		span.SetStatus(codes.Error, "run did not complete")
		span.End()
		delete(h.spans, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
	defer cancel()
	if err := h.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("otel: shutdown tracer provider: %w", err)
	}
	return nil
}

// Endpoint returns the OTLP endpoint being used.
func (h *OTelHook) Endpoint() string { return h.opts.Endpoint }

// ServiceName returns the service name being used.
func (h *OTelHook) ServiceName() string { return h.opts.ServiceName }

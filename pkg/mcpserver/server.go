package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// The SDK defines LoggingLevel as a bare string type without constants.
const (
	logInfo    mcp.LoggingLevel = "info"
	logWarning mcp.LoggingLevel = "warning"
)

// Config holds MCP server configuration.
type Config struct {
	// Defaults seeds every tool call. Arguments override individual fields.
	Defaults config.Config

	// Dispatcher receives the events of every run started by a tool
	// (metrics, history, JSONL). Nil disables server-wide observers.
	Dispatcher *dispatcher.Dispatcher

	// Metrics is mounted at /metrics by HTTPHandler when non-nil.
	Metrics http.Handler

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wraps the MCP server with trafficsieve functionality.
type Server struct {
	mcp    *mcp.Server
	config *Config
	logger *slog.Logger
	ready  atomic.Bool
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// MarkReady makes /health report ready. Until then it answers 503.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady reports whether MarkReady was called.
func (s *Server) IsReady() bool { return s.ready.Load() }

// New creates a server with all tools, resources and prompts registered.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{Defaults: config.Default()}
	}
	if cfg.Defaults.ExportDir == "" {
		cfg.Defaults.ExportDir = defaults.ExportDir
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		logger: logger.With(slog.String("component", "mcp")),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   defaults.ToolNameDisplay + " MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// RunStdio serves over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP transport with health and metrics
// endpoints:
//   - /health  readiness probe (GET, HEAD)
//   - /metrics Prometheus exposition, when Config.Metrics is set
//   - /mcp     streamable HTTP transport
//   - /        streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.config.Metrics != nil {
		mux.Handle("/metrics", s.config.Metrics)
	}
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return corsMiddleware(s.recoveryMiddleware(securityHeaders(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	status, code := "ok", http.StatusOK
	if !s.IsReady() {
		status, code = "starting", http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q,"service":"%s-mcp","version":%q}`, status, defaults.ToolName, defaults.Version)
}

// corsMiddleware reflects the request Origin so browser-based MCP clients
// can connect. Requests without an Origin pass through untouched.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")

		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			strings.Join([]string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a handler panic into a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in HTTP handler",
					slog.Any("panic", err),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())))

				// Headers may already be sent while streaming; WriteHeader is then a no-op.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Helpers: result builders
// ---------------------------------------------------------------------------

type toolHandler = func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// loggedTool logs every call with its duration and outcome.
func (s *Server) loggedTool(name string, h toolHandler) toolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := h(ctx, req)
		attrs := []any{
			slog.String("tool", name),
			slog.Duration("duration", time.Since(start)),
		}
		switch {
		case err != nil:
			s.logger.Error("tool call failed", append(attrs, slog.String("error", err.Error()))...)
		case res != nil && res.IsError:
			s.logger.Warn("tool returned error result", attrs...)
		default:
			s.logger.Debug("tool call", attrs...)
		}
		return res, err
	}
}

// logToSession sends a structured log message to the MCP client.
func logToSession(ctx context.Context, session *mcp.ServerSession, level mcp.LoggingLevel, data any) {
	if session == nil {
		return
	}
	// Log delivery is advisory.
	_ = session.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: defaults.ToolName,
		Data:   data,
	})
}

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// enrichedError creates an IsError result with recovery guidance, so the
// model can self-correct instead of seeing a protocol error.
func enrichedError(msg string, recoverySteps []string) *mcp.CallToolResult {
	type errResponse struct {
		Error         string   `json:"error"`
		RecoverySteps []string `json:"recovery_steps"`
	}
	data, _ := jsonutil.MarshalIndent(errResponse{
		Error:         msg,
		RecoverySteps: recoverySteps,
	}, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Server Instructions
// ---------------------------------------------------------------------------

const serverInstructions = `You are operating TrafficSieve, a filter for HTTP proxy capture logs (Burp-style text exports). A capture log is a sequence of entries separated by a line of 54 '=' characters; each entry is a request, a response, or noise.

TrafficSieve pairs each request whose text contains a URL keyword with the response that immediately follows it, keeps the pair only when the response mentions an allowed content type (default "Content-Type: application/json") and carries at least one parseable JSON value, and writes the kept entries to a new file.

## TOOL SELECTION GUIDE

| User Intent | Tool |
|---|---|
| "How much API traffic is in this log?" | inspect_traffic_log (read-only, writes nothing) |
| "Pull out the calls to api.example.com" | filter_traffic_log (writes a new file) |
| "Is this blob valid JSON / fix it" | extract_json (pure, no files) |

## RECOMMENDED WORKFLOW

1. inspect_traffic_log with the user's keyword to preview match count and stats.
2. If count is 0, read the stats: many "foreign" requests means the keyword is wrong; many "rejected" responses means the content type filter or JSON check failed.
3. filter_traffic_log with the confirmed keyword. Report the "output_path" and "count" to the user.

## OPTIONS

- preserve_context=true (default) exports full request and response text; false exports only the JSON bodies.
- match_mode "entry" checks each entry alone (no request/response pairing).
- scanner "depth" extracts whole nested JSON values; "lazy" (default) takes the shortest bracketed span and repairs it.
- dedupe drops repeated identical pairs.

## RESOURCES

- trafficsieve://version: version and tool inventory
- trafficsieve://log-format: capture log format and matching rules
- trafficsieve://config: effective defaults

## ERRORS

Failures come back as {"error": ..., "recovery_steps": [...]}. Follow the recovery steps; never guess file paths.`

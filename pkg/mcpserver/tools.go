package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/traffic"
)

// registerTools adds all traffic tools to the MCP server.
func (s *Server) registerTools() {
	s.addFilterTool()
	s.addInspectTool()
	s.addExtractJSONTool()
}

// filterProperties are the schema properties shared by filter and inspect.
func filterProperties() map[string]any {
	return map[string]any{
		"log_path": map[string]any{
			"type":        "string",
			"description": "Path to the capture log on the server's filesystem.",
		},
		"url_keyword": map[string]any{
			"type":        "string",
			"description": "Case-insensitive substring a request must contain (host, path, or any text). Empty matches every request.",
		},
		"content_type": map[string]any{
			"type":        "string",
			"description": "Case-insensitive substring the response must contain.",
			"default":     defaults.ContentTypeWhitelist,
		},
		"min_json_length": map[string]any{
			"type":        "integer",
			"description": "Shortest JSON candidate considered, in characters after trimming.",
			"default":     defaults.MinJSONLength,
			"minimum":     0,
		},
		"preserve_context": map[string]any{
			"type":        "boolean",
			"description": "true exports full request and response text; false exports only the JSON bodies.",
			"default":     defaults.PreserveContext,
		},
		"match_mode": map[string]any{
			"type":        "string",
			"description": "paired: request followed by its response. entry: each entry judged alone.",
			"enum":        []string{defaults.MatchModePaired, defaults.MatchModeEntry},
			"default":     defaults.MatchModePaired,
		},
		"scanner": map[string]any{
			"type":        "string",
			"description": "lazy: shortest bracketed span, repaired. depth: whole nested values.",
			"enum":        []string{defaults.ScannerLazy, defaults.ScannerDepth},
			"default":     defaults.ScannerLazy,
		},
		"dedupe": map[string]any{
			"type":        "boolean",
			"description": "Drop pairs whose request and response text already matched.",
			"default":     false,
		},
	}
}

// logArgs are the arguments of filter_traffic_log and inspect_traffic_log.
// Nil fields keep the server default.
type logArgs struct {
	LogPath         string  `json:"log_path"`
	LogText         string  `json:"log_text"`
	URLKeyword      *string `json:"url_keyword"`
	ContentType     *string `json:"content_type"`
	MinJSONLength   *int    `json:"min_json_length"`
	PreserveContext *bool   `json:"preserve_context"`
	ExportDir       string  `json:"export_dir"`
	MatchMode       string  `json:"match_mode"`
	Scanner         string  `json:"scanner"`
	Dedupe          *bool   `json:"dedupe"`
}

func (a logArgs) apply(cfg config.Config) config.Config {
	if a.LogPath != "" {
		cfg.Log = a.LogPath
	}
	if a.URLKeyword != nil {
		cfg.URLKeyword = *a.URLKeyword
	}
	if a.ContentType != nil {
		cfg.ContentType = *a.ContentType
	}
	if a.MinJSONLength != nil {
		cfg.MinJSONLength = *a.MinJSONLength
	}
	if a.PreserveContext != nil {
		cfg.PreserveContext = *a.PreserveContext
	}
	if a.ExportDir != "" {
		cfg.ExportDir = a.ExportDir
	}
	if a.MatchMode != "" {
		cfg.MatchMode = a.MatchMode
	}
	if a.Scanner != "" {
		cfg.Scanner = a.Scanner
	}
	if a.Dedupe != nil {
		cfg.Dedupe = *a.Dedupe
	}
	return cfg
}

// recoverySteps maps a run failure to guidance for the model.
func recoverySteps(err error) []string {
	switch sieve.ErrorType(err) {
	case "input_not_found":
		return []string{
			"Ask the user for the exact path of the capture log; do not guess.",
			"Paths are resolved on the server, relative to its working directory.",
		}
	case "input_empty":
		return []string{"The log holds only whitespace. Confirm the proxy actually saved traffic to it."}
	case "input_unreadable":
		return []string{
			"Check that log_path names a regular, readable file.",
			fmt.Sprintf("Logs larger than %d MiB are refused; split the capture first.", defaults.MaxLogSize>>20),
		}
	case "write_failure":
		return []string{
			"Check that export_dir exists and is writable by the server.",
			"Retry with a different export_dir.",
		}
	case "internal":
		return []string{"Retry once. If it fails again, report the error text to the user."}
	default:
		return []string{
			"Check argument values: min_json_length must be >= 0.",
			"match_mode must be 'paired' or 'entry'; scanner must be 'lazy' or 'depth'.",
			"log_path is required.",
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// filter_traffic_log
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addFilterTool() {
	props := filterProperties()
	props["export_dir"] = map[string]any{
		"type":        "string",
		"description": "Existing directory that receives the output file. Defaults to the server's export directory.",
	}
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "filter_traffic_log",
			Title: "Filter Traffic Log",
			Description: `Isolate the API calls to one host or path from a proxy capture log and write them to a new file.

USE THIS TOOL WHEN:
• The user wants the requests/responses for a specific API pulled out of a Burp-style log
• You already previewed the log with 'inspect_traffic_log' and the count looks right

DO NOT USE THIS TOOL WHEN:
• You only need counts or a preview: use 'inspect_traffic_log' (writes nothing)
• The input is a single JSON blob: use 'extract_json'

The source log is never modified. Each call writes a NEW file named
burp_<context|json>_<keyword>_<YYYYMMDD_HHMMSS>.log; existing files are never overwritten.

EXAMPLE INPUTS:
• {"log_path": "burp.log", "url_keyword": "api.example.com"}
• JSON bodies only: {"log_path": "burp.log", "url_keyword": "/v2/orders", "preserve_context": false}

Returns: summary text, absolute output_path, matched count, and per-stage stats.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   []string{"log_path"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:    false,
				DestructiveHint: boolPtr(false),
				IdempotentHint:  false,
				OpenWorldHint:   boolPtr(false),
				Title:           "Filter Traffic Log",
			},
		},
		s.loggedTool("filter_traffic_log", s.handleFilter),
	)
}

type filterResponse struct {
	Summary   string        `json:"summary"`
	Report    *sieve.Report `json:"report"`
	NextSteps []string      `json:"next_steps,omitempty"`
}

func (s *Server) handleFilter(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args logArgs
	if err := parseArgs(req, &args); err != nil {
		return enrichedError(fmt.Sprintf("invalid arguments: %v", err), recoverySteps(config.ErrInvalidConfig)), nil
	}
	if args.LogText != "" {
		return enrichedError("filter_traffic_log reads files only", []string{
			"Pass the capture file path as log_path.",
			"For inline text use inspect_traffic_log with log_text.",
		}), nil
	}

	cfg := args.apply(s.config.Defaults)
	rep, err := sieve.Run(ctx, cfg, sieve.Options{
		Dispatcher: s.runDispatcher(req.Session),
		Logger:     s.logger,
	})
	if err != nil {
		return enrichedError(sieve.Describe(err), recoverySteps(err)), nil
	}

	resp := filterResponse{Summary: rep.Summary, Report: rep}
	if rep.Count == 0 {
		resp.NextSteps = []string{
			"Nothing matched. Call inspect_traffic_log with the same arguments and read stats.",
			"High stats.foreign: the url_keyword does not occur in the requests.",
			"High stats.rejected: responses lack the content type or valid JSON; try content_type \"\".",
		}
	}
	return jsonResult(resp)
}

// runDispatcher builds a per-call dispatcher that forwards events to the
// server-wide dispatcher and streams progress to the calling session.
func (s *Server) runDispatcher(session *mcp.ServerSession) *dispatcher.Dispatcher {
	d := dispatcher.New(s.logger)
	if s.config.Dispatcher != nil {
		d.RegisterHook(NewHook(func(ctx context.Context, e events.Event) {
			s.config.Dispatcher.Dispatch(ctx, e)
		}))
	}
	if session != nil {
		d.RegisterHook(NewHook(func(ctx context.Context, e events.Event) {
			switch ev := e.(type) {
			case *events.MatchEvent:
				logToSession(ctx, session, logInfo, map[string]any{
					"match":  ev.Index,
					"status": ev.StatusLine,
				})
			case *events.ErrorEvent:
				logToSession(ctx, session, logWarning, map[string]any{
					"error_type": ev.ErrorType,
					"message":    ev.Message,
				})
			}
		}, events.EventTypeMatch, events.EventTypeError))
	}
	return d
}

// ═══════════════════════════════════════════════════════════════════════════
// inspect_traffic_log
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addInspectTool() {
	props := filterProperties()
	props["log_text"] = map[string]any{
		"type":        "string",
		"description": "Capture log content given inline, instead of log_path.",
	}
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "inspect_traffic_log",
			Title: "Inspect Traffic Log",
			Description: `Dry run of filter_traffic_log: report what would be exported WITHOUT writing any file.

USE THIS TOOL WHEN:
• Previewing how many pairs a keyword matches before filtering
• Diagnosing a filter that matched nothing (read stats.foreign / stats.rejected / stats.orphans)
• The log was pasted into the conversation (pass it as log_text)

Provide exactly one of log_path or log_text.

EXAMPLE INPUTS:
• {"log_path": "burp.log", "url_keyword": "api.example.com"}
• {"log_text": "GET /api HTTP/1.1\n======...\nHTTP/1.1 200 OK\nContent-Type: application/json\n\n{\"ok\":true}"}

Returns: count, stats, and per-pair request line, status line and a JSON preview.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": props,
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Inspect Traffic Log",
			},
		},
		s.loggedTool("inspect_traffic_log", s.handleInspect),
	)
}

func (s *Server) handleInspect(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args logArgs
	if err := parseArgs(req, &args); err != nil {
		return enrichedError(fmt.Sprintf("invalid arguments: %v", err), recoverySteps(config.ErrInvalidConfig)), nil
	}
	if (args.LogPath == "") == (args.LogText == "") {
		return enrichedError("provide exactly one of log_path or log_text", []string{
			"Use log_path for files on the server.",
			"Use log_text for log content pasted by the user.",
		}), nil
	}

	cfg := args.apply(s.config.Defaults)
	if args.LogText != "" {
		if len(args.LogText) > defaults.MaxInlineText {
			return enrichedError("log_text is too large", []string{
				fmt.Sprintf("Inline logs are limited to %d MiB; save the log to a file and pass log_path.", defaults.MaxInlineText>>20),
			}), nil
		}
		if strings.TrimSpace(args.LogText) == "" {
			return enrichedError(sieve.Describe(sieve.ErrInputEmpty), recoverySteps(sieve.ErrInputEmpty)), nil
		}
		in, err := sieve.InspectText(args.LogText, cfg.Filter())
		if err != nil {
			return enrichedError(sieve.Describe(err), recoverySteps(err)), nil
		}
		return jsonResult(in)
	}

	in, err := sieve.Inspect(ctx, cfg)
	if err != nil {
		return enrichedError(sieve.Describe(err), recoverySteps(err)), nil
	}
	return jsonResult(in)
}

// ═══════════════════════════════════════════════════════════════════════════
// extract_json
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addExtractJSONTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "extract_json",
			Title: "Extract JSON",
			Description: `Find JSON objects and arrays in arbitrary text, validate them, and repair truncated ones.

Repair trims trailing ',', ';', ')' and '}' and appends the missing closing brackets.
Every candidate is reported with its original span, its repaired form, and valid/repaired flags.

EXAMPLE INPUTS:
• {"text": "HTTP/1.1 200 OK\n\n{\"a\":1,\"b\":[1,2"}
• Whole nested values: {"text": "...", "scanner": "depth"}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "Text to scan, e.g. an HTTP response body.",
					},
					"min_json_length": map[string]any{
						"type":    "integer",
						"default": defaults.MinJSONLength,
						"minimum": 0,
					},
					"scanner": map[string]any{
						"type":    "string",
						"enum":    []string{defaults.ScannerLazy, defaults.ScannerDepth},
						"default": defaults.ScannerLazy,
					},
				},
				"required": []string{"text"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Extract JSON",
			},
		},
		s.loggedTool("extract_json", s.handleExtractJSON),
	)
}

type extractArgs struct {
	Text          string `json:"text"`
	MinJSONLength *int   `json:"min_json_length"`
	Scanner       string `json:"scanner"`
}

type extractResponse struct {
	Summary    string              `json:"summary"`
	Candidates []traffic.Candidate `json:"candidates"`
	Valid      []string            `json:"valid"`
}

func (s *Server) handleExtractJSON(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args extractArgs
	if err := parseArgs(req, &args); err != nil {
		return enrichedError(fmt.Sprintf("invalid arguments: %v", err), []string{"Pass text as a string."}), nil
	}
	if args.Text == "" {
		return enrichedError("text is required", []string{"Pass the text to scan as 'text'."}), nil
	}
	if len(args.Text) > defaults.MaxInlineText {
		return enrichedError("text is too large", []string{"Trim the text to the response body."}), nil
	}

	x := traffic.Extractor{MinLength: s.config.Defaults.MinJSONLength, Scanner: traffic.ScanLazy}
	if args.MinJSONLength != nil {
		x.MinLength = *args.MinJSONLength
	}
	switch traffic.ScannerMode(args.Scanner) {
	case "", traffic.ScanLazy:
	case traffic.ScanDepth:
		x.Scanner = traffic.ScanDepth
	default:
		return enrichedError(fmt.Sprintf("unknown scanner %q", args.Scanner), []string{"Use 'lazy' or 'depth'."}), nil
	}
	if x.MinLength < 0 {
		return enrichedError("min_json_length must be >= 0", []string{"Omit it to use the default."}), nil
	}

	cands := x.Extract(args.Text)
	valid := traffic.ValidTexts(cands)
	repaired := 0
	for _, c := range cands {
		if c.Repaired {
			repaired++
		}
	}
	return jsonResult(extractResponse{
		Summary: fmt.Sprintf("%d candidate(s) in %d characters: %d valid, %d repaired",
			len(cands), utf8.RuneCountInString(args.Text), len(valid), repaired),
		Candidates: nonNil(cands),
		Valid:      nonNil(valid),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

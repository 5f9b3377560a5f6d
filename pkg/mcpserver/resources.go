package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
)

// Resource URIs.
const (
	uriVersion   = "trafficsieve://version"
	uriLogFormat = "trafficsieve://log-format"
	uriConfig    = "trafficsieve://config"
)

// registerResources adds all domain-knowledge resources to the MCP server.
func (s *Server) registerResources() {
	s.addVersionResource()
	s.addLogFormatResource()
	s.addConfigResource()
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func (s *Server) addVersionResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriVersion,
			Name:        "TrafficSieve Version",
			Description: "Server version, capabilities, and tool inventory.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonContents(uriVersion, map[string]any{
				"name":    defaults.ToolNameDisplay,
				"version": defaults.Version,
				"capabilities": map[string]any{
					"tools":     3,
					"resources": 3,
					"prompts":   1,
				},
				"tools":       []string{"filter_traffic_log", "inspect_traffic_log", "extract_json"},
				"match_modes": []string{defaults.MatchModePaired, defaults.MatchModeEntry},
				"scanners":    []string{defaults.ScannerLazy, defaults.ScannerDepth},
			})
		},
	)
}

var logFormatGuide = `# Capture log format

A capture log is plain text: HTTP entries separated by a line of ` + fmt.Sprint(len(defaults.Separator)) + ` '=' characters.

    ` + defaults.Separator + `
    10:39:37  https://api.example.com:443  [10.0.0.8]
    ` + defaults.Separator + `
    GET /v1/orders HTTP/1.1
    Host: api.example.com
    ` + defaults.Separator + `
    HTTP/1.1 200 OK
    Content-Type: application/json

    {"orders":[]}
    ` + defaults.Separator + `

## Classification

1. A line starting with HTTP/<digit> (a status line) makes the entry a response.
2. Otherwise a method token (` + strings.Join(defaults.HTTPMethods, ", ") + `) makes it a request.
3. Otherwise any HTTP/ token makes it a response.
4. Everything else (timestamps, banners, blank noise) is ignored.

## Pairing (match_mode "paired")

A request containing the URL keyword waits for the next response. A second request replaces it.
The response is kept when it contains the content-type substring and at least one JSON value
of min_json_length characters that parses, possibly after repair. The request and response are
then exported together, in input order.

## JSON repair

Trailing ',', ';', ')' and '}' are trimmed, then the missing ']' and '}' are appended in nesting order.

## Output

<export_dir>/burp_<context|json>_<keyword>_<YYYYMMDD_HHMMSS>.log, entries joined by the separator.
A name collision adds _1, _2, ... The input log is never modified.
`

func (s *Server) addLogFormatResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriLogFormat,
			Name:        "Capture Log Format",
			Description: "How capture logs are split, classified, paired and exported.",
			MIMEType:    "text/markdown",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: uriLogFormat, MIMEType: "text/markdown", Text: logFormatGuide},
				},
			}, nil
		},
	)
}

func (s *Server) addConfigResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriConfig,
			Name:        "Effective Defaults",
			Description: "Default values every tool call starts from, and their bounds.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			d := s.config.Defaults
			return jsonContents(uriConfig, map[string]any{
				"url_keyword":      d.URLKeyword,
				"content_type":     d.ContentType,
				"min_json_length":  d.MinJSONLength,
				"preserve_context": d.PreserveContext,
				"match_mode":       d.MatchMode,
				"scanner":          d.Scanner,
				"dedupe":           d.Dedupe,
				"export_dir":       d.ExportDir,
				"methods":          d.Methods,
				"separator_length": len(d.Separator),
				"bounds": map[string]any{
					"max_log_bytes":    defaults.MaxLogSize,
					"max_inline_bytes": defaults.MaxInlineText,
				},
			})
		},
	)
}

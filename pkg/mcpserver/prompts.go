package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts adds all guided workflow prompts to the MCP server.
func (s *Server) registerPrompts() {
	s.addIsolateAPITrafficPrompt()
}

func (s *Server) addIsolateAPITrafficPrompt() {
	s.mcp.AddPrompt(
		&mcp.Prompt{
			Name:        "isolate_api_traffic",
			Description: "Inspect a capture log, tune the filter until it matches, then export the API traffic for one host or path.",
			Arguments: []*mcp.PromptArgument{
				{Name: "log_path", Description: "Path to the capture log on the server", Required: true},
				{Name: "url_keyword", Description: "Host or path fragment identifying the API (e.g. api.example.com)", Required: true},
				{Name: "json_only", Description: "'true' to export only JSON bodies instead of full request/response text", Required: false},
			},
		},
		func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			logPath := req.Params.Arguments["log_path"]
			keyword := req.Params.Arguments["url_keyword"]
			if logPath == "" || keyword == "" {
				return nil, fmt.Errorf("'log_path' and 'url_keyword' arguments are required")
			}
			preserve := "true"
			if req.Params.Arguments["json_only"] == "true" {
				preserve = "false"
			}

			return &mcp.GetPromptResult{
				Description: fmt.Sprintf("Isolate %s traffic from %s", keyword, logPath),
				Messages: []*mcp.PromptMessage{
					{
						Role: "user",
						Content: &mcp.TextContent{
							Text: fmt.Sprintf(`Extract the API traffic for %[2]q from the capture log %[1]s.

## Step 1: Preview
Call inspect_traffic_log with {"log_path": %[1]q, "url_keyword": %[2]q}.
Report count and stats.entries.

## Step 2: Diagnose (only if count is 0)
- stats.requests is 0: the file may not be a capture log. Read trafficsieve://log-format and explain.
- stats.foreign equals stats.requests: the keyword never occurs. Suggest a shorter keyword and ask the user.
- stats.rejected is high: responses are not JSON. Retry inspect with content_type "" and compare.
- stats.discarded is high: requests were not followed by a response. The capture may be truncated.

## Step 3: Export
Call filter_traffic_log with {"log_path": %[1]q, "url_keyword": %[2]q, "preserve_context": %[3]s}
plus any option that fixed step 2.

## Step 4: Report
Give the user the output_path, the matched count, and how many JSON bodies needed repair (stats.repaired).`,
								logPath, keyword, preserve),
						},
					},
				},
			}, nil
		},
	)
}

// Package mcpserver exposes trafficsieve as a Model Context Protocol (MCP)
// server, so AI assistants can isolate API traffic from proxy capture logs
// through conversation.
//
// # Architecture
//
// The server is built on the official MCP Go SDK and exposes three
// categories of capabilities:
//
//   - Tools:     filter_traffic_log, inspect_traffic_log, extract_json
//   - Resources: version, log format reference, effective defaults
//   - Prompts:   isolate_api_traffic, a guided inspect-then-filter workflow
//
// Tool failures are returned as IsError results carrying an "error" and
// "recovery_steps" envelope, never as protocol errors, so the model can
// correct its arguments and retry.
//
// # Transports
//
//   - stdio: stdin/stdout, used by IDE integrations.
//   - HTTP:  streamable HTTP on /mcp (and /), with /health and optionally
//     /metrics on the same mux.
//
// # Usage
//
//	srv := mcpserver.New(&mcpserver.Config{Defaults: config.Default()})
//	err := srv.RunStdio(ctx)
package mcpserver

// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for runtime configuration defaults.
//
// Usage:
//
//	cfg.MinJSONLength = defaults.MinJSONLength
//	entries := traffic.Split(raw, defaults.Separator)
//
// DO NOT hardcode the separator or the whitelist anywhere else.
package defaults

import "time"

// Version is the current trafficsieve version
const Version = "1.2.0"

// ToolName is the lowercase binary and MCP server name.
const ToolName = "trafficsieve"

// ToolNameDisplay is the human-facing product name.
const ToolNameDisplay = "TrafficSieve"

// ============================================================================
// LOG FORMAT
// ============================================================================
//
// The proxy writes every captured request and response as one block and
// joins blocks with a line of 54 '=' characters.
// ============================================================================

const (
	// Separator delimits entries in proxy logs and in exported files.
	Separator = "======================================================"

	// ContentTypeWhitelist is the header a response must carry to match.
	ContentTypeWhitelist = "Content-Type: application/json"

	// MinJSONLength is the minimum trimmed length of a JSON candidate (5).
	MinJSONLength = 5

	// PreserveContext exports request/response text instead of bare JSON.
	PreserveContext = true

	// ExportDir is where result files are written.
	ExportDir = "."

	// OutputPrefix starts every exported file name.
	OutputPrefix = "burp"

	// OutputExt ends every exported file name.
	OutputExt = ".log"

	// TimestampLayout is the file name timestamp (seconds resolution).
	TimestampLayout = "20060102_150405"

	// EmptyKeywordName replaces an empty keyword in file names.
	EmptyKeywordName = "all"
)

// HTTPMethods are the request verbs recognised by the classifier.
var HTTPMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// ============================================================================
// MODES
// ============================================================================

const (
	// MatchModePaired pairs each matching request with the next response.
	MatchModePaired = "paired"

	// MatchModeEntry evaluates every entry on its own.
	MatchModeEntry = "entry"

	// ScannerLazy uses shortest-span bracket matching.
	ScannerLazy = "lazy"

	// ScannerDepth tracks bracket depth and string literals.
	ScannerDepth = "depth"
)

// ============================================================================
// LIMITS AND SERVICES
// ============================================================================

const (
	// MaxLogSize bounds a single input log (512MB).
	MaxLogSize int64 = 512 * 1024 * 1024

	// MaxInlineText bounds text passed inline to the MCP extract tool (4MB).
	MaxInlineText = 4 * 1024 * 1024

	// HistoryDir is the default run history directory.
	HistoryDir = ".trafficsieve/history"

	// HistoryLimit is the default number of records the history command lists.
	HistoryLimit = 20

	// MCPAddr is the default listen address of the MCP HTTP transport.
	MCPAddr = ":8080"

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout = 5 * time.Second

	// ReadHeaderTimeout guards HTTP servers against slow clients.
	ReadHeaderTimeout = 10 * time.Second
)

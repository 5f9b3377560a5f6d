package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Run completed
	ExitNoMatches     = 1 // Run completed but nothing matched (only with -fail-empty)
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitInputError    = 3 // Log missing or empty
	ExitInternalError = 4 // Write failure or unexpected internal error
)

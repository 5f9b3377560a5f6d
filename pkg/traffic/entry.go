package traffic

// Kind labels what a log entry carries.
type Kind int

const (
	// Unknown entries never open or close a match and are never exported.
	Unknown Kind = iota
	// Request entries carry an HTTP method token.
	Request
	// Response entries carry an HTTP status line.
	Response
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Entry is one separator-delimited block of a capture log. Text is kept
// byte-for-byte as captured, including leading and trailing whitespace.
type Entry struct {
	Text string
	Kind Kind
}

// IsZero reports whether e holds no text.
func (e Entry) IsZero() bool { return e.Text == "" }

package events

// MatchEvent is emitted for every exported pair, in input order.
type MatchEvent struct {
	BaseEvent
	Index int `json:"index"`
	// RequestLine is empty for whole-entry matches.
	RequestLine string `json:"request_line,omitempty"`
	StatusLine  string `json:"status_line"`
	Valid       int    `json:"valid_candidates"`
	Repaired    int    `json:"repaired_candidates"`
}

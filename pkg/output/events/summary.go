package events

import "time"

// SummaryEvent carries the totals of a successful run.
type SummaryEvent struct {
	BaseEvent
	Input      string        `json:"input"`
	URLKeyword string        `json:"url_keyword"`
	Mode       string        `json:"mode"`
	OutputPath string        `json:"output_path"`
	Count      int           `json:"count"`
	Totals     Totals        `json:"totals"`
	Duration   time.Duration `json:"duration_ns,format:nano"`
}

// Totals mirrors the engine's per-run counters.
type Totals struct {
	Entries    int `json:"entries"`
	Requests   int `json:"requests"`
	Responses  int `json:"responses"`
	Unknown    int `json:"unknown"`
	Foreign    int `json:"foreign"`
	Orphans    int `json:"orphans"`
	Discarded  int `json:"discarded"`
	Rejected   int `json:"rejected"`
	Candidates int `json:"candidates"`
	Valid      int `json:"valid"`
	Repaired   int `json:"repaired"`
	Duplicates int `json:"duplicates"`
}

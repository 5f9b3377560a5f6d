package events

// StartEvent is emitted once the input log has been read.
type StartEvent struct {
	BaseEvent
	Input  string    `json:"input"`
	Bytes  int       `json:"bytes"`
	Config RunConfig `json:"config"`
}

// RunConfig is the part of the configuration worth recording.
type RunConfig struct {
	URLKeyword      string `json:"url_keyword"`
	ContentType     string `json:"content_type"`
	MinJSONLength   int    `json:"min_json_length"`
	PreserveContext bool   `json:"preserve_context"`
	MatchMode       string `json:"match_mode"`
	Scanner         string `json:"scanner"`
	Dedupe          bool   `json:"dedupe,omitempty"`
	ExportDir       string `json:"export_dir"`
}

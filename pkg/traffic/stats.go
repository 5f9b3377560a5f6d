package traffic

// Stats counts what a run saw. All fields are totals over the whole input.
type Stats struct {
	Entries   int `json:"entries"`
	Requests  int `json:"requests"`
	Responses int `json:"responses"`
	Unknown   int `json:"unknown"`

	// Foreign requests did not contain the URL keyword.
	Foreign int `json:"foreign"`
	// Orphans are responses that arrived with no pending request.
	Orphans int `json:"orphans"`
	// Discarded requests were replaced or reached end of input unanswered.
	Discarded int `json:"discarded"`
	// Rejected responses failed the whitelist or carried no valid JSON.
	Rejected int `json:"rejected"`

	Candidates int `json:"candidates"`
	Valid      int `json:"valid"`
	Repaired   int `json:"repaired"`
	Duplicates int `json:"duplicates"`
	Matched    int `json:"matched"`
}

func (s *Stats) count(k Kind) {
	s.Entries++
	switch k {
	case Request:
		s.Requests++
	case Response:
		s.Responses++
	default:
		s.Unknown++
	}
}

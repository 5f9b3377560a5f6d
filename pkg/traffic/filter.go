package traffic

import "strings"

// Result is the exportable outcome of a run.
type Result struct {
	// Entries are the exported blocks in input order.
	Entries []string
	// Count is the number of matched pairs.
	Count int
	Pairs []MatchedPair
	Stats Stats
}

// Text joins the exported entries with sep.
func (r *Result) Text(sep string) string {
	return strings.Join(r.Entries, sep)
}

// Filter runs the full pipeline over raw. It fails only on an invalid cfg;
// malformed traffic yields zero matches, never an error.
func Filter(raw string, cfg Config) (*Result, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	m, err := NewMatcher(cfg)
	if err != nil {
		return nil, err
	}

	var pairs []MatchedPair
	for _, text := range Split(raw, cfg.Separator) {
		if p, ok := m.Feed(m.Classifier().Entry(text)); ok {
			pairs = append(pairs, p)
		}
	}
	m.Finish()

	res := Export(pairs, cfg.PreserveContext)
	res.Stats = m.Stats()
	return res, nil
}

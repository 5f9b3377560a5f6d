package traffic

import (
	"github.com/spaolacci/murmur3"

	"github.com/trafficsieve/trafficsieve/pkg/strutil"
)

// State is the Matcher's position in the request/response protocol.
type State int

const (
	// Idle waits for a target request.
	Idle State = iota
	// AwaitingResponse holds one pending target request.
	AwaitingResponse
)

// String returns the state name.
func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// MatchedPair is a target request and the response that satisfied every
// filter condition. In MatchEntry mode Request is the zero Entry.
type MatchedPair struct {
	Request    Entry
	Response   Entry
	Candidates []Candidate
}

// JSON returns the parseable text of the pair's valid candidates.
func (p MatchedPair) JSON() []string { return ValidTexts(p.Candidates) }

// Matcher pairs requests with responses one entry at a time. A pending
// request accepts exactly one response; a response is never attached to
// more than one request. Not safe for concurrent use.
type Matcher struct {
	cfg        Config
	classifier *Classifier
	extractor  Extractor

	state   State
	pending Entry
	seen    map[[2]uint64]struct{}
	stats   Stats
}

// NewMatcher returns an Idle matcher for cfg.
func NewMatcher(cfg Config) (*Matcher, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	cl, err := NewClassifier(cfg.Methods, cfg.URLKeyword)
	if err != nil {
		return nil, err
	}
	m := &Matcher{
		cfg:        cfg,
		classifier: cl,
		extractor:  Extractor{MinLength: cfg.MinJSONLength, Scanner: cfg.Scanner},
	}
	if cfg.Dedupe {
		m.seen = make(map[[2]uint64]struct{})
	}
	return m, nil
}

// Classifier returns the classifier the matcher uses.
func (m *Matcher) Classifier() *Classifier { return m.classifier }

// State returns the current state.
func (m *Matcher) State() State { return m.state }

// Stats returns counters accumulated so far.
func (m *Matcher) Stats() Stats { return m.stats }

// Feed advances the matcher by one classified entry and returns the pair it
// completes, if any.
func (m *Matcher) Feed(e Entry) (MatchedPair, bool) {
	m.stats.count(e.Kind)
	if m.cfg.MatchMode == MatchEntry {
		return m.feedEntry(e)
	}

	switch {
	case e.Kind == Request:
		if m.state == AwaitingResponse {
			m.stats.Discarded++
		}
		m.state, m.pending = Idle, Entry{}
		if m.classifier.IsTarget(e.Text) {
			m.state, m.pending = AwaitingResponse, e
		} else {
			m.stats.Foreign++
		}
		return MatchedPair{}, false

	case e.Kind == Response && m.state == AwaitingResponse:
		req := m.pending
		m.state, m.pending = Idle, Entry{}
		if !strutil.ContainsFold(e.Text, m.cfg.ContentTypeWhitelist) {
			m.stats.Rejected++
			return MatchedPair{}, false
		}
		cands := m.evaluate(e.Text)
		if !HasValid(cands) {
			m.stats.Rejected++
			return MatchedPair{}, false
		}
		return m.emit(MatchedPair{Request: req, Response: e, Candidates: cands})

	case e.Kind == Response:
		m.stats.Orphans++
	}
	return MatchedPair{}, false
}

// Finish ends the input. A request still waiting for its response is
// dropped; no partial pair is ever produced.
func (m *Matcher) Finish() {
	if m.state == AwaitingResponse {
		m.stats.Discarded++
	}
	m.state, m.pending = Idle, Entry{}
}

func (m *Matcher) feedEntry(e Entry) (MatchedPair, bool) {
	if !m.classifier.IsTarget(e.Text) || !strutil.ContainsFold(e.Text, m.cfg.ContentTypeWhitelist) {
		return MatchedPair{}, false
	}
	cands := m.evaluate(e.Text)
	if !HasValid(cands) {
		m.stats.Rejected++
		return MatchedPair{}, false
	}
	return m.emit(MatchedPair{Response: e, Candidates: cands})
}

func (m *Matcher) evaluate(text string) []Candidate {
	cands := m.extractor.Extract(text)
	for _, c := range cands {
		m.stats.Candidates++
		if c.Valid {
			m.stats.Valid++
		}
		if c.Repaired {
			m.stats.Repaired++
		}
	}
	return cands
}

func (m *Matcher) emit(p MatchedPair) (MatchedPair, bool) {
	if m.seen != nil {
		key := pairKey(p, m.cfg.Separator)
		if _, dup := m.seen[key]; dup {
			m.stats.Duplicates++
			return MatchedPair{}, false
		}
		m.seen[key] = struct{}{}
	}
	m.stats.Matched++
	return p, true
}

func pairKey(p MatchedPair, sep string) [2]uint64 {
	h := murmur3.New128()
	h.Write([]byte(p.Request.Text))
	h.Write([]byte(sep))
	h.Write([]byte(p.Response.Text))
	a, b := h.Sum128()
	return [2]uint64{a, b}
}

package traffic

import (
	"strings"
	"unicode/utf8"

	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/regexcache"
)

// Shortest-span patterns. The first closing bracket ends the span, so nested
// values are cut short and left for Repair to close.
var (
	lazyObject = regexcache.MustGet(`(?s)\{.*?\}`)
	lazyArray  = regexcache.MustGet(`(?s)\[.*?\]`)
)

// Candidate is one bracket-delimited span proposed as a JSON payload.
type Candidate struct {
	// Span is the trimmed text as found in the entry.
	Span string `json:"span"`
	// Fixed is the text that parsed: Span itself, or its repaired form.
	// Empty when the candidate is not valid.
	Fixed    string `json:"fixed,omitempty"`
	Valid    bool   `json:"valid"`
	Repaired bool   `json:"repaired"`
}

// Extractor finds and validates JSON candidates in entry text.
type Extractor struct {
	MinLength int
	Scanner   ScannerMode
}

// Extract scans text with the lazy scanner and evaluates every span of at
// least minLen runes. Spans are returned objects first, then arrays.
func Extract(text string, minLen int) []Candidate {
	return Extractor{MinLength: minLen, Scanner: ScanLazy}.Extract(text)
}

// Extract evaluates every candidate span in text. It does not stop at the
// first valid candidate.
func (x Extractor) Extract(text string) []Candidate {
	if !hasJSONMarkers(text) {
		return nil
	}
	var spans []string
	if x.Scanner == ScanDepth {
		spans = depthSpans(text)
	} else {
		spans = append(lazyObject.FindAllString(text, -1), lazyArray.FindAllString(text, -1)...)
	}

	var out []Candidate
	for _, s := range spans {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) < x.MinLength {
			continue
		}
		out = append(out, Evaluate(s))
	}
	return out
}

// Evaluate parses span strictly and, on failure, once more after Repair.
func Evaluate(span string) Candidate {
	c := Candidate{Span: span}
	if jsonutil.Lenient([]byte(span)) {
		c.Valid, c.Fixed = true, span
		return c
	}
	if fixed := Repair(span); fixed != "" && jsonutil.Lenient([]byte(fixed)) {
		c.Valid, c.Repaired, c.Fixed = true, true, fixed
	}
	return c
}

// HasValid reports whether any candidate is valid.
func HasValid(cands []Candidate) bool {
	for _, c := range cands {
		if c.Valid {
			return true
		}
	}
	return false
}

// ValidTexts returns the parseable text of every valid candidate in order.
func ValidTexts(cands []Candidate) []string {
	var out []string
	for _, c := range cands {
		if c.Valid {
			out = append(out, c.Fixed)
		}
	}
	return out
}

// hasJSONMarkers is a cheap pre-check: entries without any bracket cannot
// hold a candidate.
func hasJSONMarkers(text string) bool {
	return strings.ContainsAny(text, "{}[]")
}

// depthSpans returns top-level bracketed spans, honouring nesting and string
// literals. A span still open at the end of text runs to the end.
func depthSpans(text string) []string {
	var (
		spans    []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}
	if depth > 0 && start >= 0 {
		spans = append(spans, text[start:])
	}
	return spans
}

package traffic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/regexcache"
	"github.com/trafficsieve/trafficsieve/pkg/strutil"
)

// statusLine matches a response status line on the first non-blank line.
var statusLine = regexcache.MustGet(`\A\s*HTTP/\d`)

// Classifier labels entries and applies the URL keyword test. It holds no
// per-run state and is safe for concurrent use.
type Classifier struct {
	methods *regexp.Regexp
	keyword string
}

// NewClassifier builds a classifier recognising the given method tokens
// (case-sensitive, whole words) and the URL keyword.
func NewClassifier(methods []string, keyword string) (*Classifier, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no HTTP methods", ErrInvalidConfig)
	}
	quoted := make([]string, len(methods))
	for i, m := range methods {
		m = strings.TrimSpace(m)
		if m == "" {
			return nil, fmt.Errorf("%w: empty HTTP method", ErrInvalidConfig)
		}
		quoted[i] = regexp.QuoteMeta(m)
	}
	re, err := regexcache.Get(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Classifier{methods: re, keyword: keyword}, nil
}

// Classify returns the kind of entry text.
//
// A leading status line wins over a method token so that response bodies
// quoting verbs ("method":"GET") stay responses. Status lines further down
// (a request body quoting one) do not count. A bare HTTP/ token without a
// method still marks a response.
func (c *Classifier) Classify(text string) Kind {
	switch {
	case statusLine.MatchString(text):
		return Response
	case c.methods.MatchString(text):
		return Request
	case strings.Contains(text, "HTTP/"):
		return Response
	default:
		return Unknown
	}
}

// IsTarget reports whether text contains the URL keyword.
func (c *Classifier) IsTarget(text string) bool {
	return strutil.ContainsFold(text, c.keyword)
}

// Entry classifies text into an Entry.
func (c *Classifier) Entry(text string) Entry {
	return Entry{Text: text, Kind: c.Classify(text)}
}

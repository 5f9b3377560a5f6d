package traffic

import (
	"errors"
	"fmt"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
)

// MatchMode selects how entries are grouped into matches.
type MatchMode string

const (
	// MatchPaired pairs a target request with the response that follows it.
	MatchPaired MatchMode = defaults.MatchModePaired
	// MatchEntry checks every entry on its own. Matches have no request.
	MatchEntry MatchMode = defaults.MatchModeEntry
)

// ScannerMode selects how JSON candidate spans are located.
type ScannerMode string

const (
	// ScanLazy takes the shortest span that closes each opening bracket.
	ScanLazy ScannerMode = defaults.ScannerLazy
	// ScanDepth tracks nesting and string literals to find whole values.
	ScanDepth ScannerMode = defaults.ScannerDepth
)

// ErrInvalidConfig is returned for configurations Filter cannot run.
var ErrInvalidConfig = errors.New("traffic: invalid config")

// Config controls one filtering run. It is passed by value and never
// mutated, so runs with different configs can share nothing.
//
// Keyword and whitelist comparisons are case-insensitive substring tests.
// An empty URLKeyword or ContentTypeWhitelist matches every entry.
type Config struct {
	URLKeyword           string
	ContentTypeWhitelist string
	MinJSONLength        int
	PreserveContext      bool

	// Separator defaults to defaults.Separator when empty.
	Separator string
	// Methods defaults to defaults.HTTPMethods when empty.
	Methods []string

	MatchMode MatchMode
	Scanner   ScannerMode
	// Dedupe drops pairs whose request and response text already matched.
	Dedupe bool
}

// DefaultConfig returns the configuration the proxy tooling has always
// used: JSON responses only, full request/response context exported.
func DefaultConfig() Config {
	return Config{
		ContentTypeWhitelist: defaults.ContentTypeWhitelist,
		MinJSONLength:        defaults.MinJSONLength,
		PreserveContext:      defaults.PreserveContext,
		Separator:            defaults.Separator,
		Methods:              append([]string(nil), defaults.HTTPMethods...),
		MatchMode:            MatchPaired,
		Scanner:              ScanLazy,
	}
}

// normalized fills unset optional fields and validates the rest.
func (c Config) normalized() (Config, error) {
	if c.Separator == "" {
		c.Separator = defaults.Separator
	}
	if len(c.Methods) == 0 {
		c.Methods = defaults.HTTPMethods
	}
	if c.MatchMode == "" {
		c.MatchMode = MatchPaired
	}
	if c.Scanner == "" {
		c.Scanner = ScanLazy
	}
	if c.MinJSONLength < 0 {
		return c, fmt.Errorf("%w: min JSON length %d is negative", ErrInvalidConfig, c.MinJSONLength)
	}
	switch c.MatchMode {
	case MatchPaired, MatchEntry:
	default:
		return c, fmt.Errorf("%w: unknown match mode %q", ErrInvalidConfig, c.MatchMode)
	}
	switch c.Scanner {
	case ScanLazy, ScanDepth:
	default:
		return c, fmt.Errorf("%w: unknown scanner %q", ErrInvalidConfig, c.Scanner)
	}
	return c, nil
}

// Validate reports whether c can be used by Filter.
func (c Config) Validate() error {
	_, err := c.normalized()
	return err
}

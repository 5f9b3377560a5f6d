package sieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/strutil"
	"github.com/trafficsieve/trafficsieve/pkg/traffic"
)

// previewLen caps the JSON preview stored per pair.
const previewLen = 160

// PairSummary describes one matched pair without its full text.
type PairSummary struct {
	Index       int    `json:"index"`
	RequestLine string `json:"request_line,omitempty"`
	StatusLine  string `json:"status_line"`
	Valid       int    `json:"valid_candidates"`
	Repaired    int    `json:"repaired_candidates"`
	Preview     string `json:"preview,omitempty"`
}

// Inspection is a dry run: what Run would export, without writing.
type Inspection struct {
	Input      string        `json:"input,omitempty"`
	URLKeyword string        `json:"url_keyword"`
	Mode       string        `json:"mode"`
	Count      int           `json:"count"`
	Stats      traffic.Stats `json:"stats"`
	Pairs      []PairSummary `json:"pairs"`
}

// Inspect reads cfg.Log and filters it without writing output. Input errors
// are the same as Run's; ExportDir is not required.
func Inspect(ctx context.Context, cfg config.Config) (*Inspection, error) {
	if strings.TrimSpace(cfg.Log) == "" {
		return nil, fmt.Errorf("%w: log path", config.ErrMissingRequired)
	}
	r := newRun(cfg, Options{})
	raw, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	in, err := InspectText(raw, cfg.Filter())
	if err != nil {
		return nil, err
	}
	in.Input = cfg.Log
	return in, nil
}

// InspectText filters raw log text in memory.
func InspectText(raw string, cfg traffic.Config) (*Inspection, error) {
	res, err := traffic.Filter(raw, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	in := &Inspection{
		URLKeyword: cfg.URLKeyword,
		Mode:       traffic.ExportMode(cfg.PreserveContext),
		Count:      res.Count,
		Stats:      res.Stats,
		Pairs:      make([]PairSummary, 0, len(res.Pairs)),
	}
	for i, p := range res.Pairs {
		in.Pairs = append(in.Pairs, summarize(i+1, p))
	}
	return in, nil
}

func summarize(index int, p traffic.MatchedPair) PairSummary {
	ps := PairSummary{
		Index:       index,
		RequestLine: strutil.Truncate(strutil.FirstLine(p.Request.Text), 200),
		StatusLine:  strutil.Truncate(strutil.FirstLine(p.Response.Text), 200),
	}
	for _, c := range p.Candidates {
		if c.Valid {
			ps.Valid++
		}
		if c.Repaired {
			ps.Repaired++
		}
	}
	if js := p.JSON(); len(js) > 0 {
		ps.Preview = strutil.Truncate(js[0], previewLen)
	}
	return ps
}

package main

import (
	"context"
	"fmt"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/ui"
)

// runInspect filters the log in memory and reports what would be exported.
func (c *cli) runInspect(args []string) int {
	f := newRunFlags("inspect", c)
	asJSON := f.fs.Bool("json", false, "Print the inspection as JSON on stdout")
	f.fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s inspect -log <file> [-keyword <kw>] [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(c.stderr, "Show what filter would export. Nothing is written.\n\n")
		f.fs.PrintDefaults()
	}
	if err := f.parse(args); err != nil {
		return c.parseError(err)
	}
	cfg, err := f.resolve(c.getenv)
	if err != nil {
		return c.exitWithError(err)
	}

	in, err := sieve.Inspect(context.Background(), cfg)
	if err != nil {
		return c.exitWithError(err)
	}

	if *asJSON {
		data, err := jsonutil.MarshalIndent(in, "", "  ")
		if err != nil {
			return c.exitWithError(fmt.Errorf("%w: %v", sieve.ErrInternal, err))
		}
		fmt.Fprintln(c.stdout, string(data))
		return defaults.ExitSuccess
	}

	s := in.Stats
	fmt.Fprintf(c.stdout, "%d pair(s) would be exported (%s mode) from %d entries\n", in.Count, in.Mode, s.Entries)
	for _, p := range in.Pairs {
		line := p.StatusLine
		if p.RequestLine != "" {
			line = p.RequestLine + "  ->  " + p.StatusLine
		}
		fmt.Fprintf(c.stdout, "%4d  %s\n", p.Index, line)
		if p.Preview != "" {
			fmt.Fprintf(c.stdout, "      %s\n", ui.HelpStyle.Render(p.Preview))
		}
	}
	ui.NewCard("Stats").
		Add("Requests", fmt.Sprintf("%d (%d foreign)", s.Requests, s.Foreign)).
		Add("Responses", fmt.Sprintf("%d (%d rejected, %d orphan)", s.Responses, s.Rejected, s.Orphans)).
		Add("Unknown", s.Unknown).
		Add("Unanswered", s.Discarded).
		Add("JSON", fmt.Sprintf("%d valid of %d, %d repaired", s.Valid, s.Candidates, s.Repaired)).
		Add("Duplicates", nonZero(s.Duplicates)).
		Print()
	return defaults.ExitSuccess
}

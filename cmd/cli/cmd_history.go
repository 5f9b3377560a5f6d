package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/history"
	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/ui"
)

// runHistory lists or prunes recorded runs.
func (c *cli) runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	dir := defaults.HistoryDir
	if v := c.getenv(config.EnvHistoryDir); v != "" {
		dir = v
	}
	fs.StringVar(&dir, "dir", dir, "History directory (env "+config.EnvHistoryDir+")")
	limit := fs.Int("limit", defaults.HistoryLimit, "Maximum records to list; 0 lists all")
	keyword := fs.String("keyword", "", "Only list runs whose URL keyword contains this")
	prune := fs.Duration("prune", 0, "Delete records older than this (e.g. 720h) instead of listing")
	asJSON := fs.Bool("json", false, "Print records as JSON")
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s history [flags]\n\n", defaults.ToolName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return c.parseError(err)
	}

	store, err := history.NewStore(dir)
	if err != nil {
		return c.exitWithError(fmt.Errorf("%w: %v", sieve.ErrInputUnreadable, err))
	}

	if *prune > 0 {
		n, err := store.Prune(*prune)
		if err != nil {
			return c.exitWithError(fmt.Errorf("%w: %v", sieve.ErrWriteFailure, err))
		}
		fmt.Fprintf(c.stdout, "pruned %d run(s) older than %s\n", n, *prune)
		return defaults.ExitSuccess
	}

	recs := store.List(history.Filter{Keyword: *keyword, Limit: *limit})
	if *asJSON {
		if recs == nil {
			recs = []*history.RunRecord{}
		}
		data, err := jsonutil.MarshalIndent(recs, "", "  ")
		if err != nil {
			return c.exitWithError(fmt.Errorf("%w: %v", sieve.ErrInternal, err))
		}
		fmt.Fprintln(c.stdout, string(data))
		return defaults.ExitSuccess
	}

	if len(recs) == 0 {
		ui.PrintInfo("no runs recorded in " + dir)
		return defaults.ExitSuccess
	}
	for _, r := range recs {
		kw := r.URLKeyword
		if kw == "" {
			kw = "(any)"
		}
		fmt.Fprintf(c.stdout, "%s  %-7s  %-24s  %5d matched  %s\n",
			r.Timestamp.Local().Format(time.DateTime), r.Mode, kw, r.Matched, r.OutputPath)
	}
	st := store.Stats()
	ui.NewCard("History").
		Add("Runs", st.TotalRuns).
		Add("Matched", st.TotalMatched).
		Add("Directory", dir).
		Print()
	return defaults.ExitSuccess
}

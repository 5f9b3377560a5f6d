package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/ui"
)

// runFilter reads the capture log, writes the filtered export and prints
// its absolute path and match count.
func (c *cli) runFilter(args []string) int {
	f := newRunFlags("filter", c)
	var obsFlags observerFlags
	obsFlags.register(f.fs)
	strict := f.fs.Bool("strict", false, "Exit with status 1 when nothing matched")
	f.fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s filter -log <file> [-keyword <kw>] [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(c.stderr, "Write the entries of <file> that belong to <kw> to a new file in -out-dir.\n")
		fmt.Fprintf(c.stderr, "The input file is never modified; existing output is never overwritten.\n\n")
		fmt.Fprintf(c.stderr, "Exit status: 0 ok, 1 no matches (-strict), 2 usage/config, 3 input, 4 write/internal.\n\n")
		fmt.Fprintf(c.stderr, "Flags:\n")
		f.fs.PrintDefaults()
	}
	if err := f.parse(args); err != nil {
		return c.parseError(err)
	}

	cfg, err := f.resolve(c.getenv)
	if err != nil {
		return c.exitWithError(err)
	}
	obsFlags.merge(cfg)

	logger := newLogger(c, f.Verbose, f.Silent)
	obs, err := buildObservers(obsFlags, logger)
	if err != nil {
		return c.exitWithError(err)
	}
	defer func() {
		if err := obs.close(); err != nil {
			logger.Warn("closing event outputs", "error", err)
		}
	}()

	if !f.Silent {
		ui.PrintBanner()
		printRunCard(cfg)
		if obs.prometheus != nil {
			ui.PrintInfo("metrics: " + obs.prometheus.MetricsURL())
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rep, err := sieve.Run(ctx, cfg, sieve.Options{Dispatcher: obs.dispatcher, Logger: logger})
	if err != nil {
		return c.exitWithError(err)
	}

	if f.Silent {
		fmt.Fprintln(c.stdout, rep.OutputPath)
	} else {
		fmt.Fprintln(c.stdout, rep.Summary)
		printStatsCard(rep)
	}

	if rep.Count == 0 {
		ui.PrintWarning("no traffic matched; run 'inspect' with the same flags to see why")
		if *strict {
			return defaults.ExitNoMatches
		}
	}
	return defaults.ExitSuccess
}

func printRunCard(cfg config.Config) {
	keyword := cfg.URLKeyword
	if keyword == "" {
		keyword = "(any)"
	}
	mode := "request + response"
	if !cfg.PreserveContext {
		mode = "JSON bodies only"
	}
	card := ui.NewCard("Filter").
		Add("Log", cfg.Log).
		AddEmphasis("Keyword", keyword).
		Add("Content type", cfg.ContentType).
		Add("Min JSON", cfg.MinJSONLength).
		Add("Export", mode).
		Add("Match mode", cfg.MatchMode).
		Add("Scanner", cfg.Scanner).
		Add("Output dir", cfg.ExportDir)
	if cfg.Dedupe {
		card.Add("Dedupe", "on")
	}
	card.Print()
}

func printStatsCard(rep *sieve.Report) {
	s := rep.Stats
	ui.NewCard("Result").
		AddEmphasis("Matched", rep.Count).
		Add("Entries", s.Entries).
		Add("Requests", fmt.Sprintf("%d (%d foreign)", s.Requests, s.Foreign)).
		Add("Responses", fmt.Sprintf("%d (%d rejected, %d orphan)", s.Responses, s.Rejected, s.Orphans)).
		Add("Unanswered", s.Discarded).
		Add("JSON", fmt.Sprintf("%d valid of %d, %d repaired", s.Valid, s.Candidates, s.Repaired)).
		Add("Duplicates", nonZero(s.Duplicates)).
		Add("Duration", rep.Duration.Round(time.Millisecond).String()).
		Print()
}

// nonZero formats n, or returns "" so Card skips the row.
func nonZero(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/iohelper"
	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/traffic"
)

// runExtract prints the JSON payloads found in a single text, repairing
// truncated ones. Reads stdin when -file is empty or "-".
func (c *cli) runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	file := fs.String("file", "-", "Text to scan; - reads stdin")
	minLen := fs.Int("min-json", defaults.MinJSONLength, "Shortest JSON candidate, in characters")
	scanner := fs.String("scanner", defaults.ScannerLazy, "JSON scanner: lazy or depth")
	asJSON := fs.Bool("json", false, "Print every candidate, valid or not, as JSON")
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s extract [-file <path>] [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(c.stderr, "Print each valid JSON payload in the input on its own line.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return c.parseError(err)
	}
	if fs.NArg() > 0 && *file == "-" {
		*file = fs.Arg(0)
	}

	x := traffic.Extractor{MinLength: *minLen, Scanner: traffic.ScannerMode(*scanner)}
	if err := (traffic.Config{MinJSONLength: x.MinLength, Scanner: x.Scanner}).Validate(); err != nil {
		return c.exitWithError(fmt.Errorf("%w: %w", config.ErrInvalidConfig, err))
	}

	var (
		text string
		err  error
	)
	if *file == "" || *file == "-" {
		text, err = iohelper.ReadText(c.stdin, defaults.MaxLogSize)
	} else {
		text, err = iohelper.ReadFile(*file, defaults.MaxLogSize)
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c.exitWithError(fmt.Errorf("%w: %s", sieve.ErrInputNotFound, *file))
	case err != nil:
		return c.exitWithError(fmt.Errorf("%w: %w", sieve.ErrInputUnreadable, err))
	}

	cands := x.Extract(text)
	if *asJSON {
		data, err := jsonutil.MarshalIndent(nonNilCandidates(cands), "", "  ")
		if err != nil {
			return c.exitWithError(fmt.Errorf("%w: %v", sieve.ErrInternal, err))
		}
		fmt.Fprintln(c.stdout, string(data))
		return defaults.ExitSuccess
	}

	valid := traffic.ValidTexts(cands)
	for _, v := range valid {
		fmt.Fprintln(c.stdout, strings.TrimSpace(v))
	}
	if len(valid) == 0 {
		return defaults.ExitNoMatches
	}
	return defaults.ExitSuccess
}

func nonNilCandidates(c []traffic.Candidate) []traffic.Candidate {
	if c == nil {
		return []traffic.Candidate{}
	}
	return c
}

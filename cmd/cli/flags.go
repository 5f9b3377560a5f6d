package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/ui"
)

// runFlags are the flags shared by filter and inspect. Only flags set on the
// command line override the config file and environment.
type runFlags struct {
	fs *flag.FlagSet

	ConfigPath  string
	Log         string
	Keyword     string
	ContentType string
	MinJSON     int
	JSONOnly    bool
	OutDir      string
	Mode        string
	Scanner     string
	Dedupe      bool
	Separator   string
	Methods     string

	Verbose bool
	Silent  bool
	NoColor bool
}

func newRunFlags(name string, c *cli) *runFlags {
	f := &runFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(c.stderr)
	fs := f.fs

	fs.StringVar(&f.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&f.Log, "log", "", "Capture log to filter (env "+config.EnvLog+")")
	fs.StringVar(&f.Keyword, "keyword", "", "Case-insensitive URL keyword a request must contain; empty matches all")
	fs.StringVar(&f.ContentType, "content-type", defaults.ContentTypeWhitelist, "Substring a response must contain; empty disables the check")
	fs.IntVar(&f.MinJSON, "min-json", defaults.MinJSONLength, "Shortest JSON candidate, in characters")
	fs.BoolVar(&f.JSONOnly, "json-only", false, "Export only the JSON bodies instead of full request/response text")
	fs.StringVar(&f.OutDir, "out-dir", defaults.ExportDir, "Existing directory that receives the output file")
	fs.StringVar(&f.Mode, "mode", defaults.MatchModePaired, "Match mode: paired or entry")
	fs.StringVar(&f.Scanner, "scanner", defaults.ScannerLazy, "JSON scanner: lazy or depth")
	fs.BoolVar(&f.Dedupe, "dedupe", false, "Drop repeated identical request/response pairs")
	fs.StringVar(&f.Separator, "separator", "", "Entry separator line (default: 54 '=')")
	fs.StringVar(&f.Methods, "methods", "", "Comma-separated request method tokens (default: "+strings.Join(defaults.HTTPMethods, ",")+")")

	fs.BoolVar(&f.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&f.Silent, "silent", false, "Print only the output path and errors")
	fs.BoolVar(&f.NoColor, "no-color", false, "Disable colored output")
	return f
}

// parse parses args. It returns flag.ErrHelp for -h.
func (f *runFlags) parse(args []string) error {
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if f.fs.NArg() > 0 && f.Log == "" {
		// Allow the log path as a positional argument.
		f.Log = f.fs.Arg(0)
	}
	ui.SetSilent(f.Silent)
	ui.SetNoColor(f.NoColor)
	return nil
}

// resolve layers defaults, the config file, the environment and explicitly
// set flags, in that order.
func (f *runFlags) resolve(getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(f.ConfigPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}

	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["log"] || f.Log != "" {
		cfg.Log = f.Log
	}
	if set["keyword"] {
		cfg.URLKeyword = f.Keyword
	}
	if set["content-type"] {
		cfg.ContentType = f.ContentType
	}
	if set["min-json"] {
		cfg.MinJSONLength = f.MinJSON
	}
	if set["json-only"] {
		cfg.PreserveContext = !f.JSONOnly
	}
	if set["out-dir"] {
		cfg.ExportDir = f.OutDir
	}
	if set["mode"] {
		cfg.MatchMode = f.Mode
	}
	if set["scanner"] {
		cfg.Scanner = f.Scanner
	}
	if set["dedupe"] {
		cfg.Dedupe = f.Dedupe
	}
	if set["separator"] {
		cfg.Separator = f.Separator
	}
	if set["methods"] {
		cfg.Methods = splitList(f.Methods)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newLogger returns the process logger: text on stderr, debug with -v,
// errors only with -silent.
func newLogger(c *cli, verbose, silent bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case silent:
		level = slog.LevelError
	}
	w := c.stderr
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// parseError converts a flag parsing error to an exit code.
func (c *cli) parseError(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return defaults.ExitSuccess
	}
	fmt.Fprintln(c.stderr)
	return defaults.ExitUserError
}

// Command trafficsieve filters proxy capture logs down to the API traffic of
// one host or path.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/ui"
	"github.com/trafficsieve/trafficsieve/templates"
)

// cli carries the process environment so commands can be tested in-process.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	getenv func(string) string
}

func main() {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr, stdin: os.Stdin, getenv: os.Getenv}
	os.Exit(c.run(os.Args[1:]))
}

// run dispatches to a subcommand and returns the process exit code.
func (c *cli) run(args []string) int {
	ui.SetOutput(c.stderr)

	if len(args) == 0 {
		c.printUsage()
		return defaults.ExitUserError
	}

	switch args[0] {
	case "filter", "run":
		return c.runFilter(args[1:])
	case "inspect", "dry-run":
		return c.runInspect(args[1:])
	case "extract":
		return c.runExtract(args[1:])
	case "history":
		return c.runHistory(args[1:])
	case "mcp":
		return c.runMCP(args[1:])
	case "config":
		// Annotated example, ready to redirect into a file.
		c.stdout.Write(templates.ExampleConfig())
		return defaults.ExitSuccess
	case "-h", "--help", "help":
		c.printUsage()
		return defaults.ExitSuccess
	case "-version", "--version", "version":
		fmt.Fprintf(c.stdout, "%s %s (commit %s, built %s)\n", defaults.ToolName, ui.Version, ui.Commit, ui.BuildDate)
		return defaults.ExitSuccess
	default:
		if strings.HasPrefix(args[0], "-") {
			// Bare flags run the default filter command.
			return c.runFilter(args)
		}
		return c.exitWithUsage(fmt.Sprintf("unknown command %q", args[0]), defaults.ToolName+" help")
	}
}

func (c *cli) printUsage() {
	w := c.stdout
	fmt.Fprintln(w, ui.SectionStyle.Render(defaults.ToolNameDisplay+" "+ui.Version))
	fmt.Fprintln(w, "Isolate the API traffic of one host or path from a proxy capture log.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SectionStyle.Render("COMMANDS"))
	for _, cmd := range [][2]string{
		{"filter  ", "Filter a capture log and write the matching entries to a new file (default)"},
		{"inspect ", "Dry run: show what filter would export, write nothing"},
		{"extract ", "Find, validate and repair JSON in a file or stdin"},
		{"history ", "List or prune the records of past runs"},
		{"mcp     ", "Serve the filter as MCP tools (stdio or HTTP)"},
		{"config  ", "Print an annotated example configuration file"},
		{"version ", "Print version information"},
	} {
		fmt.Fprintf(w, "  %s  %s\n", ui.StatValueStyle.Render(cmd[0]), cmd[1])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SectionStyle.Render("EXAMPLES"))
	for _, ex := range []string{
		defaults.ToolName + " -log burp.log -keyword api.example.com",
		defaults.ToolName + " inspect -log burp.log -keyword /v2/orders",
		defaults.ToolName + " filter -config sieve.yaml -json-only -out-dir exports",
		"cat body.txt | " + defaults.ToolName + " extract -scanner depth",
		defaults.ToolName + " mcp -http :8080",
	} {
		fmt.Fprintf(w, "  %s\n", ui.ConfigValueStyle.Render(ex))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run '%s <command> -h' for command flags.\n", defaults.ToolName)
}

package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
)

// Build information, overridable via ldflags:
// go build -ldflags "-X github.com/trafficsieve/trafficsieve/pkg/ui.Commit=abc123"
var (
	Version   = defaults.Version
	BuildDate = "unknown"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	out         io.Writer = os.Stderr
	uiMu        sync.RWMutex
)

func init() {
	if termenv.EnvNoColor() {
		SetNoColor(true)
	}
}

// SetOutput redirects UI output. Nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	uiMu.Lock()
	defer uiMu.Unlock()
	out = w
}

func writer() io.Writer {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return out
}

// SetSilent suppresses everything but errors.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

const bannerArt = `
  __              _____ _             _
 / /_ _________ _/ __(_)_________ ___(_)__ _  _____
/ __/ '_/ _  / _/ __/ / __/ ___/(_-</ / -_) |/ / -_)
\__/_/  \_,_/_//_/ /_/\__/\___//___/_/\__/|___/\__/
`

const divider = "________________________________________________"

// PrintBanner prints the application banner with version info.
func PrintBanner() {
	if IsSilent() {
		return
	}
	w := writer()
	for line := range strings.Lines(bannerArt) {
		if line = strings.TrimRight(line, "\n"); line != "" {
			fmt.Fprintln(w, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(w, "%24sv%s\n\n", "", VersionStyle.Render(Version))
}

// PrintDivider prints a stylized divider.
func PrintDivider() {
	if IsSilent() {
		return
	}
	fmt.Fprintln(writer(), DividerStyle.Render(divider))
}

// PrintSection prints a section header.
func PrintSection(title string) {
	if IsSilent() {
		return
	}
	w := writer()
	fmt.Fprintln(w)
	fmt.Fprintln(w, SectionStyle.Render("> "+title))
	PrintDivider()
}

// PrintConfigLine prints one aligned "label: value" line.
func PrintConfigLine(key, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(writer(), " :: %s : %s\n",
		ConfigLabelStyle.Render(key),
		ConfigValueStyle.Render(value),
	)
}

// PrintHelp prints contextual help.
func PrintHelp(text string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(writer(), HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(writer(), PassStyle.Render("  "+Icon("✔", "[+]")+" "+message))
}

// PrintError prints an error message. Errors are shown even when silent.
func PrintError(message string) {
	fmt.Fprintln(writer(), FailStyle.Render("  "+Icon("✖", "[X]")+" "+message))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(writer(), WarnStyle.Render("  [!] "+message))
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(writer(), "  %s %s\n", BulletStyle.Render("*"), message)
}

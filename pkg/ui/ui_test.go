package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetNoColor(true)
	t.Cleanup(func() {
		SetOutput(nil)
		SetSilent(false)
	})
	return &buf
}

func TestPrintHelpers(t *testing.T) {
	buf := capture(t)

	PrintSection("Filter")
	PrintConfigLine("Keyword", "dipp")
	PrintInfo("reading log")
	PrintWarning("no matches")
	PrintSuccess("done")

	got := buf.String()
	for _, want := range []string{"> Filter", "Keyword", "dipp", "reading log", "[!] no matches", "done"} {
		assert.Contains(t, got, want)
	}
}

func TestSilentKeepsErrors(t *testing.T) {
	buf := capture(t)
	SetSilent(true)

	PrintBanner()
	PrintInfo("hidden")
	PrintSuccess("hidden")
	PrintError("boom")

	got := buf.String()
	assert.NotContains(t, got, "hidden")
	assert.Contains(t, got, "boom")
}

func TestBannerShowsVersion(t *testing.T) {
	buf := capture(t)
	PrintBanner()
	if !strings.Contains(buf.String(), "v"+Version) {
		t.Errorf("banner missing version %q:\n%s", Version, buf.String())
	}
}

func TestCard(t *testing.T) {
	card := NewCard("Run").
		Add("Log", "burp.log").
		Add("Skipped", "").
		AddEmphasis("Matched", 3)

	assert.Len(t, card.Items, 2)
	out := card.Render()
	assert.Contains(t, out, "Run")
	assert.Contains(t, out, "burp.log")
	assert.Contains(t, out, "3")
	assert.NotContains(t, out, "Skipped")
}

func TestStderrNotTerminalInTests(t *testing.T) {
	if StderrIsTerminal() {
		t.Skip("stderr is a terminal")
	}
	assert.False(t, UnicodeTerminal())
	assert.Equal(t, "[+]", Icon("✔", "[+]"))
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/history"
	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
	"github.com/trafficsieve/trafficsieve/pkg/sieve"
	"github.com/trafficsieve/trafficsieve/pkg/testutil"
)

const (
	target = "GET /api/dipp.sf-express.com/info HTTP/1.1\nHost: dipp.sf-express.com"
	reply  = "HTTP/1.1 200 OK\nContent-Type: application/json\n\n{\"status\":\"ok\"}"
	other  = "GET /static/app.js HTTP/1.1\nHost: cdn.example.com"
)

type testCLI struct {
	*cli
	out, errOut *bytes.Buffer
}

func newTestCLI(env map[string]string, stdin string) *testCLI {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &testCLI{
		cli: &cli{
			stdout: out,
			stderr: errOut,
			stdin:  strings.NewReader(stdin),
			getenv: func(k string) string { return env[k] },
		},
		out:    out,
		errOut: errOut,
	}
}

func TestRun_Usage(t *testing.T) {
	c := newTestCLI(nil, "")
	assert.Equal(t, defaults.ExitUserError, c.run(nil))
	assert.Contains(t, c.out.String(), "COMMANDS")

	c = newTestCLI(nil, "")
	assert.Equal(t, defaults.ExitSuccess, c.run([]string{"help"}))
}

func TestRun_Version(t *testing.T) {
	c := newTestCLI(nil, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"version"}))
	assert.True(t, strings.HasPrefix(c.out.String(), defaults.ToolName+" "+defaults.Version))
}

func TestRun_Config(t *testing.T) {
	c := newTestCLI(nil, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"config"}))
	cfg, err := config.Parse(c.out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, defaults.ScannerLazy, cfg.Scanner)
}

func TestRun_UnknownCommand(t *testing.T) {
	c := newTestCLI(nil, "")
	assert.Equal(t, defaults.ExitUserError, c.run([]string{"frobnicate"}))
	assert.Contains(t, c.errOut.String(), "frobnicate")
}

func TestFilter_EndToEnd(t *testing.T) {
	log := testutil.WriteCapture(t, target, reply, other)
	outDir := t.TempDir()

	c := newTestCLI(nil, "")
	code := c.run([]string{"filter", "-silent", "-log", log, "-keyword", "dipp.sf-express.com", "-out-dir", outDir})
	require.Equal(t, defaults.ExitSuccess, code, c.errOut.String())

	path := strings.TrimSpace(c.out.String())
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "burp_context_dipp_sf_express_com_"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GET /api/dipp.sf-express.com/info")
	assert.Contains(t, string(data), `{"status":"ok"}`)
	assert.NotContains(t, string(data), "app.js")

	orig, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Equal(t, testutil.Capture(target, reply, other), string(orig), "input is never modified")
}

func TestFilter_BareFlagsRunFilter(t *testing.T) {
	log := testutil.WriteCapture(t, target, reply)
	c := newTestCLI(nil, "")
	code := c.run([]string{"-silent", "-log", log, "-json-only", "-out-dir", t.TempDir()})
	require.Equal(t, defaults.ExitSuccess, code, c.errOut.String())
	assert.Contains(t, filepath.Base(strings.TrimSpace(c.out.String())), "burp_json_all_")
}

func TestFilter_NoMatches(t *testing.T) {
	log := testutil.WriteCapture(t, other, reply)

	c := newTestCLI(nil, "")
	code := c.run([]string{"filter", "-silent", "-log", log, "-keyword", "nomatch.example", "-out-dir", t.TempDir()})
	assert.Equal(t, defaults.ExitSuccess, code, "an empty export is still a successful run")

	c = newTestCLI(nil, "")
	code = c.run([]string{"filter", "-silent", "-strict", "-log", log, "-keyword", "nomatch.example", "-out-dir", t.TempDir()})
	assert.Equal(t, defaults.ExitNoMatches, code)
}

func TestFilter_ExitCodes(t *testing.T) {
	empty := testutil.WriteCapture(t, "  \n\n ")
	valid := testutil.WriteCapture(t, target, reply)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no log", []string{"-silent", "-out-dir", t.TempDir()}, defaults.ExitUserError},
		{"missing log", []string{"-silent", "-log", filepath.Join(t.TempDir(), "absent.log"), "-out-dir", t.TempDir()}, defaults.ExitInputError},
		{"empty log", []string{"-silent", "-log", empty, "-out-dir", t.TempDir()}, defaults.ExitInputError},
		{"bad mode", []string{"-silent", "-log", valid, "-mode", "sideways", "-out-dir", t.TempDir()}, defaults.ExitUserError},
		{"bad flag", []string{"-no-such-flag"}, defaults.ExitUserError},
		{"missing out dir", []string{"-silent", "-log", valid, "-out-dir", filepath.Join(t.TempDir(), "nope")}, defaults.ExitInternalError},
		{"help", []string{"-h"}, defaults.ExitSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(nil, "")
			got := c.run(append([]string{"filter"}, tt.args...))
			assert.Equal(t, tt.want, got, c.errOut.String())
		})
	}
}

func TestFilter_EnvAndConfigFile(t *testing.T) {
	log := testutil.WriteCapture(t, target, reply)
	outDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "sieve.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("url_keyword: cdn.example.com\npreserve_context: false\n"), 0o644))

	env := map[string]string{
		config.EnvLog:       log,
		config.EnvExportDir: outDir,
	}
	c := newTestCLI(env, "")
	// The flag beats the config file keyword.
	code := c.run([]string{"filter", "-silent", "-config", cfgPath, "-keyword", "dipp.sf-express.com"})
	require.Equal(t, defaults.ExitSuccess, code, c.errOut.String())

	path := strings.TrimSpace(c.out.String())
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "burp_json_dipp_sf_express_com_"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, strings.TrimSpace(string(data)))
}

func TestFilter_EventsAndHistory(t *testing.T) {
	log := testutil.WriteCapture(t, target, reply)
	eventsPath := filepath.Join(t.TempDir(), "events.jsonl")
	reportPath := filepath.Join(t.TempDir(), "report.md")
	histDir := t.TempDir()

	c := newTestCLI(nil, "")
	code := c.run([]string{
		"filter", "-silent", "-log", log, "-keyword", "dipp", "-out-dir", t.TempDir(),
		"-events", eventsPath, "-report", reportPath, "-report-template", "markdown",
		"-history-dir", histDir, "-tags", "nightly, ci",
	})
	require.Equal(t, defaults.ExitSuccess, code, c.errOut.String())

	data, err := os.ReadFile(eventsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.GreaterOrEqual(t, len(lines), 3, "start, match, summary and complete events")
	for _, line := range lines {
		assert.True(t, jsonutil.Valid([]byte(line)), line)
	}

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.NotEmpty(t, report)

	store, err := history.NewStore(histDir)
	require.NoError(t, err)
	recs := store.List(history.Filter{})
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Matched)
	assert.Equal(t, []string{"nightly", "ci"}, recs[0].Tags)

	c = newTestCLI(nil, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"history", "-dir", histDir, "-json"}))
	var listed []history.RunRecord
	require.NoError(t, jsonutil.Unmarshal(c.out.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "dipp", listed[0].URLKeyword)
}

func TestInspect_JSON(t *testing.T) {
	log := testutil.WriteCapture(t, target, reply, other)
	outDir := t.TempDir()

	c := newTestCLI(nil, "")
	code := c.run([]string{"inspect", "-json", "-log", log, "-keyword", "dipp", "-out-dir", outDir})
	require.Equal(t, defaults.ExitSuccess, code, c.errOut.String())

	var in sieve.Inspection
	require.NoError(t, jsonutil.Unmarshal(c.out.Bytes(), &in))
	assert.Equal(t, 1, in.Count)
	assert.Equal(t, 3, in.Stats.Entries)
	require.Len(t, in.Pairs, 1)
	assert.Equal(t, "HTTP/1.1 200 OK", in.Pairs[0].StatusLine)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "inspect writes nothing")
}

func TestInspect_Text(t *testing.T) {
	log := testutil.WriteCapture(t, target, reply)
	c := newTestCLI(nil, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"dry-run", "-no-color", log}))
	assert.Contains(t, c.out.String(), "1 pair(s) would be exported")
	assert.Contains(t, c.out.String(), "GET /api/dipp.sf-express.com/info HTTP/1.1")
}

func TestExtract_Stdin(t *testing.T) {
	body := "HTTP/1.1 200 OK\n\n" + `{"user":{"id":7},"tags":["a","b"]}`

	c := newTestCLI(nil, body)
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"extract"}))
	lines := strings.Split(strings.TrimSpace(c.out.String()), "\n")
	assert.Equal(t, `{"user":{"id":7}}`, lines[0], "truncated span is repaired")
	assert.Equal(t, `["a","b"]`, lines[len(lines)-1])
}

func TestExtract_JSONAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(path, []byte(`prefix {"status":"ok"} suffix`), 0o644))

	c := newTestCLI(nil, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"extract", "-json", "-scanner", "depth", "-file", path}))

	var cands []struct {
		Span  string `json:"span"`
		Valid bool   `json:"valid"`
	}
	require.NoError(t, jsonutil.Unmarshal(c.out.Bytes(), &cands))
	require.Len(t, cands, 1)
	assert.Equal(t, `{"status":"ok"}`, cands[0].Span)
	assert.True(t, cands[0].Valid)
}

func TestExtract_Errors(t *testing.T) {
	c := newTestCLI(nil, "no brackets here")
	assert.Equal(t, defaults.ExitNoMatches, c.run([]string{"extract"}))

	c = newTestCLI(nil, "")
	assert.Equal(t, defaults.ExitUserError, c.run([]string{"extract", "-scanner", "greedy"}))

	c = newTestCLI(nil, "")
	assert.Equal(t, defaults.ExitInputError, c.run([]string{"extract", "-file", filepath.Join(t.TempDir(), "absent")}))
}

func TestHistory_EmptyAndPrune(t *testing.T) {
	dir := t.TempDir()
	c := newTestCLI(map[string]string{config.EnvHistoryDir: dir}, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"history"}))
	assert.Empty(t, c.out.String())

	c = newTestCLI(nil, "")
	require.Equal(t, defaults.ExitSuccess, c.run([]string{"history", "-dir", dir, "-prune", "1h"}))
	assert.Contains(t, c.out.String(), "pruned 0 run(s)")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, defaults.ExitSuccess},
		{sieve.ErrInputNotFound, defaults.ExitInputError},
		{sieve.ErrInputEmpty, defaults.ExitInputError},
		{sieve.ErrInputUnreadable, defaults.ExitInputError},
		{sieve.ErrWriteFailure, defaults.ExitInternalError},
		{sieve.ErrInternal, defaults.ExitInternalError},
		{config.ErrInvalidConfig, defaults.ExitUserError},
		{config.ErrMissingRequired, defaults.ExitUserError},
		{errors.New("something else"), defaults.ExitInternalError},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"GET", "POST"}, splitList(" GET, ,POST "))
	assert.Nil(t, splitList(""))
}

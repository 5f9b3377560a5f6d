package sieve

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/events"
)

const (
	sep     = defaults.Separator
	request = "GET /api/dipp.sf-express.com/info HTTP/1.1"
	reply   = "HTTP/1.1 200 OK\nContent-Type: application/json\n\n{\"status\":\"ok\"}"
	stray   = "GET /other HTTP/1.1"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

type eventLog struct {
	got []events.Event
}

func (h *eventLog) OnEvent(_ context.Context, e events.Event) error {
	h.got = append(h.got, e)
	return nil
}

func (h *eventLog) EventTypes() []events.EventType { return nil }

func (h *eventLog) types() []events.EventType {
	out := make([]events.EventType, len(h.got))
	for i, e := range h.got {
		out[i] = e.EventType()
	}
	return out
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "burp.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newConfig(t *testing.T, log string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log = log
	cfg.URLKeyword = "dipp.sf-express.com"
	cfg.ExportDir = t.TempDir()
	return cfg
}

func runWithEvents(t *testing.T, cfg config.Config) (*Report, *eventLog, error) {
	t.Helper()
	rec := &eventLog{}
	d := dispatcher.New(nil)
	d.RegisterHook(rec)
	rep, err := Run(context.Background(), cfg, Options{Dispatcher: d, RunID: "run-1", Now: func() time.Time { return fixedNow }})
	return rep, rec, err
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply+sep+stray))

	rep, rec, err := runWithEvents(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, 1, rep.Count)
	assert.True(t, filepath.IsAbs(rep.OutputPath))
	assert.Equal(t, "burp_context_dipp_sf_express_com_20240309_140507.log", filepath.Base(rep.OutputPath))

	data, err := os.ReadFile(rep.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, request+sep+reply, string(data))

	assert.Contains(t, rep.Summary, rep.OutputPath)
	assert.Contains(t, rep.Summary, "Matched 1 pair ")
	assert.Contains(t, rep.Summary, `keyword "dipp.sf-express.com"`)

	assert.Equal(t, []events.EventType{
		events.EventTypeStart,
		events.EventTypeMatch,
		events.EventTypeSummary,
		events.EventTypeComplete,
	}, rec.types())

	match := rec.got[1].(*events.MatchEvent)
	assert.Equal(t, request, match.RequestLine)
	assert.Equal(t, "HTTP/1.1 200 OK", match.StatusLine)
	assert.Equal(t, 1, match.Valid)

	done := rec.got[3].(*events.CompleteEvent)
	assert.True(t, done.Success)
	assert.Equal(t, "run-1", done.RunID())
}

func TestRun_NoMatchesStillWrites(t *testing.T) {
	cfg := newConfig(t, writeLog(t, stray+sep+reply))
	cfg.URLKeyword = ""
	cfg.ContentType = "text/html"

	rep, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	assert.Zero(t, rep.Count)
	assert.Contains(t, filepath.Base(rep.OutputPath), "_all_")
	info, err := os.Stat(rep.OutputPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Contains(t, rep.Summary, `keyword "(any)"`)
}

func TestRun_JSONOnly(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply))
	cfg.PreserveContext = false

	rep, err := Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	assert.Equal(t, "json", rep.Mode)
	assert.True(t, strings.HasPrefix(filepath.Base(rep.OutputPath), "burp_json_"))
	data, err := os.ReadFile(rep.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, string(data))
}

func TestRun_InputErrors(t *testing.T) {
	tests := []struct {
		name  string
		log   func(t *testing.T) string
		want  error
		etype string
	}{
		{
			name:  "missing",
			log:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.log") },
			want:  ErrInputNotFound,
			etype: "input_not_found",
		},
		{
			name:  "empty",
			log:   func(t *testing.T) string { return writeLog(t, "  \n\t\n") },
			want:  ErrInputEmpty,
			etype: "input_empty",
		},
		{
			name:  "directory",
			log:   func(t *testing.T) string { return t.TempDir() },
			want:  ErrInputUnreadable,
			etype: "input_unreadable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, tt.log(t))

			rep, rec, err := runWithEvents(t, cfg)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, rep)
			assert.Equal(t, tt.etype, ErrorType(err))

			entries, readErr := os.ReadDir(cfg.ExportDir)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "no output on input failure")

			assert.Equal(t, []events.EventType{events.EventTypeError, events.EventTypeComplete}, rec.types())
			assert.Equal(t, tt.etype, rec.got[0].(*events.ErrorEvent).ErrorType)
			assert.False(t, rec.got[1].(*events.CompleteEvent).Success)
		})
	}
}

func TestRun_WriteFailure(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply))
	cfg.ExportDir = filepath.Join(t.TempDir(), "does", "not", "exist")

	_, err := Run(context.Background(), cfg, Options{})
	require.ErrorIs(t, err, ErrWriteFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "write_failure", ErrorType(err))
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply))
	cfg.MinJSONLength = -1
	_, err := Run(context.Background(), cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = newConfig(t, "")
	_, err = Run(context.Background(), cfg, Options{})
	assert.ErrorIs(t, err, config.ErrMissingRequired)
	assert.Equal(t, "invalid_config", ErrorType(err))
}

func TestRun_CustomSummary(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply))
	cfg.SummaryTemplate = `{{ .Count }} -> {{ base .OutputPath }}`

	rep, err := Run(context.Background(), cfg, Options{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	assert.Equal(t, "1 -> burp_context_dipp_sf_express_com_20240309_140507.log", rep.Summary)
}

func TestRun_BadSummaryTemplate(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply))
	cfg.SummaryTemplate = `{{ .Count `

	_, err := Run(context.Background(), cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRun_CollisionSuffix(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply))
	opts := Options{Now: func() time.Time { return fixedNow }}

	first, err := Run(context.Background(), cfg, opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), cfg, opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputPath, second.OutputPath)
	assert.True(t, strings.HasSuffix(second.OutputPath, "_1.log"))
}

func TestInspect(t *testing.T) {
	cfg := newConfig(t, writeLog(t, request+sep+reply+sep+stray))

	in, err := Inspect(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, in.Count)
	assert.Equal(t, 3, in.Stats.Entries)
	require.Len(t, in.Pairs, 1)
	assert.Equal(t, `{"status":"ok"}`, in.Pairs[0].Preview)

	entries, err := os.ReadDir(cfg.ExportDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "inspect never writes")
}

func TestInspect_MissingLog(t *testing.T) {
	cfg := newConfig(t, filepath.Join(t.TempDir(), "gone.log"))
	_, err := Inspect(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestErrorType(t *testing.T) {
	if got := ErrorType(nil); got != "" {
		t.Errorf("ErrorType(nil) = %q, want empty", got)
	}
	if got := ErrorType(ErrInternal); got != "internal" {
		t.Errorf("ErrorType(ErrInternal) = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.True(t, strings.HasPrefix(Describe(ErrInputNotFound), "raw log file not found"))
	assert.True(t, strings.HasPrefix(Describe(config.ErrInvalidConfig), "invalid configuration"))
}

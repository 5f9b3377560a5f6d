package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/traffic"
	"github.com/trafficsieve/trafficsieve/templates"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "Content-Type: application/json", cfg.ContentType)
	assert.Equal(t, 5, cfg.MinJSONLength)
	assert.True(t, cfg.PreserveContext)
	assert.Equal(t, ".", cfg.ExportDir)
	assert.Equal(t, defaults.Separator, cfg.Separator)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log: /tmp/burp.log
url_keyword: dipp.sf-express.com
preserve_context: false
scanner: depth
methods: [GET, POST]
`))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/burp.log", cfg.Log)
	assert.Equal(t, "dipp.sf-express.com", cfg.URLKeyword)
	assert.False(t, cfg.PreserveContext)
	assert.Equal(t, "depth", cfg.Scanner)
	assert.Equal(t, []string{"GET", "POST"}, cfg.Methods)
	assert.Equal(t, 5, cfg.MinJSONLength, "absent keys keep defaults")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("url_keywrod: typo\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParse_ExampleConfig(t *testing.T) {
	cfg, err := Parse(templates.ExampleConfig())
	require.NoError(t, err)
	assert.Equal(t, "burp.log", cfg.Log)
	assert.Equal(t, "dipp.sf-express.com", cfg.URLKeyword)
	assert.Equal(t, defaults.HTTPMethods, cfg.Methods)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sieve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_json_length: 12\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MinJSONLength)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLog:     "capture.log",
		EnvKeyword: "/api/v2",
		EnvMinJSON: "8",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "capture.log", cfg.Log)
	assert.Equal(t, "/api/v2", cfg.URLKeyword)
	assert.Equal(t, 8, cfg.MinJSONLength)
	assert.Equal(t, ".", cfg.ExportDir, "unset variables leave fields alone")

	env[EnvMinJSON] = "eight"
	assert.ErrorIs(t, cfg.ApplyEnv(func(k string) string { return env[k] }), ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)

	cfg.Log = "burp.log"
	assert.NoError(t, cfg.Validate())

	cfg.MatchMode = "fuzzy"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.MatchMode = defaults.MatchModeEntry
	cfg.MinJSONLength = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestFilter(t *testing.T) {
	cfg := Default()
	cfg.URLKeyword = "host"
	cfg.Dedupe = true

	fc := cfg.Filter()
	assert.Equal(t, "host", fc.URLKeyword)
	assert.Equal(t, traffic.MatchPaired, fc.MatchMode)
	assert.Equal(t, traffic.ScanLazy, fc.Scanner)
	assert.True(t, fc.Dedupe)
	assert.NoError(t, fc.Validate())
}

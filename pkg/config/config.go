// Package config loads trafficsieve run configuration.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// TRAFFICSIEVE_* environment variables, then command-line flags (applied by
// the caller). The resulting Config is immutable for the run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/traffic"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvLog         = "TRAFFICSIEVE_LOG"
	EnvKeyword     = "TRAFFICSIEVE_KEYWORD"
	EnvContentType = "TRAFFICSIEVE_CONTENT_TYPE"
	EnvExportDir   = "TRAFFICSIEVE_EXPORT_DIR"
	EnvMinJSON     = "TRAFFICSIEVE_MIN_JSON"
	EnvHistoryDir  = "TRAFFICSIEVE_HISTORY_DIR"
	EnvHTTPAddr    = "TRAFFICSIEVE_HTTP_ADDR"
)

// Config holds everything one run needs.
type Config struct {
	// Input
	Log string `yaml:"log"`

	// Filtering
	URLKeyword      string   `yaml:"url_keyword"`
	ContentType     string   `yaml:"content_type"`
	MinJSONLength   int      `yaml:"min_json_length"`
	PreserveContext bool     `yaml:"preserve_context"`
	Separator       string   `yaml:"separator"`
	Methods         []string `yaml:"methods"`
	MatchMode       string   `yaml:"match_mode"`
	Scanner         string   `yaml:"scanner"`
	Dedupe          bool     `yaml:"dedupe"`

	// Output
	ExportDir       string `yaml:"export_dir"`
	SummaryTemplate string `yaml:"summary_template"` // text/template source, empty = built-in
	EventsFile      string `yaml:"events_file"`      // JSONL event stream, empty = off

	// Observability
	MetricsAddr  string `yaml:"metrics_addr"`
	OTelEndpoint string `yaml:"otel_endpoint"`
	OTelInsecure bool   `yaml:"otel_insecure"`
	HistoryDir   string `yaml:"history_dir"` // empty = no history

	// MCP
	HTTPAddr string `yaml:"http_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ContentType:     defaults.ContentTypeWhitelist,
		MinJSONLength:   defaults.MinJSONLength,
		PreserveContext: defaults.PreserveContext,
		Separator:       defaults.Separator,
		Methods:         append([]string(nil), defaults.HTTPMethods...),
		MatchMode:       defaults.MatchModePaired,
		Scanner:         defaults.ScannerLazy,
		ExportDir:       defaults.ExportDir,
		HTTPAddr:        defaults.MCPAddr,
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default value; unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: config file %s not found", ErrInvalidConfig, path)
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TRAFFICSIEVE_* variables. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Log, EnvLog)
	set(&c.URLKeyword, EnvKeyword)
	set(&c.ContentType, EnvContentType)
	set(&c.ExportDir, EnvExportDir)
	set(&c.HistoryDir, EnvHistoryDir)
	set(&c.HTTPAddr, EnvHTTPAddr)

	if v := getenv(EnvMinJSON); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvMinJSON, v)
		}
		c.MinJSONLength = n
	}
	return nil
}

// Validate checks that c describes a runnable filter.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Log) == "" {
		return fmt.Errorf("%w: log path", ErrMissingRequired)
	}
	if c.ExportDir == "" {
		return fmt.Errorf("%w: export_dir", ErrMissingRequired)
	}
	if err := c.Filter().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Filter returns the engine configuration.
func (c Config) Filter() traffic.Config {
	return traffic.Config{
		URLKeyword:           c.URLKeyword,
		ContentTypeWhitelist: c.ContentType,
		MinJSONLength:        c.MinJSONLength,
		PreserveContext:      c.PreserveContext,
		Separator:            c.Separator,
		Methods:              c.Methods,
		MatchMode:            traffic.MatchMode(c.MatchMode),
		Scanner:              traffic.ScannerMode(c.Scanner),
		Dedupe:               c.Dedupe,
	}
}

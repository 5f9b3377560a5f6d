package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/history"
	"github.com/trafficsieve/trafficsieve/pkg/mcpserver"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/hooks"
)

// runMCP starts the MCP server.
// Supports two transport modes:
//   - -stdio (default): for IDE integrations
//   - -http <addr>:     streamable HTTP with /health and /metrics
func (c *cli) runMCP(args []string) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	stdio := fs.Bool("stdio", true, "Use stdio transport (default, for IDE integration)")
	httpAddr := fs.String("http", "", "HTTP address to listen on (e.g. :8080). Disables stdio.")
	configPath := fs.String("config", "", "YAML config file with the default filter settings")
	outDir := fs.String("out-dir", "", "Default output directory for filter_traffic_log")
	historyDir := fs.String("history-dir", "", "Record every tool run in this history directory")
	metrics := fs.Bool("metrics", true, "Serve Prometheus metrics on /metrics (HTTP transport only)")
	verbose := fs.Bool("v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s mcp [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(c.stderr, "Start an MCP server exposing the traffic filter as tools.\n\n")
		fmt.Fprintf(c.stderr, "Transports:\n")
		fmt.Fprintf(c.stderr, "  -stdio          Stdio transport for IDE integration (default)\n")
		fmt.Fprintf(c.stderr, "  -http <addr>    Streamable HTTP transport for remote/Docker\n\n")
		fmt.Fprintf(c.stderr, "Environment variables:\n")
		fmt.Fprintf(c.stderr, "  %-26s HTTP listen address (same as -http)\n", config.EnvHTTPAddr)
		fmt.Fprintf(c.stderr, "  %-26s Default output directory\n", config.EnvExportDir)
		fmt.Fprintf(c.stderr, "  %-26s History directory\n\n", config.EnvHistoryDir)
		fmt.Fprintf(c.stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return c.parseError(err)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return c.exitWithError(err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(c.getenv); err != nil {
		return c.exitWithError(err)
	}
	if *outDir != "" {
		cfg.ExportDir = *outDir
	}
	if *historyDir != "" {
		cfg.HistoryDir = *historyDir
	}
	if *httpAddr == "" {
		*httpAddr = c.getenv(config.EnvHTTPAddr)
	}

	// stdout carries the stdio protocol; keep logs on stderr.
	logger := newLogger(c, *verbose, false)

	d := dispatcher.New(logger)
	defer d.Close()
	d.RegisterHook(hooks.NewLoggerHook(logger))

	var metricsHandler http.Handler
	if *metrics && *httpAddr != "" {
		prom, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{Logger: logger})
		if err != nil {
			return c.exitWithError(fmt.Errorf("%w: metrics: %v", config.ErrInvalidConfig, err))
		}
		d.RegisterHook(prom)
		metricsHandler = prom.Handler()
	}
	if cfg.HistoryDir != "" {
		store, err := history.NewStore(cfg.HistoryDir)
		if err != nil {
			return c.exitWithError(fmt.Errorf("%w: history: %v", config.ErrInvalidConfig, err))
		}
		d.RegisterHook(hooks.NewHistoryHook(hooks.HistoryHookOptions{
			Store:  store,
			Tags:   []string{"mcp"},
			Logger: logger,
		}))
	}

	srv := mcpserver.New(&mcpserver.Config{
		Defaults:   cfg,
		Dispatcher: d,
		Metrics:    metricsHandler,
		Logger:     logger,
	})
	srv.MarkReady()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *httpAddr != "" {
		httpSrv := &http.Server{
			Addr:              *httpAddr,
			Handler:           srv.HTTPHandler(),
			ReadHeaderTimeout: defaults.ReadHeaderTimeout,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
			defer shutdownCancel()
			logger.Info("shutting down MCP server")
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown", "error", err)
			}
		}()

		logger.Info("MCP server listening", "addr", *httpAddr, "transport", "http", "metrics", metricsHandler != nil)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return c.exitWithError(fmt.Errorf("%w: %v", config.ErrInvalidConfig, err))
		}
		return defaults.ExitSuccess
	}

	if !*stdio {
		return c.exitWithUsage("no transport selected", defaults.ToolName+" mcp -stdio | -http <addr>")
	}
	if err := srv.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio transport", "error", err)
		return defaults.ExitInternalError
	}
	return defaults.ExitSuccess
}

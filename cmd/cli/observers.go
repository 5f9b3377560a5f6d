package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/trafficsieve/trafficsieve/pkg/config"
	"github.com/trafficsieve/trafficsieve/pkg/history"
	"github.com/trafficsieve/trafficsieve/pkg/output/dispatcher"
	"github.com/trafficsieve/trafficsieve/pkg/output/hooks"
	"github.com/trafficsieve/trafficsieve/pkg/output/writers"
)

// observerFlags select the event consumers of a filter run. Each overrides
// the matching config file field when set.
type observerFlags struct {
	Events         string
	Report         string
	ReportTemplate string
	MetricsAddr    string
	OTelEndpoint   string
	OTelInsecure   bool
	HistoryDir     string
	Tags           string
}

func (o *observerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Events, "events", "", "Write run events as JSONL to this file")
	fs.StringVar(&o.Report, "report", "", "Render a run report to this file")
	fs.StringVar(&o.ReportTemplate, "report-template", "text-summary", "Report template: a built-in name or a template file path")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")
	fs.StringVar(&o.OTelEndpoint, "otel-endpoint", "", "Export a trace of the run to this OTLP gRPC endpoint (e.g. localhost:4317)")
	fs.BoolVar(&o.OTelInsecure, "otel-insecure", false, "Disable TLS to the OTLP endpoint")
	fs.StringVar(&o.HistoryDir, "history-dir", "", "Record the run in this history directory (env "+config.EnvHistoryDir+")")
	fs.StringVar(&o.Tags, "tags", "", "Comma-separated labels stored with the history record")
}

// merge copies config file values into unset flags.
func (o *observerFlags) merge(cfg config.Config) {
	if o.Events == "" {
		o.Events = cfg.EventsFile
	}
	if o.MetricsAddr == "" {
		o.MetricsAddr = cfg.MetricsAddr
	}
	if o.OTelEndpoint == "" {
		o.OTelEndpoint = cfg.OTelEndpoint
		o.OTelInsecure = o.OTelInsecure || cfg.OTelInsecure
	}
	if o.HistoryDir == "" {
		o.HistoryDir = cfg.HistoryDir
	}
}

// observers owns the dispatcher of one CLI run.
type observers struct {
	dispatcher *dispatcher.Dispatcher
	prometheus *hooks.PrometheusHook
}

// buildObservers wires the logger hook plus every consumer selected in o.
// On error, consumers already opened are closed.
func buildObservers(o observerFlags, logger *slog.Logger) (obs *observers, err error) {
	d := dispatcher.New(logger)
	obs = &observers{dispatcher: d}
	defer func() {
		if err != nil {
			_ = d.Close()
			obs = nil
		}
	}()

	d.RegisterHook(hooks.NewLoggerHook(logger))

	if o.Events != "" {
		f, err := os.Create(o.Events)
		if err != nil {
			return nil, fmt.Errorf("%w: events file: %v", config.ErrInvalidConfig, err)
		}
		d.RegisterWriter(writers.NewJSONLWriter(f, writers.JSONLOptions{}))
	}

	if o.Report != "" {
		tc := writers.TemplateConfig{TemplatePath: o.ReportTemplate}
		if slices.Contains(writers.BuiltInTemplates(), o.ReportTemplate) {
			tc = writers.TemplateConfig{BuiltIn: o.ReportTemplate}
		}
		f, err := os.Create(o.Report)
		if err != nil {
			return nil, fmt.Errorf("%w: report file: %v", config.ErrInvalidConfig, err)
		}
		tw, err := writers.NewTemplateWriter(f, tc)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		d.RegisterWriter(tw)
	}

	if o.MetricsAddr != "" {
		prom, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{Addr: o.MetricsAddr, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("%w: metrics: %v", config.ErrInvalidConfig, err)
		}
		d.RegisterHook(prom)
		obs.prometheus = prom
	}

	if o.OTelEndpoint != "" {
		otel, err := hooks.NewOTelHook(hooks.OTelOptions{Endpoint: o.OTelEndpoint, Insecure: o.OTelInsecure})
		if err != nil {
			return nil, fmt.Errorf("%w: otel: %v", config.ErrInvalidConfig, err)
		}
		d.RegisterHook(otel)
	}

	if o.HistoryDir != "" {
		store, err := history.NewStore(o.HistoryDir)
		if err != nil {
			return nil, fmt.Errorf("%w: history: %v", config.ErrInvalidConfig, err)
		}
		d.RegisterHook(hooks.NewHistoryHook(hooks.HistoryHookOptions{
			Store:  store,
			Tags:   splitList(o.Tags),
			Logger: logger,
		}))
	}
	return obs, nil
}

// close flushes writers and stops servers and exporters.
func (o *observers) close() error {
	if o == nil {
		return nil
	}
	return errors.Join(o.dispatcher.Flush(), o.dispatcher.Close())
}

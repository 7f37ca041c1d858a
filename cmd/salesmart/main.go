// Command salesmart turns a raw retail transaction CSV into an analytical
// data mart: customers, orders, products and summary metrics, plus an
// integrity audit and a rejection report.
//
// Usage:
//
//	salesmart -config configs/salesmart.yaml
//	salesmart -config configs/salesmart.yaml -validate
//
// Exit status is 1 when the configuration is invalid, a stage or sink fails,
// or (with audit.fail_on_error) any error-severity audit check fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"salesmart/internal/audit"
	"salesmart/internal/config"
	"salesmart/internal/datasource"
	"salesmart/internal/datasource/httpds"
	"salesmart/internal/ingest"
	"salesmart/internal/logging"
	"salesmart/internal/metrics"
	"salesmart/internal/metrics/datadog"
	"salesmart/internal/metrics/prompush"
	"salesmart/internal/pipeline"
	"salesmart/internal/sink"
	sinkdb "salesmart/internal/sink/db"
	sinkfile "salesmart/internal/sink/file"

	// register all backends with the storage factory.
	_ "salesmart/internal/storage/all"
)

// ConfigEnv names the config file when -config is not given.
const ConfigEnv = "SALESMART_CONFIG"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("salesmart", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath        = fs.String("config", os.Getenv(ConfigEnv), "config file (YAML or JSON)")
		envFile        = fs.String("env-file", "", "dotenv file to load before reading the environment")
		validateOnly   = fs.Bool("validate", false, "validate the configuration and exit")
		verbose        = fs.Bool("v", false, "debug logging")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides metrics.backend)")
		pushgatewayURL = fs.String("pushgateway-url", "", "Pushgateway base URL (overrides metrics.pushgateway_url)")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(config.LoadOptions{Path: *cfgPath, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if *metricsBackend != "" {
		cfg.Metrics.Backend = *metricsBackend
	}
	if *pushgatewayURL != "" {
		cfg.Metrics.PushgatewayURL = *pushgatewayURL
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	issues := config.ValidateConfig(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", *cfgPath)
		return 1
	}
	if *validateOnly {
		fmt.Fprintf(stderr, "configuration is valid: %s\n", *cfgPath)
		return 0
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: stderr,
	})

	runID := uuid.NewString()
	flush := setupMetrics(cfg, runID)
	defer flush()

	ctx = logging.WithRun(ctx, runID, cfg.Job)
	log := logging.Ctx(ctx)
	start := time.Now()
	log.Info().Str("input", cfg.Input.Path).Str("output_dir", cfg.Output.Dir).Str("storage", cfg.Storage.Kind).Msg("run started")

	src := datasource.New(cfg.Input.Path, datasource.Options{HTTP: httpds.Config{
		Timeout:            cfg.Input.HTTP.Timeout,
		MaxRetries:         cfg.Input.HTTP.MaxRetries,
		InsecureSkipVerify: cfg.Input.HTTP.InsecureSkipVerify,
	}})
	res, err := pipeline.Run(ctx, src, pipeline.Options{
		Job:         cfg.Job,
		RunID:       runID,
		Ingest:      ingest.Options{Comma: cfg.Input.CommaRune(), HeaderMap: cfg.Input.HeaderMap},
		DateLayouts: cfg.Input.DateLayouts,
		Tolerance:   cfg.Audit.Tolerance,
	})
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return 1
	}

	if err := sink.WriteAll(ctx, res, sinks(cfg)...); err != nil {
		log.Error().Err(err).Msg("writing outputs failed")
		return 1
	}

	failed := res.Audit.Errors()
	log.Info().
		Int("orders", len(res.Orders)).
		Int("rejected", len(res.Rejected)).
		Bool("audit_passed", res.Audit.Passed()).
		Dur("duration", time.Since(start)).
		Msg("run finished")
	if len(failed) > 0 && cfg.Audit.FailOnError {
		log.Error().Strs("checks", checkNames(failed)).Msg("audit failed")
		return 1
	}
	return 0
}

func sinks(cfg config.Config) []sink.Sink {
	var out []sink.Sink
	if cfg.Output.Dir != "" {
		out = append(out, &sinkfile.Writer{Dir: cfg.Output.Dir, WriteRejected: cfg.Output.WriteRejected})
	}
	if cfg.Storage.Kind != "" {
		out = append(out, &sinkdb.Loader{
			Kind:         cfg.Storage.Kind,
			DSN:          cfg.Storage.DSN,
			AutoCreate:   cfg.Storage.AutoCreate,
			Replace:      cfg.Storage.Replace,
			BatchSize:    cfg.Storage.BatchSize,
			SchemaPrefix: cfg.Storage.SchemaPrefix,
		})
	}
	return out
}

// setupMetrics installs the configured backend and returns its flush
// function. A backend that fails to start leaves metrics disabled.
func setupMetrics(cfg config.Config, runID string) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		var pb *prompush.Backend
		pb, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err == nil {
			b = pb.Grouping("run_id", runID)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr: cfg.Metrics.DatadogAddr,
			Tags: append([]string{"job:" + cfg.Job}, cfg.Metrics.Tags...),
		})
	default:
		logging.Debug().Str("backend", cfg.Metrics.Backend).Msg("metrics disabled")
		return func() {}
	}
	if err != nil {
		logging.Warn().Err(err).Str("backend", cfg.Metrics.Backend).Msg("metrics backend unavailable; using nop")
		return func() {}
	}

	metrics.SetBackend(b)
	logging.Info().Str("backend", cfg.Metrics.Backend).Msg("metrics enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			logging.Warn().Err(err).Msg("metrics flush failed")
		}
	}
}

func checkNames(cs []audit.Check) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

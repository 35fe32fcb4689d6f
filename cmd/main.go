package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/okian/startrack/internal/adapters/http/api"
	"github.com/okian/startrack/internal/adapters/http/swagger"
	app "github.com/okian/startrack/internal/app"
	"github.com/okian/startrack/internal/config"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
	"github.com/okian/startrack/pkg/tracing"
)

// HTTP server timeout constants. Jobs run inside requests, so writes get
// the job budget.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 5 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Commands.
const (
	cmdServe = "serve"
	cmdRun   = "run"
)

const serviceName = "startrack"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var errUsage = errors.New("usage")

// options is the parsed command line.
type options struct {
	command   string
	job       string
	force     bool
	config    string
	logLevel  string
	logFormat string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := pflag.NewFlagSet("startrack", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.config, "config", "c", "", "YAML config file (overrides "+config.EnvFile+")")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text or json")
	fs.BoolVarP(&o.force, "force", "f", false, "run the monthly job on any day")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "usage: startrack [serve] | startrack run <%s|%s|%s|%s> [flags]\n",
			app.JobUpdate, app.JobMonthly, app.JobCleanup, app.JobFreeze)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	rest := fs.Args()
	switch {
	case len(rest) == 0:
		o.command = cmdServe
	case rest[0] == cmdServe && len(rest) == 1:
		o.command = cmdServe
	case rest[0] == cmdRun && len(rest) == 2:
		o.command, o.job = cmdRun, rest[1]
	default:
		fs.Usage()
		return o, fmt.Errorf("%w: unexpected arguments %v", errUsage, rest)
	}
	return o, nil
}

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	o, err := parseArgs(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if o.config != "" {
		_ = os.Setenv(config.EnvFile, o.config)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()
	l := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		l.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		SamplingRatio:  cfg.TracingSampleRatio,
	}, l.Named("tracing"))
	if err != nil {
		l.Error(ctx, "failed to set up tracing", logger.Error(err))
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			l.Warn(ctx, "tracer shutdown failed", logger.Error(err))
		}
	}()

	svc, err := app.Build(ctx, cfg, l)
	if err != nil {
		l.Error(ctx, "failed to build service", logger.Error(err))
		return 1
	}
	if err := svc.Start(ctx); err != nil {
		l.Error(ctx, "failed to start service", logger.Error(err))
		return 1
	}
	defer svc.Stop()

	if o.command == cmdRun {
		return runOnce(ctx, svc, o, os.Stdout, l)
	}
	return serve(ctx, cfg, svc, l)
}

// runOnce executes a single job and prints its report.
func runOnce(ctx context.Context, svc *app.Service, o options, out io.Writer, l logger.Logger) int {
	report, err := svc.RunJob(ctx, o.job, o.force)
	if err != nil {
		l.Error(ctx, "job failed", logger.String("job", o.job), logger.Error(err))
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
	return 0
}

func serve(ctx context.Context, cfg *config.Config, svc *app.Service, l logger.Logger) int {
	// Drop the default collectors; system metrics are our own.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           tracing.Middleware(newMux(ctx, cfg, svc, l)),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		l.Error(ctx, "HTTP server failed", logger.Error(err))
		return 1
	}
	l.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(ctx, "server shutdown failed", logger.Error(err))
		return 1
	}
	l.Info(ctx, "server stopped")
	return 0
}

func newMux(ctx context.Context, cfg *config.Config, svc *app.Service, l logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, cfg.MaxLeaderboardLimit, l.Named("api"), api.WithRetryPath(cfg.RetryEndpoint)).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

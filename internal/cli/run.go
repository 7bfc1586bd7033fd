package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunOptions contains the configuration of the run and test commands.
type RunOptions struct {
	Path        string
	Debug       bool
	Test        bool
	Watch       bool
	Workers     int
	RedisURL    string
	MetricsAddr string
	Out         io.Writer
}

// Execute renders the projects of the config at opts.Path, once or in watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := createLogger(opts.Debug)

	engOpts := []v2df.Option{
		v2df.WithLogger(logger),
		v2df.WithWorkers(opts.Workers),
	}
	if opts.Debug {
		engOpts = append(engOpts, v2df.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		engOpts = append(engOpts, v2df.WithLifecycleHooks(observability.NewMetrics(reg).Hooks()))
		stop := serveMetrics(opts.MetricsAddr, reg, logger)
		defer stop()
	}

	eng, err := v2df.New(engOpts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	if opts.Watch {
		return RunWatch(ctx, eng, opts, logger)
	}
	_, err = render(ctx, eng, opts)
	return err
}

// render loads the config and renders it once, printing the report.
func render(ctx context.Context, eng *v2df.Engine, opts RunOptions) ([]*v2df.Result, error) {
	cfg, err := loadConfig(opts.Path, opts.RedisURL)
	if err != nil {
		return nil, err
	}
	var results []*v2df.Result
	if opts.Test {
		results, err = eng.Test(ctx, cfg)
	} else {
		results, err = eng.Run(ctx, cfg)
	}
	if len(results) > 0 || err != nil {
		printReport(opts.Out, results, err)
	}
	if err != nil {
		return results, fmt.Errorf("render failed: %w", err)
	}
	return results, nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

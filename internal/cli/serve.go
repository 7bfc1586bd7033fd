package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/internal/pipeline"
	"github.com/aretw0/v2df/pkg/adapters/memory"
	httpAdapter "github.com/aretw0/v2df/pkg/adapters/http"
	"github.com/aretw0/v2df/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// ServeOptions configures the preview server.
type ServeOptions struct {
	Path     string
	Port     string
	RedisURL string
	Debug    bool
	Out      io.Writer
}

// Serve renders every project into memory and serves the result for preview
// until ctx is cancelled. POST /reload renders again.
func Serve(ctx context.Context, opts ServeOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := createLogger(opts.Debug)
	writer := memory.NewWriter()
	reg := prometheus.NewRegistry()

	var eng *v2df.Engine
	load := func(ctx context.Context) ([]*pipeline.Result, error) {
		cfg, err := loadConfig(opts.Path, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		for i := range cfg.Projects {
			cfg.Projects[i].MakeFrames = true
			cfg.Projects[i].MakeGrid = true
		}
		return eng.Run(ctx, cfg)
	}
	srv, err := httpAdapter.NewServer(load,
		httpAdapter.WithFiles(writer),
		httpAdapter.WithMetrics(reg),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithVersion(v2df.Version),
	)
	if err != nil {
		return err
	}
	eng, err = v2df.New(
		v2df.WithLogger(logger),
		v2df.WithWriter(writer),
		v2df.WithLifecycleHooks(observability.NewMetrics(reg).Hooks()),
		v2df.WithLifecycleHooks(srv.Hooks()),
	)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := srv.Reload(ctx); err != nil {
		logger.Error("initial render failed", "err", err)
		printSystemMessage(opts.Out, "Initial render failed, fix the config and POST /reload.")
	}

	httpSrv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "Preview server on %s", httpSrv.Addr)
		serverErrors <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			_ = httpSrv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		printSystemMessage(opts.Out, "Preview server stopped.")
		return nil
	}
}

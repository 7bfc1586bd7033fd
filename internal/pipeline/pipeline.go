// Package pipeline drives the render of every configured project: decode,
// normalize, compile, assemble, and emit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/aretw0/v2df/internal/logging"
	"github.com/aretw0/v2df/pkg/densityfn"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
)

// LockTTL is the lease of a project lock. Expiring locks renew it while the
// render runs, so it only bounds how long a process that died mid render
// blocks the project.
const LockTTL = 10 * time.Minute

// Pipeline renders configured projects from one video source.
type Pipeline struct {
	opener    ports.Opener
	writer    ports.ArtifactWriter
	cache     ports.TreeCache
	locker    ports.DistributedLocker
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	workers   int
	generator string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache serves compiled trees from c when the normalized grid was seen before.
func WithCache(c ports.TreeCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLocker takes a lock per project before writing its artifacts.
func WithLocker(l ports.DistributedLocker) Option {
	return func(p *Pipeline) { p.locker = l }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(p *Pipeline) { p.hooks = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithWorkers bounds the number of frames compiled concurrently. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithGenerator sets the generator string recorded in document provenance.
func WithGenerator(g string) Option {
	return func(p *Pipeline) { p.generator = g }
}

// New creates a pipeline reading through opener and writing through writer.
func New(opener ports.Opener, writer ports.ArtifactWriter, opts ...Option) *Pipeline {
	p := &Pipeline{
		opener:    opener,
		writer:    writer,
		logger:    logging.NewNop(),
		generator: "v2df",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Mode selects what a run renders.
type Mode int

const (
	// ModeRun renders each project's configured frame range.
	ModeRun Mode = iota
	// ModeTest renders each project's test frame only, plus preview images.
	ModeTest
)

// Run renders every project of cfg. A failing project does not stop the others;
// their errors are joined, each wrapped in a *domain.ProjectError.
func (p *Pipeline) Run(ctx context.Context, cfg domain.Config, mode Mode) ([]*Result, error) {
	codec, err := densityfn.NewCodec(cfg.AxisInputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	src, err := p.opener.Open(ctx, cfg.VideoFile)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.VideoFile, err)
	}
	defer src.Close()

	info := src.Info()
	p.logger.Info("video opened",
		"path", cfg.VideoFile,
		"width", info.Width,
		"height", info.Height,
		"fps", info.FrameRate.String(),
	)

	var (
		results []*Result
		errs    []error
	)
	for _, spec := range cfg.Projects {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r := &render{
			Pipeline: p,
			cfg:      cfg,
			spec:     spec,
			codec:    codec,
			src:      src,
			mode:     mode,
			logger:   p.logger.With("project", spec.Namespace),
		}
		res, err := r.run(ctx)
		if err != nil {
			errs = append(errs, projectError(spec.Namespace, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func projectError(project string, err error) error {
	var pe *domain.ProjectError
	if errors.As(err, &pe) {
		return err
	}
	stage := domain.StageEmit
	var fe *domain.FrameError
	if errors.As(err, &fe) {
		stage = fe.Stage
	}
	return &domain.ProjectError{Project: project, Stage: stage, Err: err}
}

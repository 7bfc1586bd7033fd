package v2df

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/v2df/internal/config"
	"github.com/aretw0/v2df/internal/logging"
	"github.com/aretw0/v2df/internal/pipeline"
	"github.com/aretw0/v2df/pkg/adapters/decode"
	"github.com/aretw0/v2df/pkg/adapters/file"
	"github.com/aretw0/v2df/pkg/adapters/memory"
	"github.com/aretw0/v2df/pkg/adapters/redis"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
)

//go:embed VERSION
var version string

// Version is the release of this module.
var Version = strings.TrimSpace(version)

// Result is the outcome of one rendered project.
type Result = pipeline.Result

// Engine renders v2df projects.
// It keeps its tree cache between runs, so watch mode recompiles only changed frames.
type Engine struct {
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	cache   ports.TreeCache
	writer  ports.ArtifactWriter
	opener  ports.Opener
	locker  ports.DistributedLocker
	workers int

	mu    sync.Mutex
	redis *redis.Cache
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCache injects the compiled tree cache, bypassing the one named by the config.
func WithCache(c ports.TreeCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithWriter injects the artifact writer. By default artifacts are written
// as files under the config's output_root_dir.
func WithWriter(w ports.ArtifactWriter) Option {
	return func(e *Engine) {
		e.writer = w
	}
}

// WithWorkers bounds concurrent frame compiles. Zero uses the config, then GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithOpener injects the video decoder.
func WithOpener(o ports.Opener) Option {
	return func(e *Engine) {
		e.opener = o
	}
}

// WithLocker takes a distributed lock per project while it renders.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", eng.workers)
	}
	return eng, nil
}

// Load finds and validates the config at path, a file or a project directory.
// It returns the directory relative paths in the config are resolved against.
func Load(path string) (domain.Config, string, error) {
	return config.Load(path)
}

// Resolve makes the video and output paths of cfg absolute against base.
func Resolve(cfg domain.Config, base string) domain.Config {
	if !filepath.IsAbs(cfg.VideoFile) {
		cfg.VideoFile = filepath.Join(base, cfg.VideoFile)
	}
	if !filepath.IsAbs(cfg.OutputRootDir) {
		cfg.OutputRootDir = filepath.Join(base, cfg.OutputRootDir)
	}
	return cfg
}

// Init writes a default config into dir in the format of ext (".json", ".yaml", ".toml").
func Init(dir, ext string) (string, error) {
	return config.WriteDefault(dir, ext)
}

// Run renders every project of cfg.
func (e *Engine) Run(ctx context.Context, cfg domain.Config) ([]*Result, error) {
	return e.run(ctx, cfg, pipeline.ModeRun)
}

// Test renders each project's test frame and writes preview images beside it.
func (e *Engine) Test(ctx context.Context, cfg domain.Config) ([]*Result, error) {
	return e.run(ctx, cfg, pipeline.ModeTest)
}

func (e *Engine) run(ctx context.Context, cfg domain.Config, mode pipeline.Mode) ([]*Result, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	p, err := e.pipeline(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, cfg, mode)
}

func (e *Engine) pipeline(cfg domain.Config) (*pipeline.Pipeline, error) {
	opener := e.opener
	if opener == nil {
		d := decode.NewOpener()
		if cfg.ImageSequenceFPS > 0 {
			d.Options.SequenceFPS = cfg.ImageSequenceFPS
		}
		opener = d
	}
	writer := e.writer
	if writer == nil {
		writer = file.New(cfg.OutputRootDir)
	}
	cache, locker, err := e.ensureCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	workers := e.workers
	if workers == 0 {
		workers = cfg.Workers
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(e.logger),
		pipeline.WithLifecycleHooks(e.hooks),
		pipeline.WithCache(cache),
		pipeline.WithWorkers(workers),
		pipeline.WithGenerator("v2df " + Version),
		pipeline.WithLocker(locker),
	}
	return pipeline.New(opener, writer, opts...), nil
}

// ensureCache opens the cache named by the config on first use.
// A Redis cache also provides the project lock unless one was injected;
// otherwise projects are locked within the process.
func (e *Engine) ensureCache(c domain.CacheConfig) (ports.TreeCache, ports.DistributedLocker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cache == nil && c.RedisURL != "" {
		prefix := c.Prefix
		if prefix == "" {
			prefix = domain.DefaultCachePrefix
		}
		rc, err := redis.New(c.RedisURL, redis.WithPrefix(prefix), redis.WithTTL(c.TTL))
		if err != nil {
			return nil, nil, fmt.Errorf("open tree cache: %w", err)
		}
		e.logger.Info("using redis tree cache", "prefix", prefix)
		e.redis = rc
		e.cache = rc
		if e.locker == nil {
			e.locker = redis.NewLocker(rc.Client(), prefix)
		}
	}
	if e.cache == nil {
		e.cache = memory.NewCache()
	}
	if e.locker == nil {
		e.locker = memory.NewLocker()
	}
	return e.cache, e.locker, nil
}

// Close releases the connections opened by the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
		e.redis = nil
	}
	return errors.Join(errs...)
}

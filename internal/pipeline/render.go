package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/aretw0/v2df/internal/assembler"
	"github.com/aretw0/v2df/internal/compiler"
	"github.com/aretw0/v2df/internal/normalize"
	"github.com/aretw0/v2df/internal/sdf"
	"github.com/aretw0/v2df/pkg/densityfn"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
	"github.com/aretw0/v2df/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// render holds the state of one project render.
type render struct {
	*Pipeline
	cfg    domain.Config
	spec   domain.ProjectSpec
	codec  *densityfn.Codec
	src    ports.FrameSource
	mode   Mode
	logger *slog.Logger
	norm   normalize.Normalizer

	mu        sync.Mutex
	frames    map[int]*frameResult
	artifacts []Artifact
}

// frameResult is a compiled frame owned by its task until collected.
type frameResult struct {
	tree     assembler.FrameTree
	grid     domain.PixelGrid
	raw      domain.RawFrame // kept in test mode only
	cacheHit bool
	stats    expr.Stats
}

func (r *render) run(ctx context.Context) (res *Result, err error) {
	started := time.Now()
	r.frames = make(map[int]*frameResult)
	r.norm = normalize.FromProject(r.spec)
	if err := r.norm.Validate(); err != nil {
		return nil, &domain.ProjectError{Project: r.spec.Namespace, Stage: domain.StageNormalize, Err: err}
	}

	if r.locker != nil {
		key := path.Join(r.cfg.OutputRootDir, r.spec.Namespace)
		unlock, err := r.locker.Lock(ctx, key, LockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		defer func() {
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
				r.logger.Warn("failed to release project lock", "key", key, "err", uerr)
			}
		}()
	}

	start, count := r.spec.FrameStart, r.spec.FrameCount
	if r.mode == ModeTest {
		start, count = r.spec.TestFrameIndex(), 1
	}

	if r.hooks.OnProjectStart != nil {
		r.hooks.OnProjectStart(ctx, &domain.ProjectEvent{EventBase: r.event(domain.EventProjectStart)})
	}
	defer func() {
		if r.hooks.OnProjectDone != nil {
			e := &domain.ProjectEvent{EventBase: r.event(domain.EventProjectDone), Duration: time.Since(started), Err: err}
			if res != nil {
				e.Frames = res.Manifest.FrameCount
			}
			r.hooks.OnProjectDone(ctx, e)
		}
	}()

	trees, err := r.compileRange(ctx, start, count)
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, start, trees, time.Since(started))
}

func (r *render) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Project: r.spec.Namespace}
}

// compileRange decodes frames sequentially and compiles them on the worker pool.
// It returns the compiled frames ordered by index.
func (r *render) compileRange(ctx context.Context, start, count int) ([]*frameResult, error) {
	if err := r.src.Rewind(); err != nil {
		return nil, domain.NewFrameError(start, domain.StageDecode, err)
	}
	rangeErr := domain.ErrInvalidFrameRange
	if r.mode == ModeTest {
		rangeErr = domain.ErrInvalidTestFrame
	}
	for i := 0; i < start; i++ {
		if _, err := r.src.Next(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: frame %d is past the end of a %d frame source", rangeErr, start, i)
			}
			return nil, domain.NewFrameError(i, domain.StageDecode, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	decoded, decodeErr := 0, error(nil)
	for count == 0 || decoded < count {
		raw, err := r.src.Next(gctx)
		if errors.Is(err, io.EOF) {
			break
		}
		index := start + decoded
		if err != nil {
			decodeErr = domain.NewFrameError(index, domain.StageDecode, err)
			break
		}
		raw = copyFrame(raw)
		decoded++
		g.Go(func() error {
			return r.compileFrame(gctx, index, raw)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	if decoded == 0 || (count > 0 && decoded < count) {
		return nil, fmt.Errorf("%w: wanted frames [%d, %d), source holds %d",
			rangeErr, start, start+max(count, 1), start+decoded)
	}

	out := make([]*frameResult, 0, decoded)
	for i := start; i < start+decoded; i++ {
		out = append(out, r.frames[i])
	}

	first := out[0].grid
	for _, f := range out[1:] {
		if f.grid.Width != first.Width || f.grid.Height != first.Height {
			return nil, domain.NewFrameError(f.tree.Index, domain.StageAssemble,
				fmt.Errorf("%w: frame is %dx%d, first frame is %dx%d",
					domain.ErrInvalidPixelFormat, f.grid.Width, f.grid.Height, first.Width, first.Height))
		}
	}
	return out, nil
}

// compileFrame normalizes, compiles and emits one frame.
func (r *render) compileFrame(ctx context.Context, index int, raw domain.RawFrame) error {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}
	grid, err := r.norm.Frame(index, raw)
	if err != nil {
		return err
	}

	arena, root, hit, err := r.lookup(ctx, index, grid)
	if err != nil {
		return err
	}

	res := &frameResult{
		tree:     assembler.FrameTree{Index: index, Arena: arena, Root: root},
		grid:     grid,
		cacheHit: hit,
		stats:    arena.Measure(root),
	}
	if r.mode == ModeTest {
		res.raw = raw
	}

	if r.spec.MakeFrames {
		if err := r.emitFrame(ctx, res); err != nil {
			return domain.NewFrameError(index, domain.StageEmit, err)
		}
	}

	r.mu.Lock()
	r.frames[index] = res
	r.mu.Unlock()

	if r.hooks.OnFrameCompiled != nil {
		r.hooks.OnFrameCompiled(ctx, &domain.FrameEvent{
			EventBase: r.event(domain.EventFrameCompiled),
			Index:     index,
			Nodes:     res.stats.Distinct,
			Depth:     res.stats.Depth,
			CacheHit:  hit,
			Duration:  time.Since(started),
		})
	}
	return nil
}

// lookup returns the compiled tree of grid, from the cache when possible.
// Cache failures are logged and fall back to compiling.
func (r *render) lookup(ctx context.Context, index int, grid domain.PixelGrid) (*expr.Arena, expr.NodeID, bool, error) {
	var key string
	if r.cache != nil {
		key = ports.GridKey(grid)
		payload, err := r.cache.Get(ctx, key)
		switch {
		case err == nil:
			arena := expr.NewArena()
			root, err := arena.Unmarshal(payload)
			if err == nil {
				return arena, root, true, nil
			}
			r.logger.Warn("discarding corrupt cache entry", "frame", index, "key", key, "err", err)
		case !errors.Is(err, domain.ErrCacheMiss):
			r.logger.Warn("tree cache lookup failed", "frame", index, "err", err)
		}
	}

	arena, root, err := compiler.CompileFrame(grid)
	if err != nil {
		return nil, expr.Invalid, false, domain.NewFrameError(index, domain.StageCompile, err)
	}
	if r.cache != nil {
		if err := r.cache.Put(ctx, key, arena.Marshal(root)); err != nil {
			r.logger.Warn("tree cache store failed", "frame", index, "err", err)
		}
	}
	return arena, root, false, nil
}

func (r *render) emitFrame(ctx context.Context, f *frameResult) error {
	prov := r.provenance(densityfn.KindFrame, f.tree.Index, 1, f.grid.Width, f.grid.Height)
	var (
		data []byte
		err  error
	)
	if r.spec.FrameEncoding == domain.EncodingTessellation {
		data, err = densityfn.TessellationDocument(prov, f.grid.Width, f.grid.Height, sdf.Gradient(f.grid, r.cut()))
	} else {
		data, err = r.codec.Document(prov, f.tree.Arena, f.tree.Root, nil)
	}
	if err != nil {
		return err
	}
	return r.writeDocument(ctx, "frame", FramePath(r.spec, f.tree.Index), data)
}

// cut is the highest value drawn as dark by the tessellation gradient.
func (r *render) cut() uint8 {
	return uint8((r.spec.Levels - 1) / 2)
}

func (r *render) provenance(kind string, start, count, width, height int) densityfn.Provenance {
	return densityfn.Provenance{
		Generator:  r.generator,
		Project:    r.spec.Namespace,
		Kind:       kind,
		Encoding:   r.spec.FrameEncoding,
		FrameStart: start,
		FrameCount: count,
		Width:      width,
		Height:     height,
		FrameRate:  r.src.Info().FrameRate.String(),
	}
}

func (r *render) record(ctx context.Context, kind, p string, size int) {
	r.mu.Lock()
	r.artifacts = append(r.artifacts, Artifact{Kind: kind, Path: p, Bytes: size})
	r.mu.Unlock()
	if r.hooks.OnArtifact != nil {
		r.hooks.OnArtifact(ctx, &domain.ArtifactEvent{
			EventBase: r.event(domain.EventArtifact),
			Kind:      kind,
			Path:      p,
			Bytes:     size,
		})
	}
}

func (r *render) writeDocument(ctx context.Context, kind, p string, data []byte) error {
	if err := r.writer.WriteDocument(ctx, p, data); err != nil {
		return err
	}
	r.record(ctx, kind, p, len(data))
	return nil
}

func copyFrame(raw domain.RawFrame) domain.RawFrame {
	raw.Pix = append([]byte(nil), raw.Pix...)
	return raw
}

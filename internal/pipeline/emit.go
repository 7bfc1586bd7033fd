package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path"
	"time"

	"github.com/aretw0/v2df/internal/assembler"
	"github.com/aretw0/v2df/internal/normalize"
	"github.com/aretw0/v2df/internal/sdf"
	"github.com/aretw0/v2df/internal/traversal"
	"github.com/aretw0/v2df/pkg/densityfn"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
)

// Artifact is one file written for a project, relative to the output root.
type Artifact struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes,omitempty"`
}

// Manifest summarizes a rendered project.
type Manifest struct {
	Provenance densityfn.Provenance `json:"v2df_provenance"`
	FrameCount int                  `json:"frame_count"`
	Layout     string               `json:"layout"`
	CacheHits  int                  `json:"cache_hits"`
	GridNodes  int                  `json:"grid_nodes,omitempty"`
	Shared     int                  `json:"shared,omitempty"`
	MaxDrift   float64              `json:"max_drift_ticks,omitempty"`
	Duration   string               `json:"duration"`
	Artifacts  []Artifact           `json:"artifacts"`
}

// Result is the outcome of a project render.
type Result struct {
	Project  string
	Spec     domain.ProjectSpec
	Manifest Manifest
	// Grid is nil unless make_grid is set.
	Grid *assembler.Grid
	// Script is nil unless make_tp is set.
	Script *domain.TraversalScript
}

// FramePath returns the document path of a frame.
func FramePath(spec domain.ProjectSpec, index int) string {
	return path.Join(spec.FrameDFsDir, fmt.Sprintf("%d.json", index))
}

// GridPath returns the combined grid document path.
func GridPath(spec domain.ProjectSpec) string {
	return path.Join(spec.GridDFDir, domain.GridFileName)
}

// SharedPath returns the document path of the k-th shared definition.
func SharedPath(spec domain.ProjectSpec, k int) string {
	return path.Join(spec.GridDFDir, domain.SharedDirName, fmt.Sprintf("%d.json", k))
}

// ScriptPath returns the traversal function path of a frame.
func ScriptPath(spec domain.ProjectSpec, index int) string {
	return path.Join(spec.TPDir, fmt.Sprintf("%d.mcfunction", index))
}

// ManifestPath returns the manifest path of a project.
func ManifestPath(spec domain.ProjectSpec) string {
	return spec.Namespace + domain.ManifestSuffix
}

// resourceName returns the namespaced id under which the host engine loads a document.
func resourceName(namespace, dir string, index int) string {
	return namespace + ":" + traversal.FunctionPath(dir, index)
}

func (r *render) finish(ctx context.Context, start int, frames []*frameResult, elapsed time.Duration) (*Result, error) {
	width, height := frames[0].grid.Width, frames[0].grid.Height
	res := &Result{Project: r.spec.Namespace, Spec: r.spec}
	m := Manifest{
		Provenance: r.provenance(densityfn.KindGrid, start, len(frames), width, height),
		FrameCount: len(frames),
		Layout:     r.spec.Layout,
	}
	for _, f := range frames {
		if f.cacheHit {
			m.CacheHits++
		}
	}

	spacing := r.spec.Spacing
	if r.spec.FrameEncoding == domain.EncodingTessellation {
		spacing = alignSpacing(spacing, width)
	}
	layout, err := assembler.NewLayout(r.spec.Layout, width, height, spacing)
	if err != nil {
		return nil, &domain.ProjectError{Project: r.spec.Namespace, Stage: domain.StageAssemble, Err: err}
	}

	if r.spec.MakeGrid {
		grid, shared, err := r.emitGrid(ctx, start, frames, layout)
		if err != nil {
			return nil, &domain.ProjectError{Project: r.spec.Namespace, Stage: domain.StageAssemble, Err: err}
		}
		res.Grid = grid
		m.GridNodes = grid.Arena.Measure(grid.Root).Distinct
		m.Shared = shared
	}

	if r.spec.MakeTP {
		script, err := r.emitTraversal(ctx, start, len(frames), width, height, layout)
		if err != nil {
			return nil, &domain.ProjectError{Project: r.spec.Namespace, Stage: domain.StageTraversal, Err: err}
		}
		res.Script = &script
		m.MaxDrift = script.MaxDrift
	}

	if r.mode == ModeTest {
		if err := r.emitTestImages(ctx, frames[0]); err != nil {
			return nil, &domain.ProjectError{Project: r.spec.Namespace, Stage: domain.StageEmit, Err: err}
		}
	}

	m.Duration = elapsed.Round(time.Millisecond).String()
	r.mu.Lock()
	m.Artifacts = append([]Artifact(nil), r.artifacts...)
	r.mu.Unlock()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := r.writeDocument(ctx, "manifest", ManifestPath(r.spec), append(data, '\n')); err != nil {
		return nil, &domain.ProjectError{Project: r.spec.Namespace, Stage: domain.StageEmit, Err: err}
	}
	res.Manifest = m
	r.logger.Info("project rendered",
		"frames", len(frames),
		"cache_hits", m.CacheHits,
		"artifacts", len(m.Artifacts)+1,
	)
	return res, nil
}

// emitGrid assembles the frames on the layout cells the traversal visits and
// writes the combined document. Tree frames are inlined with large repeated
// subtrees split into shared definitions; tessellation frames are referenced by
// their frame documents.
func (r *render) emitGrid(ctx context.Context, start int, frames []*frameResult, layout assembler.Layout) (*assembler.Grid, int, error) {
	width, height := frames[0].grid.Width, frames[0].grid.Height
	trees := make([]assembler.FrameTree, len(frames))
	for i, f := range frames {
		trees[i] = f.tree
	}
	grid, err := assembler.Assemble(trees, assembler.Options{
		FrameStart:  start,
		OutOfBounds: r.spec.OutOfBoundsValue,
		Layout:      layout,
		Width:       width,
		Height:      height,
	})
	if err != nil {
		return nil, 0, err
	}

	refs := make(map[expr.NodeID]string)
	var shared []expr.NodeID
	if r.spec.FrameEncoding == domain.EncodingTessellation {
		// A tessellation repeats its image over the whole plane, so it only
		// shows the right frame on cells aligned to the frame extent.
		for i, root := range grid.Placed {
			x, z := layout.Cell(i)
			if x%width != 0 || z%height != 0 {
				return nil, 0, fmt.Errorf("%w: %s cell of frame %d at (%d,%d) is not aligned to the %dx%d tessellation",
					domain.ErrInvalidLayout, layout.Name(), start+i, x, z, width, height)
			}
			refs[root] = resourceName(r.spec.Namespace, r.spec.FrameDFsDir, start+i)
		}
	} else {
		shared = grid.Share(r.spec.ShareMinNodes)
		sharedDir := path.Join(r.spec.GridDFDir, domain.SharedDirName)
		for k, id := range shared {
			refs[id] = resourceName(r.spec.Namespace, sharedDir, k)
		}
		for k, id := range shared {
			prov := r.provenance(densityfn.KindShared, start, len(frames), width, height)
			data, err := r.codec.Document(prov, grid.Arena, id, refs)
			if err != nil {
				return nil, 0, err
			}
			if err := r.writeDocument(ctx, "shared", SharedPath(r.spec, k), data); err != nil {
				return nil, 0, err
			}
		}
	}

	prov := r.provenance(densityfn.KindGrid, start, len(frames), width, height)
	data, err := r.codec.Document(prov, grid.Arena, grid.Root, refs)
	if err != nil {
		return nil, 0, err
	}
	if err := r.writeDocument(ctx, "grid", GridPath(r.spec), data); err != nil {
		return nil, 0, err
	}
	return grid, len(shared), nil
}

func (r *render) emitTraversal(ctx context.Context, start, count, width, height int, layout assembler.Layout) (domain.TraversalScript, error) {
	script, err := traversal.Generate(traversal.Options{
		FrameStart:     start,
		FrameCount:     count,
		FrameRate:      r.src.Info().FrameRate,
		TickRate:       r.cfg.TickRate,
		DriftTolerance: r.cfg.DriftTolerance,
		Layout:         layout,
		Width:          width,
		Height:         height,
		Y:              r.spec.TPHeight,
	})
	if err != nil {
		return domain.TraversalScript{}, err
	}
	for i, step := range script.Steps {
		text := traversal.Render(script, i, r.spec.Namespace, r.spec.TPDir)
		p := ScriptPath(r.spec, step.FrameIndex)
		if err := r.writer.WriteScript(ctx, p, text); err != nil {
			return domain.TraversalScript{}, err
		}
		r.record(ctx, "traversal", p, len(text))
	}
	return script, nil
}

// TestImages holds the preview image paths of a test frame.
type TestImages struct {
	Source     string
	Normalized string
	Preview    string
	Gradated   string
}

// TestImagePaths returns the preview image paths of a test frame.
func TestImagePaths(spec domain.ProjectSpec, index int) TestImages {
	name := func(prefix string) string {
		return path.Join(spec.Namespace, fmt.Sprintf("%stest_frame_%d.png", prefix, index))
	}
	return TestImages{
		Source:     name(""),
		Normalized: name("normalized_"),
		Preview:    name("preview_"),
		Gradated:   name("gradated_"),
	}
}

// emitTestImages writes the source frame, its normalized grid, the grid
// evaluated back from the compiled tree and the distance gradient a
// tessellation would embed.
func (r *render) emitTestImages(ctx context.Context, f *frameResult) error {
	paths := TestImagePaths(r.spec, f.tree.Index)

	src, err := r.norm.Preview(f.raw)
	if err != nil {
		return err
	}
	evaluated := domain.NewPixelGrid(f.grid.Width, f.grid.Height, 0)
	for z := 0; z < f.grid.Height; z++ {
		for x := 0; x < f.grid.Width; x++ {
			v := f.tree.Arena.Eval(f.tree.Root, expr.Coord{X: x, Z: z, Frame: f.tree.Index})
			evaluated.Cells[z*f.grid.Width+x] = uint8(v)
		}
	}

	outputs := []struct {
		path string
		img  *image.Gray
	}{
		{paths.Source, src},
		{paths.Normalized, normalize.Stretch(f.grid, r.spec.Levels)},
		{paths.Preview, normalize.Stretch(evaluated, r.spec.Levels)},
		{paths.Gradated, gradientImage(f.grid.Width, f.grid.Height, sdf.Gradient(f.grid, r.cut()))},
	}
	for _, out := range outputs {
		if err := r.writer.WriteImage(ctx, out.path, out.img); err != nil {
			return err
		}
		r.record(ctx, "preview", out.path, 0)
	}
	return nil
}

// alignSpacing grows spacing until strip cells start on multiples of width.
func alignSpacing(spacing, width int) int {
	if rem := (width + spacing) % width; rem != 0 {
		spacing += width - rem
	}
	return spacing
}

func gradientImage(width, height int, pix []byte) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return img
}

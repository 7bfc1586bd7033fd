package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/internal/presentation/graph"
	"github.com/aretw0/v2df/internal/presentation/tui"
	"github.com/aretw0/v2df/pkg/adapters/memory"
	"github.com/aretw0/v2df/pkg/domain"
)

// InspectOptions selects the frame trees printed by Inspect.
type InspectOptions struct {
	Path    string
	Project string
	// Frame overrides each project's test frame when non-negative.
	Frame    int
	Mermaid  bool
	MaxNodes int
	Debug    bool
	Out      io.Writer
}

// Inspect compiles one frame per project in memory and prints the shape of its tree.
func Inspect(ctx context.Context, opts InspectOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	cfg, err := loadConfig(opts.Path, "")
	if err != nil {
		return err
	}
	cfg.Projects, err = selectProjects(cfg.Projects, opts.Project, opts.Frame)
	if err != nil {
		return err
	}

	eng, err := v2df.New(
		v2df.WithLogger(createLogger(opts.Debug)),
		v2df.WithWriter(memory.NewWriter()),
		v2df.WithCache(memory.NewCache()),
	)
	if err != nil {
		return err
	}
	defer eng.Close()

	results, runErr := eng.Test(ctx, cfg)
	md, err := describe(results, opts)
	if err != nil {
		return err
	}
	if runErr != nil {
		md += "\n" + tui.Report(nil, runErr)
	}
	if isTerminal(opts.Out) && !opts.Mermaid {
		if out, rerr := tui.NewRenderer()(md); rerr == nil {
			md = out
		}
	}
	fmt.Fprint(opts.Out, md)
	return runErr
}

// selectProjects keeps the project named ns, or all when ns is empty,
// and prepares them for an in-memory test render.
func selectProjects(projects []domain.ProjectSpec, ns string, frame int) ([]domain.ProjectSpec, error) {
	var out []domain.ProjectSpec
	for _, p := range projects {
		if ns != "" && p.Namespace != ns {
			continue
		}
		if frame >= 0 {
			f := frame
			p.TestFrame = &f
		}
		p.MakeFrames = true
		p.MakeGrid = true
		p.MakeTP = false
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no project named %q", ns)
	}
	return out, nil
}

func describe(results []*v2df.Result, opts InspectOptions) (string, error) {
	var sb strings.Builder
	for _, res := range results {
		index := res.Spec.TestFrameIndex()
		arena, root, err := res.Grid.Extract(index)
		if err != nil {
			return "", fmt.Errorf("%s: %w", res.Project, err)
		}
		st := arena.Measure(root)
		fmt.Fprintf(&sb, "## %s, frame %d\n\n", res.Project, index)
		sb.WriteString("| Size | Distinct nodes | Expanded nodes | Leaves | Depth |\n")
		sb.WriteString("|---|---:|---:|---:|---:|\n")
		fmt.Fprintf(&sb, "| %dx%d | %d | %d | %d | %d |\n\n",
			res.Manifest.Provenance.Width, res.Manifest.Provenance.Height,
			st.Distinct, st.Size, st.Leaves, st.Depth)
		if opts.Mermaid {
			sb.WriteString("```mermaid\n")
			sb.WriteString(graph.GenerateMermaid(arena, root, graph.Options{MaxNodes: opts.MaxNodes}))
			sb.WriteString("```\n\n")
		}
	}
	return sb.String(), nil
}

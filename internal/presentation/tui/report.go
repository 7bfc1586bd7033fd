package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/v2df/internal/pipeline"
	"github.com/aretw0/v2df/pkg/domain"
)

// Report renders a run summary as markdown: one table row per project and
// one bullet per failed project.
func Report(results []*pipeline.Result, err error) string {
	var sb strings.Builder
	sb.WriteString("# v2df run\n\n")
	if len(results) > 0 {
		sb.WriteString("| Project | Frames | Size | Cache hits | Grid nodes | Shared | Artifacts | Time |\n")
		sb.WriteString("|---|---:|---|---:|---:|---:|---:|---|\n")
		for _, r := range results {
			m := r.Manifest
			fmt.Fprintf(&sb, "| %s | %d | %dx%d | %d | %d | %d | %d | %s |\n",
				r.Project, m.FrameCount, m.Provenance.Width, m.Provenance.Height,
				m.CacheHits, m.GridNodes, m.Shared, len(m.Artifacts), m.Duration)
		}
		sb.WriteString("\n")
	}
	if err != nil {
		sb.WriteString("## Failures\n\n")
		for _, e := range flatten(err) {
			var pe *domain.ProjectError
			if errors.As(e, &pe) {
				fmt.Fprintf(&sb, "- **%s** (%s): %v\n", pe.Project, pe.Stage, pe.Err)
				continue
			}
			fmt.Fprintf(&sb, "- %v\n", e)
		}
	}
	return sb.String()
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

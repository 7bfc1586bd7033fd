package traversal

import (
	"fmt"
	"path"
	"strings"

	"github.com/aretw0/v2df/pkg/domain"
)

// FunctionPath returns the function resource path of a step, e.g. "frame_tp/12".
func FunctionPath(dir string, index int) string {
	dir = strings.Trim(path.Clean(strings.ReplaceAll(dir, "\\", "/")), "./")
	if dir == "" {
		return fmt.Sprintf("%d", index)
	}
	return fmt.Sprintf("%s/%d", dir, index)
}

// Render returns the function body of step i of script.
// Every step teleports the observer; all but the last chain to the next step.
func Render(script domain.TraversalScript, i int, namespace, dir string) string {
	step := script.Steps[i]
	var b strings.Builder
	fmt.Fprintf(&b, "# v2df frame %d of [%d, %d) at %s fps, %d ticks/s\n",
		step.FrameIndex, script.FrameStart, script.FrameStart+len(script.Steps), script.FrameRate, script.TickRate)
	fmt.Fprintf(&b, "tp @a %d %d %d 180 90\n", step.Position.X, step.Position.Y, step.Position.Z)

	if i+1 < len(script.Steps) {
		next := FunctionPath(dir, script.Steps[i+1].FrameIndex)
		if step.Delay > 0 {
			fmt.Fprintf(&b, "schedule function %s:%s %dt\n", namespace, next, step.Delay)
		} else {
			fmt.Fprintf(&b, "function %s:%s\n", namespace, next)
		}
	}
	return b.String()
}

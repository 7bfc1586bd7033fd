package v2df_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/pkg/adapters/memory"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/expr"
	"github.com/aretw0/v2df/pkg/ports"
)

// ExampleEngine_Run renders a single two pixel frame in memory and evaluates
// the resulting grid, border included.
func ExampleEngine_Run() {
	opener := memory.Opener{
		"clip": func() (ports.FrameSource, error) {
			return memory.NewGraySource(2, 1, domain.NewRational(20, 1), []byte{255, 0})
		},
	}
	eng, err := v2df.New(v2df.WithOpener(opener), v2df.WithWriter(memory.NewWriter()))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	cfg := domain.DefaultConfig()
	cfg.VideoFile = "clip"
	cfg.Projects[0].Namespace = "demo"
	cfg.Projects[0].BorderWidth = 1

	results, err := eng.Run(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	grid := results[0].Grid
	for z := 0; z < 3; z++ {
		var row strings.Builder
		for x := 0; x < 4; x++ {
			if grid.Eval(expr.Coord{X: x, Z: z}) == 1 {
				row.WriteByte('#')
			} else {
				row.WriteByte('.')
			}
		}
		fmt.Println(row.String())
	}
	// Output:
	// ####
	// ##.#
	// ####
}

//go:build !libav

package decode

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/v2df/pkg/ports"
)

func openLibav(path string) (ports.FrameSource, error) {
	return nil, fmt.Errorf("%w: %q needs libav, rebuild with -tags libav or convert to GIF, MPEG-1 or an image sequence",
		ErrUnsupportedContainer, filepath.Ext(path))
}

package decode

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/v2df/pkg/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var sequenceExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Sequence is a FrameSource over numbered still images, read lazily in name order.
type Sequence struct {
	paths []string
	info  domain.StreamInfo
	pos   int
}

// OpenSequence lists the images of dir (or the directory holding a single image path).
func OpenSequence(path string, fps float64) (*Sequence, error) {
	dir := path
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		dir = filepath.Dir(path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open image sequence: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !sequenceExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("open image sequence: no images in %s", dir)
	}
	sort.Slice(paths, func(i, j int) bool { return naturalLess(filepath.Base(paths[i]), filepath.Base(paths[j])) })

	first, err := decodeImage(paths[0])
	if err != nil {
		return nil, err
	}
	if fps <= 0 {
		fps = domain.DefaultSequenceFPS
	}
	raw := rawFromImage(first)
	return &Sequence{
		paths: paths,
		info: domain.StreamInfo{
			Width:      raw.Width,
			Height:     raw.Height,
			Format:     raw.Format,
			FrameRate:  domain.RationalFromFloat(fps),
			FrameCount: len(paths),
		},
	}, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (s *Sequence) Info() domain.StreamInfo { return s.info }

func (s *Sequence) Next(ctx context.Context) (domain.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawFrame{}, err
	}
	if s.pos >= len(s.paths) {
		return domain.RawFrame{}, io.EOF
	}
	img, err := decodeImage(s.paths[s.pos])
	if err != nil {
		return domain.RawFrame{}, err
	}
	raw := rawFromImage(img)
	if raw.Width != s.info.Width || raw.Height != s.info.Height {
		return domain.RawFrame{}, fmt.Errorf("%w: %s is %dx%d, sequence is %dx%d", domain.ErrInvalidPixelFormat,
			filepath.Base(s.paths[s.pos]), raw.Width, raw.Height, s.info.Width, s.info.Height)
	}
	s.pos++
	return raw, nil
}

func (s *Sequence) Rewind() error {
	s.pos = 0
	return nil
}

func (s *Sequence) Close() error { return nil }

// naturalLess orders "frame2.png" before "frame10.png".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		if da && db {
			na, ra := leadingNumber(a)
			nb, rb := leadingNumber(b)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func leadingNumber(s string) (uint64, string) {
	var n uint64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return n, s[i:]
}

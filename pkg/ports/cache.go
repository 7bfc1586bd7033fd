package ports

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/aretw0/v2df/pkg/domain"
)

// TreeCache stores binary encoded trees (see expr.Arena.Marshal) by grid content.
type TreeCache interface {
	// Get returns the payload stored under key, or domain.ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores payload under key, replacing any previous value.
	Put(ctx context.Context, key string, payload []byte) error
}

// GridKey returns the content address of a normalized grid.
func GridKey(g domain.PixelGrid) string {
	h := sha256.New()
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(g.Width))
	binary.BigEndian.PutUint64(dims[8:], uint64(g.Height))
	h.Write(dims[:])
	h.Write(g.Cells)
	return hex.EncodeToString(h.Sum(nil))
}

package memory_test

import (
	"testing"

	"github.com/aretw0/v2df/pkg/adapters/memory"
	"github.com/aretw0/v2df/pkg/ports"
)

func TestMemoryCache_Contract(t *testing.T) {
	cache := memory.NewCache()
	ports.RunTreeCacheContract(t, cache)
}

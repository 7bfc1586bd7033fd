package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/klauspost/compress/zstd"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.TreeCache using Redis.
// Payloads are zstd compressed; compiled trees of similar frames compress well.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

type Option func(*Cache)

// WithTTL sets the expiration of cached trees.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached trees.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache from a redis:// URL.
func New(url string, opts ...Option) (*Cache, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) (*Cache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		client: client,
		prefix: domain.DefaultCachePrefix,
		ttl:    0, // No expiration by default
		enc:    enc,
		dec:    dec,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get returns the tree stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	payload, err := c.dec.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cached tree: %w", err)
	}
	return payload, nil
}

// Put stores payload under key.
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	data := c.enc.EncodeAll(payload, nil)
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (c *Cache) Client() *backend.Client {
	return c.client
}

// Close closes the redis client.
func (c *Cache) Close() error {
	c.dec.Close()
	return c.client.Close()
}

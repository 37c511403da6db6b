// Package cache is the in-memory key/value collaborator of the chain
// resolver. Entries live in a memkv.Store as CBOR-encoded values.
package cache

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"silenthope/pkg/memkv"
	"silenthope/pkg/protocol/codec"
	"silenthope/pkg/value"
)

// ErrFull is returned by Set when MaxBytes would be exceeded.
var ErrFull = errors.New("cache: byte limit exceeded")

type Options struct {
	Shards   int
	MaxBytes uint64        // 0 = unlimited
	TTL      time.Duration // default entry lifetime; 0 = entries never expire
	Codec    codec.Codec   // defaults to CBOR
	Logger   *zap.Logger
}

type Cache struct {
	store *memkv.Store
	codec codec.Codec
	ttl   time.Duration
	log   *zap.Logger
}

func New(opts Options) (*Cache, error) {
	c := opts.Codec
	if c == nil {
		var err error
		if c, err = codec.CBOR(); err != nil {
			return nil, fmt.Errorf("cache codec: %w", err)
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		store: memkv.New(memkv.Options{Shards: opts.Shards, MaxBytes: opts.MaxBytes}),
		codec: c,
		ttl:   opts.TTL,
		log:   log,
	}, nil
}

// Get returns the value stored under key. Entries that fail to decode are
// dropped and reported as missing.
func (c *Cache) Get(key string) (value.Value, bool) {
	b, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	v, err := value.Decode(c.codec, b)
	if err != nil {
		c.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.store.Delete(key)
		return nil, false
	}
	return v, true
}

// Set stores v with the default TTL.
func (c *Cache) Set(key string, v value.Value) error {
	return c.SetTTL(key, v, c.ttl)
}

// SetTTL stores v with an explicit lifetime; ttl <= 0 means no expiry.
func (c *Cache) SetTTL(key string, v value.Value, ttl time.Duration) error {
	if v == nil {
		v = value.Null{}
	}
	b, err := value.Encode(c.codec, v)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	if err := c.store.Set(key, b, ttl); err != nil {
		if errors.Is(err, memkv.ErrLimitExceeded) {
			return fmt.Errorf("cache set %q (%d bytes): %w", key, len(b), ErrFull)
		}
		return err
	}
	c.log.Debug("cache set", zap.String("key", key), zap.Int("bytes", len(b)))
	return nil
}

// GetOrLoad returns the cached value or calls load, caching what it returns.
// A failed load leaves the cache untouched. Concurrent misses on the same
// key may each call load.
func (c *Cache) GetOrLoad(key string, load func() (value.Value, error)) (value.Value, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, fmt.Errorf("cache load %q: %w", key, err)
	}
	if err := c.Set(key, v); err != nil {
		return nil, err
	}
	if v == nil {
		v = value.Null{}
	}
	return v, nil
}

// Invalidate removes key, reporting whether it was present.
func (c *Cache) Invalidate(key string) bool { return c.store.Delete(key) }

func (c *Cache) Clear() { c.store.Clear() }

func (c *Cache) Len() int { return c.store.Len() }

type Stats struct {
	Entries uint64
	Bytes   uint64
	Hits    uint64
	Misses  uint64
	Sets    uint64
	Expired uint64
}

// HitRate is hits over lookups, 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *Cache) Stats() Stats {
	m := c.store.Metrics()
	return Stats{
		Entries: m.Keys,
		Bytes:   m.Bytes,
		Hits:    m.Hits,
		Misses:  m.Misses,
		Sets:    m.Sets,
		Expired: m.Expired,
	}
}

// Close releases the expiry goroutine of the underlying store.
func (c *Cache) Close() { c.store.Close() }

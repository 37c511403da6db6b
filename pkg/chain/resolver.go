// Package chain issues short reference strings for stored values and
// resolves them back through a key/value cache.
//
// Reference grammar:
//
//	chain:latest       value under the most recently stored key
//	chain:<seq>:<key>  value under key; seq is not checked
//	chain:<key>        value under key
//
// Anything else resolves to nothing, so keys containing ':' are stored but
// only reachable through Ref. A reference always yields the current value
// under its key, never a snapshot taken at <seq>.
package chain

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"silenthope/pkg/protocol"
	"silenthope/pkg/value"
)

const (
	Prefix = "chain"
	Latest = "latest"
)

// Cache is the storage collaborator. Implementations synchronise themselves.
type Cache interface {
	Get(key string) (value.Value, bool)
	Set(key string, v value.Value) error
}

// Entry records that Key was stored at Sequence.
type Entry struct {
	Sequence uint64
	Key      string
}

// Ref renders the entry as chain:<seq>:<key>.
func (e Entry) Ref() string {
	return Prefix + ":" + strconv.FormatUint(e.Sequence, 10) + ":" + e.Key
}

type Options struct {
	Logger *zap.Logger
}

type Resolver struct {
	cache Cache
	log   *zap.Logger

	mu   sync.RWMutex
	seq  uint64
	keys map[uint64]string
}

func New(cache Cache, opts Options) *Resolver {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cache: cache, log: log, keys: make(map[uint64]string)}
}

// Store saves v under key and returns its reference. The sequence only
// advances when the cache accepted the value.
func (r *Resolver) Store(key string, v value.Value) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.cache.Set(key, v); err != nil {
		return "", fmt.Errorf("chain store %q: %w", key, err)
	}
	r.seq++
	r.keys[r.seq] = key
	e := Entry{Sequence: r.seq, Key: key}
	r.log.Debug("chain store", zap.Uint64("seq", e.Sequence), zap.String("key", key))
	return e.Ref(), nil
}

// Ref looks key up in the cache without touching the sequence table.
func (r *Resolver) Ref(key string) (value.Value, bool) { return r.cache.Get(key) }

// Resolve parses ref and returns the value it points at.
func (r *Resolver) Resolve(ref string) (value.Value, bool) {
	key, ok := r.keyFor(ref)
	if !ok {
		r.log.Debug("chain ref unresolved", zap.String("ref", ref))
		return nil, false
	}
	return r.cache.Get(key)
}

func (r *Resolver) keyFor(ref string) (string, bool) {
	parts := strings.Split(ref, ":")
	if parts[0] != Prefix {
		return "", false
	}
	switch len(parts) {
	case 2:
		if parts[1] == Latest {
			e, ok := r.Latest()
			return e.Key, ok
		}
		return parts[1], true
	case 3:
		return parts[2], true
	}
	return "", false
}

// ResolveMemoryRef resolves the reference carried in a message header.
func (r *Resolver) ResolveMemoryRef(ref protocol.MemoryRef) (value.Value, bool) {
	if ref.IsZero() {
		return nil, false
	}
	return r.Resolve(ref.String())
}

// Lookup returns the key recorded at seq.
func (r *Resolver) Lookup(seq uint64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[seq]
	return k, ok
}

// Sequence is the last issued sequence number, 0 before the first Store.
func (r *Resolver) Sequence() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

func (r *Resolver) Latest() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.seq == 0 {
		return Entry{}, false
	}
	return Entry{Sequence: r.seq, Key: r.keys[r.seq]}, true
}

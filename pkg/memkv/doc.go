// Package memkv is a thread-safe in-memory byte store backing the chain
// cache.
//
// Properties:
//   - sharded map guarded by RW mutexes (256 shards by default)
//   - optional per-key TTL; a background goroutine removes expired keys and
//     reads treat them as absent even before the sweep
//   - values are copied on Set and Get, so callers may reuse their buffers
//   - optional cap on the total size of stored values (Options.MaxBytes)
//   - lock-free counters for hits, misses, sets and expirations
//
// A Store owns a goroutine; call Close when done with it.
package memkv

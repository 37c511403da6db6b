package memkv

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLimitExceeded is returned by Set when the write would push the total
// stored bytes past Options.MaxBytes.
var ErrLimitExceeded = errors.New("memkv: byte limit exceeded")

type Options struct {
	Shards   int    // number of shards (default 256)
	MaxBytes uint64 // hard cap on the sum of value sizes (0 = unlimited)
}

func (o Options) withDefaults() Options {
	if o.Shards <= 0 {
		o.Shards = 256
	}
	return o
}

type Store struct {
	opts    Options
	shards  []shard
	expq    *expQueue
	wake    chan struct{} // an earlier deadline was queued
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	nowFn func() time.Time

	mKeys    atomic.Uint64
	mBytes   atomic.Uint64
	mSets    atomic.Uint64
	mGets    atomic.Uint64
	mHits    atomic.Uint64
	mMisses  atomic.Uint64
	mDels    atomic.Uint64
	mExpired atomic.Uint64
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*entry
}

type entry struct {
	val      []byte
	expireAt int64 // unix nano; 0 = never
}

func (e *entry) expired(now int64) bool { return e.expireAt != 0 && e.expireAt <= now }

func New(opts Options) *Store {
	opts = opts.withDefaults()
	s := &Store{
		opts:    opts,
		shards:  make([]shard, opts.Shards),
		expq:    &expQueue{},
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		nowFn:   time.Now,
	}
	s.expq.cond = sync.NewCond(&s.expq.mu)
	for i := range s.shards {
		s.shards[i].m = make(map[string]*entry)
	}
	s.wg.Add(1)
	go s.expirer()
	return s
}

// Close stops the expiry goroutine. It is safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.closeCh)
		s.expq.mu.Lock()
		s.expq.cond.Broadcast()
		s.expq.mu.Unlock()
		s.wg.Wait()
	})
}

func (s *Store) shardFor(key string) *shard {
	// FNV-1a 64
	var h uint64 = 1469598103934665603
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211
	}
	return &s.shards[int(h%uint64(len(s.shards)))]
}

// tryAddBytes reserves delta bytes, failing when MaxBytes would be exceeded.
func (s *Store) tryAddBytes(delta uint64) bool {
	if s.opts.MaxBytes == 0 {
		s.mBytes.Add(delta)
		return true
	}
	for {
		cur := s.mBytes.Load()
		next := cur + delta
		if next > s.opts.MaxBytes {
			return false
		}
		if s.mBytes.CompareAndSwap(cur, next) {
			return true
		}
	}
}

func (s *Store) subBytes(n int) {
	if n <= 0 {
		return
	}
	for {
		cur := s.mBytes.Load()
		next := uint64(0)
		if uint64(n) < cur {
			next = cur - uint64(n)
		}
		if s.mBytes.CompareAndSwap(cur, next) {
			return
		}
	}
}

// dropLocked removes key from sh; the shard lock must be held.
func (s *Store) dropLocked(sh *shard, key string, e *entry, expired bool) {
	delete(sh.m, key)
	s.mKeys.Add(^uint64(0))
	s.subBytes(len(e.val))
	if expired {
		s.mExpired.Add(1)
	} else {
		s.mDels.Add(1)
	}
}

// Set stores a copy of val under key. ttl <= 0 means no expiry.
func (s *Store) Set(key string, val []byte, ttl time.Duration) error {
	expAt := int64(0)
	if ttl > 0 {
		expAt = s.nowFn().Add(ttl).UnixNano()
	}
	v := append([]byte(nil), val...)

	sh := s.shardFor(key)
	sh.mu.Lock()
	prev, existed := sh.m[key]
	oldLen := 0
	if existed {
		oldLen = len(prev.val)
	}
	delta := len(v) - oldLen
	if delta > 0 && !s.tryAddBytes(uint64(delta)) {
		sh.mu.Unlock()
		return ErrLimitExceeded
	}
	sh.m[key] = &entry{val: v, expireAt: expAt}
	if !existed {
		s.mKeys.Add(1)
	} else if delta < 0 {
		s.subBytes(-delta)
	}
	s.mSets.Add(1)
	sh.mu.Unlock()

	if expAt != 0 {
		s.enqueueExpire(key, expAt)
	}
	return nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mGets.Add(1)
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.m[key]
	if !ok {
		sh.mu.RUnlock()
		s.mMisses.Add(1)
		return nil, false
	}
	now := s.nowFn().UnixNano()
	if e.expired(now) {
		sh.mu.RUnlock()
		sh.mu.Lock()
		if e2, ok2 := sh.m[key]; ok2 && e2.expired(now) {
			s.dropLocked(sh, key, e2, true)
		}
		sh.mu.Unlock()
		s.mMisses.Add(1)
		return nil, false
	}
	out := append([]byte(nil), e.val...)
	sh.mu.RUnlock()
	s.mHits.Add(1)
	return out, true
}

func (s *Store) Exists(key string) bool {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.m[key]
	return ok && !e.expired(s.nowFn().UnixNano())
}

// Delete removes key, reporting whether it was present.
func (s *Store) Delete(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.m[key]
	if ok {
		s.dropLocked(sh, key, e, false)
	}
	return ok
}

// Clear removes every key. Counters other than Keys and Bytes are kept.
func (s *Store) Clear() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, e := range sh.m {
			s.dropLocked(sh, k, e, false)
		}
		sh.mu.Unlock()
	}
}

// Len returns the number of live keys (expired keys not yet swept included).
func (s *Store) Len() int { return int(s.mKeys.Load()) }

// Stats is a point-in-time snapshot of the counters.
type Stats struct {
	Keys    uint64
	Bytes   uint64
	Sets    uint64
	Gets    uint64
	Hits    uint64
	Misses  uint64
	Dels    uint64
	Expired uint64
}

// Metrics reads the counters without blocking store operations.
func (s *Store) Metrics() Stats {
	return Stats{
		Keys:    s.mKeys.Load(),
		Bytes:   s.mBytes.Load(),
		Sets:    s.mSets.Load(),
		Gets:    s.mGets.Load(),
		Hits:    s.mHits.Load(),
		Misses:  s.mMisses.Load(),
		Dels:    s.mDels.Load(),
		Expired: s.mExpired.Load(),
	}
}

// sweep drops key if it is still expired at now.
func (s *Store) sweep(key string, now int64) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	if e, ok := sh.m[key]; ok && e.expired(now) {
		s.dropLocked(sh, key, e, true)
	}
	sh.mu.Unlock()
}

// Expiry queue: a min-heap on deadline. Entries are not removed when a key is
// overwritten; the sweep re-checks the live entry instead.

type expItem struct {
	when int64
	key  string
}

type expQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []expItem
}

func (q *expQueue) Len() int           { return len(q.items) }
func (q *expQueue) Less(i, j int) bool { return q.items[i].when < q.items[j].when }
func (q *expQueue) Swap(i, j int)      { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *expQueue) Push(x any)         { q.items = append(q.items, x.(expItem)) }
func (q *expQueue) Pop() any {
	n := len(q.items)
	it := q.items[n-1]
	q.items = q.items[:n-1]
	return it
}

func (s *Store) enqueueExpire(key string, when int64) {
	s.expq.mu.Lock()
	heap.Push(s.expq, expItem{when: when, key: key})
	earliest := s.expq.items[0].key == key && s.expq.items[0].when == when
	s.expq.cond.Broadcast()
	s.expq.mu.Unlock()
	if earliest {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (s *Store) expirer() {
	defer s.wg.Done()
	for {
		s.expq.mu.Lock()
		for s.expq.Len() == 0 {
			if s.isClosed() {
				s.expq.mu.Unlock()
				return
			}
			s.expq.cond.Wait()
		}
		if s.isClosed() {
			s.expq.mu.Unlock()
			return
		}
		it := s.expq.items[0]
		now := s.nowFn().UnixNano()
		if it.when > now {
			s.expq.mu.Unlock()
			timer := time.NewTimer(time.Duration(it.when - now))
			select {
			case <-timer.C:
			case <-s.wake:
				timer.Stop()
			case <-s.closeCh:
				timer.Stop()
				return
			}
			continue
		}
		heap.Pop(s.expq)
		s.expq.mu.Unlock()
		s.sweep(it.key, now)
	}
}

func (s *Store) isClosed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

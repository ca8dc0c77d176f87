// Package shardindex implements the bytes -> slot id lookup direction: a
// concurrent hash set sharded by the high bits of the byte-string's
// fingerprint so that most operations contend on only one shard.
//
// Each shard generalizes the single-map, RLock-probe/Lock-upgrade pattern
// of a plain symbol table (one global map[string]uint32 behind one
// sync.RWMutex) into an open-addressed table of (fingerprint, slot) pairs
// behind its own sync.RWMutex, so that interning a new symbol only ever
// contends with other goroutines whose bytes hash into the same shard.
package shardindex

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/Aidin1998/paracord/internal/fingerprint"
	"github.com/Aidin1998/paracord/internal/xerrors"
)

// emptySlot marks an unoccupied table entry. math.MaxUint32 is never handed
// out as a real slot id, so it doubles safely as the sentinel here.
const emptySlot = math.MaxUint32

const maxLoadFactor = 0.875

// ByteGetter fetches the committed bytes for a slot id, so entries can be
// compared by the bytes they reference instead of storing a copy per shard.
// internal/arena.Arena satisfies this.
type ByteGetter interface {
	Get(id uint32) ([]byte, bool)
}

type entry struct {
	fingerprint uint64
	slot        uint32
}

type shardT struct {
	mu       sync.RWMutex
	entries  []entry
	count    int
	poisoned bool
}

// Index is the sharded concurrent bytes -> slot id map.
type Index struct {
	shards    []*shardT
	shardBits uint
	mask      uint64
	arena     ByteGetter
	hasher    fingerprint.Hasher
	log       *zap.Logger

	onCollision func()
	onResize    func()
}

// Option configures New.
type Option func(*config)

type config struct {
	shardCount      int
	initialCapacity int
	hasher          fingerprint.Hasher
	logger          *zap.Logger
	onCollision     func()
	onResize        func()
}

// WithShardCount sets N; it is rounded up to the next power of two.
func WithShardCount(n int) Option {
	return func(c *config) { c.shardCount = n }
}

// WithInitialCapacity pre-sizes every shard's table.
func WithInitialCapacity(n int) Option {
	return func(c *config) { c.initialCapacity = n }
}

// WithHasher overrides the fingerprint hash.
func WithHasher(h fingerprint.Hasher) Option {
	return func(c *config) { c.hasher = h }
}

// WithLogger attaches a zap logger used to report shard growth and poison
// events. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCollisionObserver registers a callback invoked every time probeLocked
// finds two distinct byte-strings sharing a fingerprint within a shard.
func WithCollisionObserver(fn func()) Option {
	return func(c *config) { c.onCollision = fn }
}

// WithResizeObserver registers a callback invoked every time a shard's table
// grows.
func WithResizeObserver(fn func()) Option {
	return func(c *config) { c.onResize = fn }
}

// New builds a sharded index backed by arena for byte comparisons.
func New(arena ByteGetter, opts ...Option) *Index {
	cfg := config{
		shardCount:      defaultShardCount(),
		initialCapacity: 16,
		hasher:          fingerprint.Default,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	shardBits := log2Ceil(cfg.shardCount)
	n := 1 << shardBits
	tableCap := nextPow2(max(cfg.initialCapacity, 4))

	shards := make([]*shardT, n)
	for i := range shards {
		shards[i] = &shardT{entries: newTable(tableCap)}
	}

	return &Index{
		shards:      shards,
		shardBits:   shardBits,
		mask:        uint64(n - 1),
		arena:       arena,
		hasher:      cfg.hasher,
		log:         cfg.logger,
		onCollision: cfg.onCollision,
		onResize:    cfg.onResize,
	}
}

func defaultShardCount() int {
	// Kept as a plain constant here to avoid pulling runtime scheduling
	// policy into a data-structure constructor; the facade's own default
	// scales this with GOMAXPROCS before WithShardCount ever reaches here.
	return 16
}

// Fingerprint hashes bytes with the index's configured hasher.
func (x *Index) Fingerprint(b []byte) uint64 { return x.hasher.Sum64(b) }

func (x *Index) shardFor(fp uint64) *shardT {
	idx := fingerprint.Shard(fp, x.shardBits) & x.mask
	return x.shards[idx]
}

// Find looks up bytes without mutating any state. A poisoned shard fails
// deterministically with ErrPoisoned instead of serving a probe against
// possibly-corrupt table state.
func (x *Index) Find(b []byte, fp uint64) (slot uint32, ok bool, err error) {
	s := x.shardFor(fp)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return 0, false, xerrors.ErrPoisoned
	}
	slot, ok = x.probeLocked(s, b, fp)
	return slot, ok, nil
}

// InsertOrFind returns the existing slot for b if present. Otherwise it
// calls commit to allocate a fresh slot (typically arena.Push) and publishes
// it in the shard. The shard is re-probed under the write lock before commit
// is called, so if two goroutines race on the same bytes only the first to
// take the write lock commits; the other finds the published entry on its
// re-probe, returns the winner's slot, and never calls commit.
//
// A panic anywhere in the write-locked section (commit, table growth, or the
// insert itself) is recovered, marks the shard poisoned, and surfaces as
// ErrAllocationFailure; every subsequent call on that shard then fails fast
// with ErrPoisoned instead of touching the table again.
func (x *Index) InsertOrFind(b []byte, fp uint64, commit func() (uint32, error)) (slot uint32, err error) {
	s := x.shardFor(fp)

	s.mu.RLock()
	if s.poisoned {
		s.mu.RUnlock()
		return 0, xerrors.ErrPoisoned
	}
	if existing, ok := x.probeLocked(s, b, fp); ok {
		s.mu.RUnlock()
		return existing, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			x.log.Error("shard insert panicked, shard poisoned", zap.Any("recovered", r))
			err = fmt.Errorf("%w: %v", xerrors.ErrAllocationFailure, r)
		}
	}()

	if s.poisoned {
		return 0, xerrors.ErrPoisoned
	}
	if existing, ok := x.probeLocked(s, b, fp); ok {
		return existing, nil
	}

	newSlot, cerr := commit()
	if cerr != nil {
		s.poisoned = true
		x.log.Error("shard commit failed, shard poisoned", zap.Error(cerr))
		return 0, cerr
	}

	x.insertLocked(s, fp, newSlot)
	return newSlot, nil
}

// probeLocked assumes the caller holds either s.mu's read or write lock.
func (x *Index) probeLocked(s *shardT, b []byte, fp uint64) (uint32, bool) {
	n := len(s.entries)
	i := int(fp) & (n - 1)
	start := i
	for {
		e := s.entries[i]
		if e.slot == emptySlot {
			return 0, false
		}
		if e.fingerprint == fp {
			stored, ok := x.arena.Get(e.slot)
			if ok && bytes.Equal(stored, b) {
				return e.slot, true
			}
			if ok && x.onCollision != nil {
				x.onCollision()
			}
		}
		i++
		if i == n {
			i = 0
		}
		if i == start {
			return 0, false
		}
	}
}

// insertLocked assumes the caller holds s.mu for writing and that fp/slot is
// not already present (checked by the caller's re-probe).
func (x *Index) insertLocked(s *shardT, fp uint64, slot uint32) {
	x.growIfNeeded(s)

	n := len(s.entries)
	i := int(fp) & (n - 1)
	for s.entries[i].slot != emptySlot {
		i++
		if i == n {
			i = 0
		}
	}
	s.entries[i] = entry{fingerprint: fp, slot: slot}
	s.count++
}

// growIfNeeded assumes the caller holds s.mu for writing.
func (x *Index) growIfNeeded(s *shardT) {
	if float64(s.count+1) < float64(len(s.entries))*maxLoadFactor {
		return
	}
	oldCap := len(s.entries)
	old := s.entries
	s.entries = newTable(oldCap * 2)
	for _, e := range old {
		if e.slot == emptySlot {
			continue
		}
		n := len(s.entries)
		i := int(e.fingerprint) & (n - 1)
		for s.entries[i].slot != emptySlot {
			i++
			if i == n {
				i = 0
			}
		}
		s.entries[i] = e
	}

	x.log.Debug("shard table resized", zap.Int("old_cap", oldCap), zap.Int("new_cap", len(s.entries)))
	if x.onResize != nil {
		x.onResize()
	}
}

func newTable(cap int) []entry {
	t := make([]entry, cap)
	for i := range t {
		t[i].slot = emptySlot
	}
	return t
}

func log2Ceil(n int) uint {
	if n < 1 {
		n = 1
	}
	var bits uint
	for (1 << bits) < n {
		bits++
	}
	return bits
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

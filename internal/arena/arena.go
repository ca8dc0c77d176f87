// Package arena implements the storage arena described by the interner's
// design: an append-only, pointer-stable container of byte-strings, indexed
// by a dense 32-bit slot id, that supports wait-free reads of any already
// committed slot while writers keep extending it.
//
// The index from slot id to bytes is a "boxcar" vector: 32 lazily allocated
// buckets sized 1, 2, 4, ... 2^31, published with atomic.Pointer so that a
// reader never observes a bucket move or reallocate. The bytes themselves
// live in geometrically growing slab buffers copied under a single append
// lock, generalized here to survive concurrent pushes and to poison itself
// on panic mid-append.
package arena

import (
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Aidin1998/paracord/internal/xerrors"
)

// maxSlot is the largest slot id ever issued. Slot id math.MaxUint32 is
// never used so that the handle encoding slot_id+1 remains a representable
// non-zero uint32.
const maxSlot = math.MaxUint32 - 1

const initialSlabSize = 4096

const numBuckets = 32

type ref struct {
	data []byte
}

// Arena is a concurrent, append-only, pointer-stable byte-string store.
type Arena struct {
	appendMu sync.Mutex
	current  []byte

	buckets [numBuckets]atomic.Pointer[[]ref]
	length  atomic.Uint32
	poison  atomic.Bool

	log *zap.Logger
}

// Option configures New.
type Option func(*Arena)

// WithLogger attaches a zap logger used to report slab rollover and poison
// events. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Arena) {
		if l != nil {
			a.log = l
		}
	}
}

// New returns an empty arena.
func New(opts ...Option) *Arena {
	a := &Arena{log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Len returns the number of committed slots. Safe for concurrent readers.
func (a *Arena) Len() uint32 { return a.length.Load() }

// IsEmpty reports whether no slot has been committed yet.
func (a *Arena) IsEmpty() bool { return a.Len() == 0 }

// Get returns the stable bytes for a committed slot id. ok is false if id is
// not yet (or never was) committed.
func (a *Arena) Get(id uint32) (b []byte, ok bool) {
	if id >= a.Len() {
		return nil, false
	}
	bucket, _, offset := bucketFor(id)
	bp := a.buckets[bucket].Load()
	if bp == nil {
		// A writer published length before this bucket became visible to us;
		// the acquire on a.length above already establishes happens-before,
		// so in practice this branch is unreachable, but guard against it
		// rather than index out of range.
		return nil, false
	}
	return (*bp)[offset].data, true
}

// Push copies bytes into stable storage and returns its newly assigned dense
// slot id. Concurrent pushes are serialized on a single append lock; the
// critical section is a memcopy plus a slice index write, not a full hash
// table operation, so contention stays cheap.
func (a *Arena) Push(b []byte) (id uint32, err error) {
	a.appendMu.Lock()
	defer a.appendMu.Unlock()

	if a.poison.Load() {
		return 0, xerrors.ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			a.poison.Store(true)
			a.log.Error("arena push panicked, arena poisoned", zap.Any("recovered", r))
			err = fmt.Errorf("%w: %v", xerrors.ErrAllocationFailure, r)
		}
	}()

	id = a.length.Load()
	if id > maxSlot {
		return 0, xerrors.ErrOutOfSpace
	}

	dst := a.reserve(len(b))
	copy(dst, b)

	bucket, capacity, offset := bucketFor(id)
	bp := a.buckets[bucket].Load()
	if bp == nil {
		nb := make([]ref, capacity)
		a.buckets[bucket].Store(&nb)
		bp = &nb
	}
	(*bp)[offset] = ref{data: dst}

	// Publish last: readers gate every access on this atomic store, so no
	// reader can observe the bucket slot before its bytes are written.
	a.length.Store(id + 1)
	return id, nil
}

// reserve returns n contiguous, zeroed bytes from the current slab,
// allocating a new (larger) slab if the current one has no room. Backing
// slabs are never reallocated in place, so any slice previously carved out
// of one keeps a stable address for the arena's lifetime.
func (a *Arena) reserve(n int) []byte {
	if a.current == nil || len(a.current)+n > cap(a.current) {
		oldCap := cap(a.current)
		newCap := initialSlabSize
		if a.current != nil {
			newCap = cap(a.current) * 2
		}
		for newCap < n {
			newCap *= 2
		}
		a.current = make([]byte, 0, newCap)
		a.log.Debug("arena slab rollover", zap.Int("old_cap", oldCap), zap.Int("new_cap", newCap))
	}
	start := len(a.current)
	a.current = a.current[:start+n]
	return a.current[start : start+n]
}

// bucketFor maps a dense slot id to its (bucket, bucket capacity, offset
// within bucket) triple in the boxcar scheme: bucket b holds slot ids
// [2^b-1, 2^(b+1)-2].
func bucketFor(id uint32) (bucket int, capacity int, offset uint32) {
	i := uint64(id) + 1
	bucket = bits.Len64(i) - 1
	capacity = 1 << uint(bucket)
	offset = uint32(i) - uint32(capacity)
	return bucket, capacity, offset
}

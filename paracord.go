// Package paracord implements a concurrent string/byte-string interner: a
// bidirectional mapping between arbitrary byte-strings and dense uint32
// handles, safe for simultaneous readers and writers, with pointer-stable
// storage so a resolved []byte stays valid for the Interner's lifetime.
package paracord

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/Aidin1998/paracord/internal/arena"
	"github.com/Aidin1998/paracord/internal/shardindex"
)

// Interner is a concurrent byte-string interner. The zero value is not
// usable; construct one with New.
type Interner struct {
	arena   *arena.Arena
	index   *shardindex.Index
	log     *zap.Logger
	metrics *metrics
}

// New builds an empty Interner.
func New(opts ...Option) *Interner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	a := arena.New(arena.WithLogger(cfg.logger))

	in := &Interner{
		arena: a,
		log:   cfg.logger,
	}

	shardOpts := append(cfg.shardIndexOptions(), shardindex.WithLogger(cfg.logger))
	if cfg.registerer != nil {
		in.metrics = newMetrics(cfg.registerer, func() float64 { return float64(in.Len()) })
		shardOpts = append(shardOpts,
			shardindex.WithCollisionObserver(func() { in.metrics.collisionsTotal.Inc() }),
			shardindex.WithResizeObserver(func() { in.metrics.shardResizeTotal.Inc() }),
		)
	}
	in.index = shardindex.New(a, shardOpts...)

	return in
}

// Intern returns the Key for b, allocating a new slot and copying b into
// stable storage if it has not been seen before. It is safe to call from any
// number of goroutines concurrently.
func (in *Interner) Intern(b []byte) (Key, error) {
	if in.metrics != nil {
		start := time.Now()
		defer func() { in.metrics.internDuration.Observe(time.Since(start).Seconds()) }()
		in.metrics.internTotal.Inc()
	}

	fp := in.index.Fingerprint(b)
	isNew := false
	slot, err := in.index.InsertOrFind(b, fp, func() (uint32, error) {
		isNew = true
		return in.arena.Push(b)
	})
	if err != nil {
		if in.metrics != nil {
			in.metrics.internErrors.WithLabelValues(errorReason(err)).Inc()
		}
		in.log.Error("intern failed", zap.Error(err), zap.Int("len", len(b)))
		return invalidKey, err
	}
	if isNew && in.metrics != nil {
		in.metrics.internNewTotal.Inc()
	}
	return encodeKey(slot), nil
}

// TryGet returns the Key already assigned to b without interning it. ok is
// false if b has never been interned on this Interner, and also false if the
// owning shard is poisoned: a poisoned shard fails closed rather than
// serving a lookup against state left inconsistent by a prior panic.
func (in *Interner) TryGet(b []byte) (Key, bool) {
	fp := in.index.Fingerprint(b)
	slot, ok, err := in.index.Find(b, fp)
	if err != nil {
		in.log.Warn("try_get on poisoned shard", zap.Error(err))
		return invalidKey, false
	}
	if !ok {
		return invalidKey, false
	}
	return encodeKey(slot), true
}

// Resolve returns the bytes interned under k. The returned slice aliases
// stable arena storage and must not be mutated by the caller.
func (in *Interner) Resolve(k Key) ([]byte, error) {
	id, ok := k.slot()
	if !ok {
		return nil, fmt.Errorf("%w: invalid key", ErrContractViolation)
	}
	b, ok := in.arena.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: key out of range", ErrContractViolation)
	}
	return b, nil
}

// Len returns the number of distinct byte-strings interned so far.
func (in *Interner) Len() uint32 { return in.arena.Len() }

// IsEmpty reports whether no byte-string has been interned yet.
func (in *Interner) IsEmpty() bool { return in.arena.IsEmpty() }

// Iter returns a single-use iterator over every (Key, bytes) pair committed
// at the moment Iter is called. It is a snapshot of the length at call
// time: entries interned afterward, by this or another goroutine, are not
// visited, and entries already present are visited even if Resolve on their
// Key would race with a concurrent Intern of unrelated bytes.
func (in *Interner) Iter() iter.Seq2[Key, []byte] {
	n := in.Len()
	return func(yield func(Key, []byte) bool) {
		for id := uint32(0); id < n; id++ {
			b, ok := in.arena.Get(id)
			if !ok {
				return
			}
			if !yield(encodeKey(id), b) {
				return
			}
		}
	}
}

func errorReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfSpace):
		return "out_of_space"
	case errors.Is(err, ErrPoisoned):
		return "poisoned"
	case errors.Is(err, ErrAllocationFailure):
		return "allocation_failure"
	default:
		return "unknown"
	}
}

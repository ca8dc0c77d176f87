// Package fingerprint computes the 64-bit hash used by the sharded index for
// shard selection and intra-shard probing. The hash is a tuning knob, never a
// correctness knob: collisions are always resolved by a byte comparison
// against the arena, so any fast, well-distributed hash works.
package fingerprint

import "github.com/cespare/xxhash/v2"

// Hasher computes a 64-bit fingerprint for a byte-string. Implementations
// must be deterministic for the lifetime of the interner instance that uses
// them; they need not be deterministic across processes or instances.
type Hasher interface {
	Sum64(b []byte) uint64
}

// Default is the fingerprint hash used when a caller does not supply one via
// paracord.WithHasher.
var Default Hasher = xxhashHasher{}

type xxhashHasher struct{}

func (xxhashHasher) Sum64(b []byte) uint64 { return xxhash.Sum64(b) }

// Shard returns the shard index for a fingerprint given shardBits = log2(N).
// It uses the high bits of the fingerprint so that shard selection and the
// low-bit intra-shard probe (see internal/shardindex) draw from disjoint,
// uncorrelated bit ranges of the same hash.
func Shard(fp uint64, shardBits uint) uint64 {
	if shardBits == 0 {
		return 0
	}
	return fp >> (64 - shardBits)
}

// Package xerrors holds the small, shared error taxonomy used by the arena
// and shard index. It exists so both internal packages, and the public
// paracord package that re-exports these values, can compare errors with
// errors.Is without an import cycle back through the root package.
package xerrors

import "errors"

var (
	// ErrOutOfSpace means the 32-bit slot id space is exhausted.
	ErrOutOfSpace = errors.New("paracord: slot id space exhausted")

	// ErrContractViolation means a handle decoded to a slot id outside
	// [0, len) of the instance it was resolved against.
	ErrContractViolation = errors.New("paracord: handle does not belong to this interner")

	// ErrAllocationFailure wraps a panic recovered while appending to the
	// arena or committing a new entry into a shard.
	ErrAllocationFailure = errors.New("paracord: allocation failure")

	// ErrPoisoned means a previous operation aborted while holding a
	// mutating lock; the affected shard or arena refuses further writes.
	ErrPoisoned = errors.New("paracord: poisoned after a prior failed write")
)

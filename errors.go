package paracord

import "github.com/Aidin1998/paracord/internal/xerrors"

// The interner's error taxonomy is intentionally small. All four are plain
// sentinel errors so callers can compare with errors.Is; they are defined
// once in internal/xerrors and re-exported here so the internal arena and
// shard index packages can return them without importing this package
// (which would create an import cycle, since this package imports them).
var (
	// ErrOutOfSpace is returned by Intern when the 32-bit slot id space is
	// exhausted.
	ErrOutOfSpace = xerrors.ErrOutOfSpace

	// ErrContractViolation is returned by Resolve when the handle decodes to
	// a slot id outside [0, Len()) of this instance. A handle borrowed from a
	// different instance is not guaranteed to be detected.
	ErrContractViolation = xerrors.ErrContractViolation

	// ErrAllocationFailure wraps a panic recovered from the arena append
	// path or a shard's commit callback.
	ErrAllocationFailure = xerrors.ErrAllocationFailure

	// ErrPoisoned is returned by Intern when a prior operation aborted while
	// holding the write lock of the shard or the arena it needs. TryGet
	// reports a poisoned shard as absent instead; Resolve, Len, IsEmpty and
	// Iter do not check for poisoning.
	ErrPoisoned = xerrors.ErrPoisoned
)

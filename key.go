package paracord

import "fmt"

// Key is the opaque handle returned for an interned byte-string. It carries
// the underlying slot id encoded as slot_id+1 so that the zero value of Key
// is never returned by Intern and can double as an "absent" sentinel for
// callers that want an optional Key without reaching for a pointer or a
// second bool — the same niche-optimization trade-off the Rust original
// documents for its NonZeroU32-backed Key.
//
// A Key carries no reference back to the Interner that produced it. Resolving
// it against a different instance, or one that has since been dropped, is a
// contract violation the core does not guard against beyond a bounds check.
type Key uint32

// invalidKey is the zero value: no slot id ever encodes to it.
const invalidKey Key = 0

func encodeKey(slot uint32) Key { return Key(slot + 1) }

// slot decodes the Key back to its slot id. ok is false for the zero Key.
func (k Key) slot() (id uint32, ok bool) {
	if k == invalidKey {
		return 0, false
	}
	return uint32(k) - 1, true
}

// Valid reports whether k could have been returned by Intern, i.e. is not
// the zero value.
func (k Key) Valid() bool { return k != invalidKey }

// Uint32 returns the stable wire encoding (slot_id+1) of the key. It is only
// meaningful when interpreted against the same Interner instance that
// produced it.
func (k Key) Uint32() uint32 { return uint32(k) }

// KeyFromUint32 reconstructs a Key from its wire encoding. It performs no
// validation against any particular Interner; Resolve reports
// ErrContractViolation for encodings out of range.
func KeyFromUint32(v uint32) Key { return Key(v) }

// String implements fmt.Stringer for debugging; it does not resolve bytes.
func (k Key) String() string {
	if !k.Valid() {
		return "paracord.Key(invalid)"
	}
	id, _ := k.slot()
	return fmt.Sprintf("paracord.Key(%d)", id)
}

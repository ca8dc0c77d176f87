package paracord

import "sync"

var (
	defaultOnce sync.Once
	defaultInst *Interner
)

// Default returns the process-wide Interner, constructing it on first use
// with New()'s defaults. Every call returns the same instance.
func Default() *Interner {
	defaultOnce.Do(func() { defaultInst = New() })
	return defaultInst
}

// Intern interns b against the process-wide default Interner.
func Intern(b []byte) (Key, error) { return Default().Intern(b) }

// TryGet looks up b against the process-wide default Interner.
func TryGet(b []byte) (Key, bool) { return Default().TryGet(b) }

// Resolve resolves k against the process-wide default Interner.
func Resolve(k Key) ([]byte, error) { return Default().Resolve(k) }

// Len returns the size of the process-wide default Interner.
func Len() uint32 { return Default().Len() }

// IsEmpty reports whether the process-wide default Interner has interned
// anything yet.
func IsEmpty() bool { return Default().IsEmpty() }

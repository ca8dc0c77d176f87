package paracord

// StringInterner wraps an Interner with a UTF-8 string facade, for callers
// who never touch raw bytes. It allocates one conversion per call the same
// way bytes<->string round trips always do in Go; the underlying storage is
// still shared, pointer-stable bytes.
type StringInterner struct {
	inner *Interner
}

// NewStrings builds an empty StringInterner.
func NewStrings(opts ...Option) *StringInterner {
	return &StringInterner{inner: New(opts...)}
}

// Intern returns the Key for s, allocating a new slot if s has not been seen
// before.
func (si *StringInterner) Intern(s string) (Key, error) {
	return si.inner.Intern([]byte(s))
}

// TryGet returns the Key already assigned to s without interning it.
func (si *StringInterner) TryGet(s string) (Key, bool) {
	return si.inner.TryGet([]byte(s))
}

// Resolve returns the string interned under k.
func (si *StringInterner) Resolve(k Key) (string, error) {
	b, err := si.inner.Resolve(k)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Len returns the number of distinct strings interned so far.
func (si *StringInterner) Len() uint32 { return si.inner.Len() }

// IsEmpty reports whether no string has been interned yet.
func (si *StringInterner) IsEmpty() bool { return si.inner.IsEmpty() }

// Iter returns a single-use iterator over every (Key, string) pair
// committed at the moment Iter is called, with the same snapshot semantics
// as Interner.Iter.
func (si *StringInterner) Iter() func(yield func(Key, string) bool) {
	seq := si.inner.Iter()
	return func(yield func(Key, string) bool) {
		for k, b := range seq {
			if !yield(k, string(b)) {
				return
			}
		}
	}
}

// Bytes returns the underlying byte-string Interner, for callers that need
// to mix string and []byte access against the same storage.
func (si *StringInterner) Bytes() *Interner { return si.inner }

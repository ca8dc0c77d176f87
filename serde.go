package paracord

import (
	"encoding/json"
	"fmt"
)

// DefaultKey is a Key bound to the process-wide default Interner. It exists
// so a struct field can carry an interned string through JSON the way a
// plain string field would, without the caller threading an *Interner
// through every marshal/unmarshal call site. This is the Go counterpart of
// the Rust original's custom_key! macro: Go has no macro system to generate
// a family of such types, so there is exactly one, DefaultKey, tied to
// Default().
type DefaultKey struct {
	Key
}

// NewDefaultKey interns s against the default Interner.
func NewDefaultKey(s string) (DefaultKey, error) {
	k, err := Intern([]byte(s))
	if err != nil {
		return DefaultKey{}, err
	}
	return DefaultKey{Key: k}, nil
}

// MarshalJSON encodes the key as the string it resolves to, not as its
// numeric handle, so the JSON representation is stable across processes and
// across reinterning order.
func (k DefaultKey) MarshalJSON() ([]byte, error) {
	b, err := Resolve(k.Key)
	if err != nil {
		return nil, fmt.Errorf("paracord: marshal DefaultKey: %w", err)
	}
	return json.Marshal(string(b))
}

// UnmarshalJSON interns the decoded string against the default Interner.
func (k *DefaultKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	nk, err := Intern([]byte(s))
	if err != nil {
		return fmt.Errorf("paracord: unmarshal DefaultKey: %w", err)
	}
	k.Key = nk
	return nil
}

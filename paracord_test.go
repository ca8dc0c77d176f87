package paracord

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternGetResolve(t *testing.T) {
	in := New()
	require.True(t, in.IsEmpty())

	k1, err := in.Intern([]byte("apple"))
	require.NoError(t, err)
	require.True(t, k1.Valid())

	k2, err := in.Intern([]byte("banana"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	k1Again, err := in.Intern([]byte("apple"))
	require.NoError(t, err)
	assert.Equal(t, k1, k1Again)

	assert.Equal(t, uint32(2), in.Len())
	assert.False(t, in.IsEmpty())

	got, ok := in.TryGet([]byte("apple"))
	require.True(t, ok)
	assert.Equal(t, k1, got)

	_, ok = in.TryGet([]byte("cherry"))
	assert.False(t, ok)

	b, err := in.Resolve(k1)
	require.NoError(t, err)
	assert.Equal(t, "apple", string(b))

	b, err = in.Resolve(k2)
	require.NoError(t, err)
	assert.Equal(t, "banana", string(b))
}

func TestResolveOutOfRangeIsContractViolation(t *testing.T) {
	in := New()
	_, err := in.Intern([]byte("only"))
	require.NoError(t, err)

	bogus := KeyFromUint32(9999)
	_, err = in.Resolve(bogus)
	require.ErrorIs(t, err, ErrContractViolation)
}

func TestResolveZeroKeyIsContractViolation(t *testing.T) {
	in := New()
	var zero Key
	_, err := in.Resolve(zero)
	require.ErrorIs(t, err, ErrContractViolation)
}

func TestIterVisitsEverythingInsertedSoFar(t *testing.T) {
	in := New()
	want := map[Key]string{}
	for _, w := range []string{"one", "two", "three", "four"} {
		k, err := in.Intern([]byte(w))
		require.NoError(t, err)
		want[k] = w
	}

	got := map[Key]string{}
	for k, b := range in.Iter() {
		got[k] = string(b)
	}
	assert.Equal(t, want, got)
}

func TestIterCanStopEarly(t *testing.T) {
	in := New()
	for _, w := range []string{"a", "b", "c", "d", "e"} {
		_, err := in.Intern([]byte(w))
		require.NoError(t, err)
	}

	count := 0
	for range in.Iter() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestInternThreadedRacyDedup(t *testing.T) {
	in := New()
	const goroutines = 100

	var start sync.WaitGroup
	var wg sync.WaitGroup
	start.Add(1)
	keys := make([]Key, goroutines)
	for g := 0; g < goroutines; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			start.Wait()
			k, err := in.Intern([]byte("racy"))
			require.NoError(t, err)
			keys[g] = k
		}()
	}
	start.Done()
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, keys[0], k)
	}
	assert.Equal(t, uint32(1), in.Len())
}

func TestStringInterner(t *testing.T) {
	si := NewStrings()
	k, err := si.Intern("hello")
	require.NoError(t, err)

	s, err := si.Resolve(k)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	got, ok := si.TryGet("hello")
	require.True(t, ok)
	assert.Equal(t, k, got)

	assert.Equal(t, uint32(1), si.Len())
}

func TestDefaultKeyJSONRoundTrip(t *testing.T) {
	k, err := NewDefaultKey("round-trip-me")
	require.NoError(t, err)

	data, err := k.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"round-trip-me"`, string(data))

	var k2 DefaultKey
	require.NoError(t, k2.UnmarshalJSON(data))
	assert.Equal(t, k.Key, k2.Key)
}

func TestGlobalConvenienceFuncs(t *testing.T) {
	k, err := Intern([]byte("global-value"))
	require.NoError(t, err)

	b, err := Resolve(k)
	require.NoError(t, err)
	assert.Equal(t, "global-value", string(b))

	got, ok := TryGet([]byte("global-value"))
	require.True(t, ok)
	assert.Equal(t, k, got)
}

package shardindex

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aidin1998/paracord/internal/fingerprint"
	"github.com/Aidin1998/paracord/internal/xerrors"
)

// fakeArena is a minimal ByteGetter backing store for index tests, so these
// tests don't depend on internal/arena.
type fakeArena struct {
	mu   sync.Mutex
	data [][]byte
}

func (f *fakeArena) push(b []byte) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), b...)
	f.data = append(f.data, cp)
	return uint32(len(f.data) - 1)
}

func (f *fakeArena) Get(id uint32) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(id) >= len(f.data) {
		return nil, false
	}
	return f.data[id], true
}

func TestInsertOrFindDedupes(t *testing.T) {
	a := &fakeArena{}
	x := New(a, WithShardCount(4))

	fp := fingerprint.Default.Sum64([]byte("hello"))
	slot1, err := x.InsertOrFind([]byte("hello"), fp, func() (uint32, error) {
		return a.push([]byte("hello")), nil
	})
	require.NoError(t, err)

	slot2, err := x.InsertOrFind([]byte("hello"), fp, func() (uint32, error) {
		t.Fatal("commit should not be called for an already-present entry")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, slot1, slot2)
}

func TestFindMiss(t *testing.T) {
	a := &fakeArena{}
	x := New(a, WithShardCount(4))
	_, ok, err := x.Find([]byte("absent"), fingerprint.Default.Sum64([]byte("absent")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindOnPoisonedShardFailsDeterministically(t *testing.T) {
	a := &fakeArena{}
	x := New(a, WithShardCount(1))

	b := []byte("doomed")
	fp := x.Fingerprint(b)
	_, err := x.InsertOrFind(b, fp, func() (uint32, error) {
		return 0, assert.AnError
	})
	require.Error(t, err)

	_, ok, err := x.Find(b, fp)
	require.ErrorIs(t, err, xerrors.ErrPoisoned)
	require.False(t, ok)

	_, err = x.InsertOrFind(b, fp, func() (uint32, error) {
		return a.push(b), nil
	})
	require.ErrorIs(t, err, xerrors.ErrPoisoned)
}

func TestGrowsAcrossLoadFactor(t *testing.T) {
	a := &fakeArena{}
	x := New(a, WithShardCount(1), WithInitialCapacity(4))

	for i := 0; i < 500; i++ {
		b := []byte{byte(i), byte(i >> 8)}
		fp := x.Fingerprint(b)
		_, err := x.InsertOrFind(b, fp, func() (uint32, error) {
			return a.push(b), nil
		})
		require.NoError(t, err)
	}

	for i := 0; i < 500; i++ {
		b := []byte{byte(i), byte(i >> 8)}
		_, ok, err := x.Find(b, x.Fingerprint(b))
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestInsertOrFindPanicPoisonsShard(t *testing.T) {
	a := &fakeArena{}
	x := New(a, WithShardCount(1))

	b := []byte("panics")
	fp := x.Fingerprint(b)

	_, err := x.InsertOrFind(b, fp, func() (uint32, error) {
		panic("boom")
	})
	require.ErrorIs(t, err, xerrors.ErrAllocationFailure)

	_, ok, err := x.Find(b, fp)
	require.ErrorIs(t, err, xerrors.ErrPoisoned)
	require.False(t, ok)
}

func TestInsertOrFindConcurrentRacyDedup(t *testing.T) {
	a := &fakeArena{}
	x := New(a, WithShardCount(8))

	const goroutines = 64
	b := []byte("contended-key")
	fp := x.Fingerprint(b)

	var wg sync.WaitGroup
	var commits atomic.Int32
	slots := make([]uint32, goroutines)
	for g := 0; g < goroutines; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot, err := x.InsertOrFind(b, fp, func() (uint32, error) {
				commits.Add(1)
				return a.push(b), nil
			})
			require.NoError(t, err)
			slots[g] = slot
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), commits.Load(), "only one goroutine should commit a new slot")
	for _, s := range slots {
		assert.Equal(t, slots[0], s)
	}
}

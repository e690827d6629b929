package locks

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockForReturnsSameMutexUnderRace(t *testing.T) {
	r := NewRegistry()
	const n = 64
	got := make([]*sync.Mutex, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.LockFor(ProductKey("p1"))
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, got[0], got[i])
	}
	assert.Equal(t, 1, r.Len())
}

func TestAcquireSortsAndDedupes(t *testing.T) {
	r := NewRegistry()
	h := r.Acquire(WalletKey("alice"), ProductKey("p2"), CartKey("alice"), ProductKey("p2"), ProductKey("p1"))
	defer h.Release()

	assert.Equal(t, []string{"cart:alice", "product:p1", "product:p2", "wallet:alice"}, h.Keys())
	assert.True(t, h.Holds(ProductKey("p1")))
	assert.False(t, h.Holds(ProductKey("p3")))
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	h := r.Acquire(ProductKey("p1"))
	h.Release()
	assert.NotPanics(t, h.Release)

	// the key is free again
	h2 := r.Acquire(ProductKey("p1"))
	h2.Release()
}

func TestExtendKeepsGlobalOrder(t *testing.T) {
	r := NewRegistry()
	h := r.Acquire(CartKey("alice"))
	defer h.Release()

	require.NoError(t, h.Extend(WalletKey("alice"), ProductKey("p1"), CartKey("alice")))
	assert.Equal(t, []string{"cart:alice", "product:p1", "wallet:alice"}, h.Keys())

	assert.ErrorIs(t, h.Extend(ProductKey("p0")), ErrOutOfOrder)
	assert.Len(t, h.Keys(), 3)
}

func TestExtendAfterRelease(t *testing.T) {
	r := NewRegistry()
	h := r.Acquire(CartKey("alice"))
	h.Release()
	assert.Error(t, h.Extend(WalletKey("alice")))
}

func TestAcquireIsMutuallyExclusive(t *testing.T) {
	r := NewRegistry()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := r.Acquire(ProductKey("p1"), WalletKey("alice"))
			defer h.Release()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestOpposingKeyOrdersDoNotDeadlock(t *testing.T) {
	r := NewRegistry()
	keys := []string{ProductKey("a"), ProductKey("b"), ProductKey("c"), WalletKey("u")}
	reversed := []string{WalletKey("u"), ProductKey("c"), ProductKey("b"), ProductKey("a")}

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				set := keys
				if i%2 == 1 {
					set = reversed
				}
				h := r.Acquire(set...)
				h.Release()
			}(i)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("acquisitions did not complete; possible deadlock")
	}
}

package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)

	require.NoError(t, m.Put(ctx, "k1", orders.Order{ID: "o1"}))
	require.NoError(t, m.Put(ctx, "k1", orders.Order{ID: "o2"}))

	got, ok, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "o1", got.ID)

	_, ok, err = m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)
	o := orders.Order{ID: "o1", Items: []orders.LineItem{{ProductID: "p1"}}}
	require.NoError(t, m.Put(ctx, "k1", o))

	o.Items[0].ProductID = "changed"
	got, _, _ := m.Get(ctx, "k1")
	got.Items[0].ProductID = "changed-again"

	again, _, _ := m.Get(ctx, "k1")
	assert.Equal(t, "p1", again.Items[0].ProductID)
}

func TestMemoryBoundedEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)
	require.NoError(t, m.Put(ctx, "a", orders.Order{ID: "oa"}))
	require.NoError(t, m.Put(ctx, "b", orders.Order{ID: "ob"}))
	require.NoError(t, m.Put(ctx, "c", orders.Order{ID: "oc"}))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryTTLExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 20*time.Millisecond)
	require.NoError(t, m.Put(ctx, "a", orders.Order{ID: "oa"}))

	assert.Eventually(t, func() bool {
		_, ok, _ := m.Get(ctx, "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)
	require.NoError(t, m.Put(ctx, "a", orders.Order{ID: "oa"}))
	require.NoError(t, m.Reset(ctx))
	assert.Equal(t, 0, m.Len())
}

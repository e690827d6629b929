package engine

import (
	"context"
	"math"
	"testing"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddMergesAndRemoves(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p1 := mustProduct(t, e, "P1", 100, 5)
	p2 := mustProduct(t, e, "P2", 250, 5)

	_, err := e.AddToCart(ctx, "alice", p1.ID, 1)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "alice", p2.ID, 2)
	require.NoError(t, err)
	c, err := e.AddToCart(ctx, "alice", p1.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []orders.CartItem{{ProductID: p1.ID, Quantity: 3}, {ProductID: p2.ID, Quantity: 2}}, c.Items)

	c, err = e.RemoveFromCart(ctx, "alice", p1.ID, intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quantity(p1.ID))

	c, err = e.RemoveFromCart(ctx, "alice", p2.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, c.Quantity(p2.ID))

	c, err = e.RemoveFromCart(ctx, "alice", "not-in-cart", nil)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	_, err = e.RemoveFromCart(ctx, "alice", p1.ID, intPtr(0))
	assert.ErrorIs(t, err, ErrValidation)

	view := e.ViewCart(ctx, "alice")
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(200), view.TotalCents)
	assert.True(t, view.Items[0].Available)
}

func TestCartAddRejectsBadInput(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := mustProduct(t, e, "P1", 100, 5)

	_, err := e.AddToCart(ctx, "alice", p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.AddToCart(ctx, "alice", "ghost", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.AddToCart(ctx, "", p.ID, 1)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, e.ViewCart(ctx, "alice").Items)
}

func TestCartAddRejectsQuantityOverflow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := mustProduct(t, e, "P1", 100, 5)

	_, err := e.AddToCart(ctx, "alice", p.ID, math.MaxInt)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "alice", p.ID, 1)
	assert.ErrorIs(t, err, ErrValidation)

	c := e.Store().Cart("alice")
	require.Len(t, c.Items, 1)
	assert.Equal(t, math.MaxInt, c.Items[0].Quantity)
}

func TestViewCartTotalDoesNotWrap(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p1 := mustProduct(t, e, "P1", 100, 5)
	p2 := mustProduct(t, e, "P2", 1, 5)

	_, err := e.AddToCart(ctx, "alice", p1.ID, math.MaxInt)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "alice", p2.ID, 1)
	require.NoError(t, err)

	view := e.ViewCart(ctx, "alice")
	require.Len(t, view.Items, 2)
	assert.Equal(t, int64(math.MaxInt64), view.Items[0].LineTotalCents)
	assert.Equal(t, int64(math.MaxInt64), view.TotalCents)
}

func TestCheckoutPlacesOneOrder(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p1 := mustProduct(t, e, "P1", 1000, 5)
	p2 := mustProduct(t, e, "P2", 2000, 3)
	mustTopUp(t, e, "alice", 10000)

	_, err := e.AddToCart(ctx, "alice", p1.ID, 2)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "alice", p2.ID, 1)
	require.NoError(t, err)

	r, err := e.Checkout(ctx, "alice", "co-1")
	require.NoError(t, err)
	assert.False(t, r.Replayed)
	assert.Equal(t, int64(4000), r.Order.TotalCents)
	assert.Equal(t, r.Order.SumLines(), r.Order.TotalCents)
	assert.Equal(t, []orders.LineItem{
		{ProductID: p1.ID, Name: "P1", Quantity: 2, LineTotalCents: 2000},
		{ProductID: p2.ID, Name: "P2", Quantity: 1, LineTotalCents: 2000},
	}, r.Order.Items)

	assert.Equal(t, 3, stock(t, e, p1.ID))
	assert.Equal(t, 2, stock(t, e, p2.ID))
	assert.Equal(t, int64(6000), e.GetWallet(ctx, "alice").BalanceCents)
	assert.Empty(t, e.ViewCart(ctx, "alice").Items)

	again, err := e.Checkout(ctx, "alice", "co-1")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, r.Order, again.Order)

	// A new key against the now empty cart.
	_, err = e.Checkout(ctx, "alice", "co-2")
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Equal(t, KindCartEmpty, KindOf(err))
}

type snapshot struct {
	products map[string]int
	balance  int64
	cart     []orders.CartItem
	orders   int
}

func takeSnapshot(t *testing.T, e *Engine, user string) snapshot {
	t.Helper()
	s := snapshot{products: map[string]int{}}
	for _, p := range e.ListProducts(context.Background(), ProductFilter{}) {
		s.products[p.ID] = p.Quantity
	}
	s.balance = e.GetWallet(context.Background(), user).BalanceCents
	s.cart = e.Store().Cart(user).Items
	s.orders = len(e.AllOrders(context.Background()))
	return s
}

func TestCheckoutFailureLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p1 := mustProduct(t, e, "P1", 1000, 5)
	p2 := mustProduct(t, e, "P2", 2000, 0)
	mustTopUp(t, e, "alice", 10000)
	_, err := e.AddToCart(ctx, "alice", p1.ID, 2)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "alice", p2.ID, 1)
	require.NoError(t, err)

	before := takeSnapshot(t, e, "alice")
	_, err = e.Checkout(ctx, "alice", "co-1")
	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, p2.ID, se.ProductID)
	assert.Equal(t, before, takeSnapshot(t, e, "alice"))
	assert.Equal(t, 5, stock(t, e, p1.ID))
}

func TestCheckoutInsufficientFundsLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p1 := mustProduct(t, e, "P1", 1000, 5)
	p2 := mustProduct(t, e, "P2", 2000, 5)
	mustTopUp(t, e, "alice", 3999)
	_, err := e.AddToCart(ctx, "alice", p1.ID, 2)
	require.NoError(t, err)
	_, err = e.AddToCart(ctx, "alice", p2.ID, 1)
	require.NoError(t, err)

	before := takeSnapshot(t, e, "alice")
	_, err = e.Checkout(ctx, "alice", "co-1")
	var fe *FundsError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int64(4000), fe.Required)
	assert.Equal(t, before, takeSnapshot(t, e, "alice"))

	// Not cached: topping up and retrying the same key succeeds.
	mustTopUp(t, e, "alice", 1)
	r, err := e.Checkout(ctx, "alice", "co-1")
	require.NoError(t, err)
	assert.False(t, r.Replayed)
	assert.Zero(t, e.GetWallet(ctx, "alice").BalanceCents)
}

func TestCheckoutMissingProduct(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustTopUp(t, e, "alice", 1000)
	e.Store().PutCart(orders.Cart{UserEmail: "alice", Items: []orders.CartItem{{ProductID: "gone", Quantity: 1}}})

	view := e.ViewCart(ctx, "alice")
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].Available)
	assert.Nil(t, view.Items[0].Product)

	_, err := e.Checkout(ctx, "alice", "co-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, e.Store().Cart("alice").Items, 1)
}

func TestCheckoutRejectsCorruptQuantity(t *testing.T) {
	e := newTestEngine(t)
	p := mustProduct(t, e, "P1", 100, 5)
	mustTopUp(t, e, "alice", 1000)
	e.Store().PutCart(orders.Cart{UserEmail: "alice", Items: []orders.CartItem{{ProductID: p.ID, Quantity: -1}}})

	_, err := e.Checkout(context.Background(), "alice", "co-1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 5, stock(t, e, p.ID))
}

func TestCheckoutRequiresKeyAndUser(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Checkout(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = e.Checkout(context.Background(), "", "co-1")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.Checkout(context.Background(), "alice", "co-2")
	assert.ErrorIs(t, err, ErrCartEmpty)
}

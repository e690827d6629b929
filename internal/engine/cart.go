package engine

import (
	"context"
	"math"

	"github.com/ariefcatur/go-store-engine/internal/locks"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"go.opentelemetry.io/otel/attribute"
)

// AddToCart merges qty units into the user's cart. Cart edits take the
// cart:<user> lock so they cannot interleave with each other or with a
// checkout of the same cart.
func (e *Engine) AddToCart(ctx context.Context, user, productID string, qty int) (orders.Cart, error) {
	ctx, span := e.tel.start(ctx, "cart_add",
		attribute.String("user", user), attribute.String("product.id", productID), attribute.Int("quantity", qty))
	c, err := e.addToCart(ctx, user, productID, qty)
	end(span, err)
	return c, err
}

func (e *Engine) addToCart(ctx context.Context, user, productID string, qty int) (orders.Cart, error) {
	if user == "" {
		return orders.Cart{}, validationf("user_email required")
	}
	if qty <= 0 {
		return orders.Cart{}, validationf("quantity must be > 0")
	}
	if _, ok := e.store.Product(productID); !ok {
		return orders.Cart{}, productNotFound(productID)
	}

	held := e.acquire(ctx, "cart_add", locks.CartKey(user))
	defer held.Release()

	c := e.store.Cart(user)
	if existing := c.Quantity(productID); existing > math.MaxInt-qty {
		return orders.Cart{}, validationf("cart quantity for product %s overflows", productID)
	}
	c.Add(productID, qty)
	e.store.PutCart(c)
	return c, nil
}

// RemoveFromCart drops qty units of a line; nil, or a quantity at least as
// large as the line, removes the whole line. Removing an absent line returns
// the cart unchanged.
func (e *Engine) RemoveFromCart(ctx context.Context, user, productID string, qty *int) (orders.Cart, error) {
	ctx, span := e.tel.start(ctx, "cart_remove", attribute.String("user", user), attribute.String("product.id", productID))
	c, err := e.removeFromCart(ctx, user, productID, qty)
	end(span, err)
	return c, err
}

func (e *Engine) removeFromCart(ctx context.Context, user, productID string, qty *int) (orders.Cart, error) {
	if user == "" {
		return orders.Cart{}, validationf("user_email required")
	}
	if qty != nil && *qty <= 0 {
		return orders.Cart{}, validationf("quantity must be > 0")
	}

	held := e.acquire(ctx, "cart_remove", locks.CartKey(user))
	defer held.Release()

	c := e.store.Cart(user)
	c.Remove(productID, qty)
	e.store.PutCart(c)
	return c, nil
}

// ViewCart prices every line against the current catalog. Lines whose
// product is gone are kept and flagged unavailable.
func (e *Engine) ViewCart(_ context.Context, user string) orders.CartView {
	c := e.store.Cart(user)
	view := orders.CartView{UserEmail: user, Items: []orders.CartLine{}}
	for _, it := range c.Items {
		p, ok := e.store.Product(it.ProductID)
		if !ok {
			view.Items = append(view.Items, orders.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
			continue
		}
		line, err := lineTotal(p.PriceCents, it.Quantity)
		if err != nil {
			line = math.MaxInt64
		}
		view.TotalCents = saturatingAdd(view.TotalCents, line)
		view.Items = append(view.Items, orders.CartLine{
			ProductID:      it.ProductID,
			Product:        &p,
			Quantity:       it.Quantity,
			LineTotalCents: line,
			Available:      true,
		})
	}
	return view
}

// saturatingAdd keeps display totals pinned at MaxInt64 instead of wrapping.
func saturatingAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

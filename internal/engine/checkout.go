package engine

import (
	"context"
	"math"

	"github.com/ariefcatur/go-store-engine/internal/locks"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"go.opentelemetry.io/otel/attribute"
)

// Checkout buys the whole cart of user as one order, or nothing.
func (e *Engine) Checkout(ctx context.Context, user, idempotencyKey string) (Receipt, error) {
	ctx, span := e.tel.start(ctx, SourceCheckout, attribute.String("user", user))

	if idempotencyKey == "" {
		e.tel.finish(ctx, span, SourceCheckout, false, ErrMissingToken)
		return Receipt{}, ErrMissingToken
	}
	o, replayed, err := e.idem.Do(ctx, idempotencyKey, func() (orders.Order, error) {
		return e.checkout(ctx, user)
	})
	e.tel.finish(ctx, span, SourceCheckout, replayed, err)
	if err != nil {
		return Receipt{}, err
	}
	if !replayed {
		e.notify(ctx, o, SourceCheckout)
	}
	return Receipt{Order: o, Replayed: replayed}, nil
}

func (e *Engine) checkout(ctx context.Context, user string) (orders.Order, error) {
	if user == "" {
		return orders.Order{}, validationf("user_email required")
	}
	if e.store.Cart(user).Empty() {
		return orders.Order{}, ErrCartEmpty
	}

	// cart:<user> sorts before every product and wallet key, so taking it
	// first and extending with the rest still acquires the whole set in
	// global order. The cart is read under its lock, which pins the product
	// set for the remainder of the operation.
	held := e.acquire(ctx, SourceCheckout, locks.CartKey(user))
	defer held.Release()

	cart := e.store.Cart(user)
	if cart.Empty() {
		return orders.Order{}, ErrCartEmpty
	}
	keys := make([]string, 0, len(cart.Items)+1)
	for _, pid := range cart.ProductIDs() {
		keys = append(keys, locks.ProductKey(pid))
	}
	keys = append(keys, locks.WalletKey(user))
	if err := e.extend(ctx, SourceCheckout, held, keys...); err != nil {
		return orders.Order{}, err
	}

	// Validate every line before touching anything.
	products := make([]orders.Product, 0, len(cart.Items))
	items := make([]orders.LineItem, 0, len(cart.Items))
	var total int64
	for _, it := range cart.Items {
		p, ok := e.store.Product(it.ProductID)
		if !ok {
			return orders.Order{}, productNotFound(it.ProductID)
		}
		if it.Quantity <= 0 {
			return orders.Order{}, validationf("invalid quantity %d for product %s in cart", it.Quantity, it.ProductID)
		}
		if p.Quantity < it.Quantity {
			return orders.Order{}, &StockError{ProductID: p.ID, Requested: it.Quantity, Available: p.Quantity}
		}
		line, err := lineTotal(p.PriceCents, it.Quantity)
		if err != nil {
			return orders.Order{}, err
		}
		if total > math.MaxInt64-line {
			return orders.Order{}, validationf("order total overflows")
		}
		total += line
		p.Quantity -= it.Quantity
		products = append(products, p)
		items = append(items, orders.LineItem{
			ProductID:      p.ID,
			Name:           p.Name,
			Quantity:       it.Quantity,
			LineTotalCents: line,
		})
	}
	w := e.store.Wallet(user)
	if w.BalanceCents < total {
		return orders.Order{}, &FundsError{UserEmail: user, Required: total, Available: w.BalanceCents}
	}

	// Commit.
	w.BalanceCents -= total
	o := orders.Order{
		ID:         e.NewID(),
		UserEmail:  user,
		Items:      items,
		TotalCents: total,
		Status:     orders.StatusPlaced,
		CreatedAt:  e.Now(),
	}
	for _, p := range products {
		e.store.PutProduct(p)
	}
	e.store.PutWallet(w)
	e.store.PutOrder(o)
	e.store.ClearCart(user)
	return o, nil
}

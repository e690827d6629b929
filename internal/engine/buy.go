package engine

import (
	"context"
	"math"

	"github.com/ariefcatur/go-store-engine/internal/locks"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"go.opentelemetry.io/otel/attribute"
)

const (
	SourceBuy      = "buy"
	SourceCheckout = "checkout"
)

type BuyRequest struct {
	UserEmail      string
	ProductID      string
	Quantity       int
	IdempotencyKey string
}

// Receipt is the outcome of a buy or checkout. Replayed is true when the
// order came from the idempotency cache.
type Receipt struct {
	Order    orders.Order
	Replayed bool
}

// Buy purchases quantity units of one product for user.
func (e *Engine) Buy(ctx context.Context, req BuyRequest) (Receipt, error) {
	ctx, span := e.tel.start(ctx, SourceBuy,
		attribute.String("user", req.UserEmail),
		attribute.String("product.id", req.ProductID),
		attribute.Int("quantity", req.Quantity))

	if req.IdempotencyKey == "" {
		e.tel.finish(ctx, span, SourceBuy, false, ErrMissingToken)
		return Receipt{}, ErrMissingToken
	}
	o, replayed, err := e.idem.Do(ctx, req.IdempotencyKey, func() (orders.Order, error) {
		return e.buy(ctx, req)
	})
	e.tel.finish(ctx, span, SourceBuy, replayed, err)
	if err != nil {
		return Receipt{}, err
	}
	if !replayed {
		e.notify(ctx, o, SourceBuy)
	}
	return Receipt{Order: o, Replayed: replayed}, nil
}

func (e *Engine) buy(ctx context.Context, req BuyRequest) (orders.Order, error) {
	if req.UserEmail == "" {
		return orders.Order{}, validationf("user_email required")
	}
	if req.Quantity <= 0 {
		return orders.Order{}, validationf("quantity must be > 0")
	}
	// Checked before locking; products are only removed by Reset, and the
	// lookup is repeated under the lock anyway.
	if _, ok := e.store.Product(req.ProductID); !ok {
		return orders.Order{}, productNotFound(req.ProductID)
	}

	held := e.acquire(ctx, SourceBuy, locks.ProductKey(req.ProductID), locks.WalletKey(req.UserEmail))
	defer held.Release()

	p, ok := e.store.Product(req.ProductID)
	if !ok {
		return orders.Order{}, productNotFound(req.ProductID)
	}
	if p.Quantity < req.Quantity {
		return orders.Order{}, &StockError{ProductID: p.ID, Requested: req.Quantity, Available: p.Quantity}
	}
	total, err := lineTotal(p.PriceCents, req.Quantity)
	if err != nil {
		return orders.Order{}, err
	}
	w := e.store.Wallet(req.UserEmail)
	if w.BalanceCents < total {
		return orders.Order{}, &FundsError{UserEmail: req.UserEmail, Required: total, Available: w.BalanceCents}
	}

	// Commit.
	p.Quantity -= req.Quantity
	w.BalanceCents -= total
	o := orders.Order{
		ID:        e.NewID(),
		UserEmail: req.UserEmail,
		Items: []orders.LineItem{{
			ProductID:      p.ID,
			Name:           p.Name,
			Quantity:       req.Quantity,
			LineTotalCents: total,
		}},
		TotalCents: total,
		Status:     orders.StatusPlaced,
		CreatedAt:  e.Now(),
	}
	e.store.PutProduct(p)
	e.store.PutWallet(w)
	e.store.PutOrder(o)
	return o, nil
}

func lineTotal(price int64, qty int) (int64, error) {
	if qty > 0 && price > math.MaxInt64/int64(qty) {
		return 0, validationf("line total overflows")
	}
	return price * int64(qty), nil
}

// ListOrders returns user's orders oldest first.
func (e *Engine) ListOrders(_ context.Context, user string) []orders.Order {
	return e.store.OrdersFor(user)
}

// AllOrders is for debugging.
func (e *Engine) AllOrders(_ context.Context) []orders.Order {
	return e.store.Orders()
}

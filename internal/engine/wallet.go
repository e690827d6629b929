package engine

import (
	"context"
	"math"

	"github.com/ariefcatur/go-store-engine/internal/locks"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"go.opentelemetry.io/otel/attribute"
)

// TopUpWallet credits amount under the wallet lock only.
func (e *Engine) TopUpWallet(ctx context.Context, user string, amount int64) (orders.Wallet, error) {
	ctx, span := e.tel.start(ctx, "topup_wallet", attribute.String("user", user), attribute.Int64("amount_cents", amount))
	w, err := e.topUp(ctx, user, amount)
	end(span, err)
	return w, err
}

func (e *Engine) topUp(ctx context.Context, user string, amount int64) (orders.Wallet, error) {
	if user == "" {
		return orders.Wallet{}, validationf("user_email required")
	}
	if amount <= 0 {
		return orders.Wallet{}, validationf("amount must be positive")
	}
	held := e.acquire(ctx, "topup_wallet", locks.WalletKey(user))
	defer held.Release()

	w := e.store.Wallet(user)
	if w.BalanceCents > math.MaxInt64-amount {
		return orders.Wallet{}, validationf("balance would overflow")
	}
	w.BalanceCents += amount
	e.store.PutWallet(w)
	return w, nil
}

// GetWallet is an advisory read; unknown users have a zero balance.
func (e *Engine) GetWallet(_ context.Context, user string) orders.Wallet {
	return e.store.Wallet(user)
}

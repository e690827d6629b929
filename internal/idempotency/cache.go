// Package idempotency remembers the order returned for a caller-supplied
// token so a retried buy or checkout replays the first result instead of
// running again.
package idempotency

import (
	"context"

	"github.com/ariefcatur/go-store-engine/internal/orders"
)

// Cache stores one order per token. Put keeps the first value written for a
// token and ignores later ones.
type Cache interface {
	Get(ctx context.Context, token string) (orders.Order, bool, error)
	Put(ctx context.Context, token string, o orders.Order) error
	Reset(ctx context.Context) error
}

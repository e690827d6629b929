package idempotency

import (
	"context"
	"log"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"golang.org/x/sync/singleflight"
)

// Guard runs an operation at most once per token.
//
// A token already in the cache returns the stored order without calling fn.
// Concurrent calls with the same token share a single execution. Only
// successful results are stored, so a failed attempt may be retried with the
// same token once the caller has fixed the cause (for example after a top-up).
type Guard struct {
	cache Cache
	group singleflight.Group
}

func NewGuard(c Cache) *Guard { return &Guard{cache: c} }

func (g *Guard) Cache() Cache { return g.cache }

// Do returns the order and whether it was replayed rather than produced by
// this call's fn.
func (g *Guard) Do(ctx context.Context, token string, fn func() (orders.Order, error)) (orders.Order, bool, error) {
	if o, ok, err := g.cache.Get(ctx, token); err != nil {
		return orders.Order{}, false, err
	} else if ok {
		return o, true, nil
	}

	ran := false
	v, err, _ := g.group.Do(token, func() (any, error) {
		// A caller that finished just before this flight started has
		// already stored its result.
		if o, ok, err := g.cache.Get(ctx, token); err != nil {
			return nil, err
		} else if ok {
			return o, nil
		}
		ran = true
		o, err := fn()
		if err != nil {
			return nil, err
		}
		if err := g.cache.Put(ctx, token, o); err != nil {
			// The commit stands; reporting a failure here would invite a
			// retry that charges twice.
			log.Printf("idempotency: order %s committed but not cached: %v", o.ID, err)
		}
		return o, nil
	})
	var o orders.Order
	if v != nil {
		o = v.(orders.Order).Clone()
	}
	return o, !ran, err
}

package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/ariefcatur/go-store-engine/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Redis keeps entries in Redis so several API replicas answer a replay the
// same way. Engine state itself stays per process.
type Redis struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = redisx.TTLIdempotency
	}
	return &Redis{RDB: rdb, TTL: ttl}
}

func (r *Redis) Get(ctx context.Context, token string) (orders.Order, bool, error) {
	b, err := r.RDB.Get(ctx, fmt.Sprintf(redisx.KeyIdempotency, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orders.Order{}, false, nil
	}
	if err != nil {
		return orders.Order{}, false, fmt.Errorf("idempotency get: %w", err)
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return orders.Order{}, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return o, true, nil
}

func (r *Redis) Put(ctx context.Context, token string, o orders.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	// SETNX: the first writer wins.
	if err := r.RDB.SetNX(ctx, fmt.Sprintf(redisx.KeyIdempotency, token), b, r.TTL).Err(); err != nil {
		return fmt.Errorf("idempotency put: %w", err)
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.RDB.Scan(ctx, cursor, redisx.PatternIdempotency, 200).Result()
		if err != nil {
			return fmt.Errorf("idempotency scan: %w", err)
		}
		if len(keys) > 0 {
			if err := r.RDB.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("idempotency reset: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb redis.Cmdable, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Dedup remembers processed event ids for one consuming service.
type Dedup struct {
	RDB     redis.Cmdable
	Service string
	TTL     time.Duration
}

func (d *Dedup) key(eventID string) string {
	return fmt.Sprintf(KeyDedup, d.Service, eventID)
}

func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.RDB, d.key(eventID))
}

func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = TTLDedup
	}
	return d.RDB.Set(ctx, d.key(eventID), "1", ttl).Err()
}

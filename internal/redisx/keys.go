package redisx

import "time"

const (
	// Idempotent buy/checkout: idem:store:{token} -> JSON order
	KeyIdempotency = "idem:store:%s"
	// Scan pattern covering every idempotency entry.
	PatternIdempotency = "idem:store:*"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

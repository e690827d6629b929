package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a process-local Cache. With maxEntries and ttl both zero it never
// evicts; otherwise the least recently used or expired tokens are dropped.
type Memory struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, orders.Order]
}

func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Memory{lru: expirable.NewLRU[string, orders.Order](maxEntries, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, token string) (orders.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.lru.Get(token)
	if !ok {
		return orders.Order{}, false, nil
	}
	return o.Clone(), true, nil
}

func (m *Memory) Put(_ context.Context, token string, o orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lru.Contains(token) {
		return nil
	}
	m.lru.Add(token, o.Clone())
	return nil
}

func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

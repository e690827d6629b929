// Package engine is the transaction coordinator of the store. It owns the
// commit protocol for buy and checkout: take every resource lock the
// operation needs in sorted key order, validate all preconditions, apply all
// mutations, release the locks, and remember the result under the caller's
// idempotency key.
//
// No operation mutates state before all of its preconditions hold, and no
// I/O happens while locks are held. Notifier calls run after release.
package engine

import (
	"context"
	"encoding/hex"
	"log"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/idempotency"
	"github.com/ariefcatur/go-store-engine/internal/locks"
	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/ariefcatur/go-store-engine/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Notifier is told about every freshly committed order. Replays are not
// reported again.
type Notifier interface {
	OrderPlaced(ctx context.Context, o orders.Order, source string) error
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, orders.Order, string) error { return nil }

type Engine struct {
	store *store.Store
	locks *locks.Registry
	idem  *idempotency.Guard
	tel   *instruments

	Notifier Notifier
	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string
}

// Options carries optional collaborators; zero values pick defaults (a fresh
// lock registry, an unbounded in-memory cache, the global otel providers).
type Options struct {
	Locks          *locks.Registry
	Cache          idempotency.Cache
	Notifier       Notifier
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func New(st *store.Store, opt Options) *Engine {
	if opt.Locks == nil {
		opt.Locks = locks.NewRegistry()
	}
	if opt.Cache == nil {
		opt.Cache = idempotency.NewMemory(0, 0)
	}
	if opt.Notifier == nil {
		opt.Notifier = nopNotifier{}
	}
	return &Engine{
		store:    st,
		locks:    opt.Locks,
		idem:     idempotency.NewGuard(opt.Cache),
		tel:      newInstruments(opt.TracerProvider, opt.MeterProvider),
		Notifier: opt.Notifier,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    newID,
	}
}

// newID returns a 32-char hex id, the same shape the store has always used.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

func (e *Engine) Store() *store.Store    { return e.store }
func (e *Engine) Locks() *locks.Registry { return e.locks }

// acquire wraps Registry.Acquire with the lock-wait histogram.
func (e *Engine) acquire(ctx context.Context, op string, keys ...string) *locks.Held {
	start := time.Now()
	h := e.locks.Acquire(keys...)
	e.tel.waited(ctx, op, start)
	return h
}

func (e *Engine) extend(ctx context.Context, op string, h *locks.Held, keys ...string) error {
	start := time.Now()
	err := h.Extend(keys...)
	e.tel.waited(ctx, op, start)
	return err
}

// notify runs after locks are released. Delivery problems never undo a
// commit; they are logged.
func (e *Engine) notify(ctx context.Context, o orders.Order, source string) {
	if err := e.Notifier.OrderPlaced(ctx, o, source); err != nil {
		log.Printf("notify order %s: %v", o.ID, err)
	}
}

// Reset clears the store and the idempotency cache. Locks are kept. It is an
// operator tool and must not run alongside live traffic.
func (e *Engine) Reset(ctx context.Context) error {
	e.store.Clear()
	return e.idem.Cache().Reset(ctx)
}

// Package store holds the four in-memory collections the engine works on:
// products, wallets, carts and orders.
//
// Accessors copy values in and out and never take resource locks. Callers
// that mutate an entity must hold that entity's lock from the locks package.
// The per-collection mutexes below only keep the Go maps themselves safe.
package store

import (
	"sync"

	"github.com/ariefcatur/go-store-engine/internal/orders"
)

type Store struct {
	productsMu   sync.RWMutex
	products     map[string]orders.Product
	productOrder []string

	walletsMu sync.RWMutex
	wallets   map[string]int64

	cartsMu sync.RWMutex
	carts   map[string]orders.Cart

	ordersMu   sync.RWMutex
	orders     map[string]orders.Order
	orderOrder []string
}

func New() *Store {
	return &Store{
		products: map[string]orders.Product{},
		wallets:  map[string]int64{},
		carts:    map[string]orders.Cart{},
		orders:   map[string]orders.Order{},
	}
}

// ---- products ----

func (s *Store) Product(id string) (orders.Product, bool) {
	s.productsMu.RLock()
	defer s.productsMu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) PutProduct(p orders.Product) {
	s.productsMu.Lock()
	defer s.productsMu.Unlock()
	if _, exists := s.products[p.ID]; !exists {
		s.productOrder = append(s.productOrder, p.ID)
	}
	s.products[p.ID] = p
}

// Products returns every product in registration order.
func (s *Store) Products() []orders.Product {
	s.productsMu.RLock()
	defer s.productsMu.RUnlock()
	out := make([]orders.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, s.products[id])
	}
	return out
}

// ---- wallets ----

// Wallet returns a zero balance for users that never topped up.
func (s *Store) Wallet(user string) orders.Wallet {
	s.walletsMu.RLock()
	defer s.walletsMu.RUnlock()
	return orders.Wallet{UserEmail: user, BalanceCents: s.wallets[user]}
}

func (s *Store) PutWallet(w orders.Wallet) {
	s.walletsMu.Lock()
	defer s.walletsMu.Unlock()
	s.wallets[w.UserEmail] = w.BalanceCents
}

// ---- carts ----

func (s *Store) Cart(user string) orders.Cart {
	s.cartsMu.RLock()
	defer s.cartsMu.RUnlock()
	c, ok := s.carts[user]
	if !ok {
		return orders.Cart{UserEmail: user}
	}
	return c.Clone()
}

func (s *Store) PutCart(c orders.Cart) {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()
	if c.Empty() {
		delete(s.carts, c.UserEmail)
		return
	}
	s.carts[c.UserEmail] = c.Clone()
}

func (s *Store) ClearCart(user string) {
	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()
	delete(s.carts, user)
}

// ---- orders ----

func (s *Store) Order(id string) (orders.Order, bool) {
	s.ordersMu.RLock()
	defer s.ordersMu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, false
	}
	return o.Clone(), true
}

func (s *Store) PutOrder(o orders.Order) {
	s.ordersMu.Lock()
	defer s.ordersMu.Unlock()
	if _, exists := s.orders[o.ID]; !exists {
		s.orderOrder = append(s.orderOrder, o.ID)
	}
	s.orders[o.ID] = o.Clone()
}

// Orders returns every order in creation order.
func (s *Store) Orders() []orders.Order {
	return s.filterOrders(func(orders.Order) bool { return true })
}

func (s *Store) OrdersFor(user string) []orders.Order {
	return s.filterOrders(func(o orders.Order) bool { return o.UserEmail == user })
}

func (s *Store) filterOrders(keep func(orders.Order) bool) []orders.Order {
	s.ordersMu.RLock()
	defer s.ordersMu.RUnlock()
	out := []orders.Order{}
	for _, id := range s.orderOrder {
		if o := s.orders[id]; keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Clear drops all four collections. It is an operator tool: running it while
// transactions are in flight can interleave with their commits.
func (s *Store) Clear() {
	s.productsMu.Lock()
	s.products = map[string]orders.Product{}
	s.productOrder = nil
	s.productsMu.Unlock()

	s.walletsMu.Lock()
	s.wallets = map[string]int64{}
	s.walletsMu.Unlock()

	s.cartsMu.Lock()
	s.carts = map[string]orders.Cart{}
	s.cartsMu.Unlock()

	s.ordersMu.Lock()
	s.orders = map[string]orders.Order{}
	s.orderOrder = nil
	s.ordersMu.Unlock()
}

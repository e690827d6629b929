// Package locks hands out one mutex per resource key and acquires sets of
// keys in a single global order.
//
// Every multi-key acquisition goes through Acquire or Held.Extend, which sort
// the keys lexicographically before locking. Two operations that share keys
// therefore request the shared keys in the same order and cannot deadlock.
package locks

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

var ErrOutOfOrder = errors.New("locks: key sorts before a held key")

// Registry never forgets a key. Keys are stable entity ids, so the map is
// bounded by the number of products and users.
type Registry struct {
	locks   sync.Map // map[string]*sync.Mutex
	created atomic.Int64
}

func NewRegistry() *Registry { return &Registry{} }

// LockFor returns the mutex for key, creating it on first use.
func (r *Registry) LockFor(key string) *sync.Mutex {
	if m, ok := r.locks.Load(key); ok {
		return m.(*sync.Mutex)
	}
	actual, loaded := r.locks.LoadOrStore(key, &sync.Mutex{})
	if !loaded {
		r.created.Add(1)
	}
	return actual.(*sync.Mutex)
}

// Len is the number of distinct keys seen so far.
func (r *Registry) Len() int { return int(r.created.Load()) }

// Acquire locks the de-duplicated keys in sorted order and blocks until all
// are held.
func (r *Registry) Acquire(keys ...string) *Held {
	h := &Held{reg: r}
	h.lock(normalize(keys))
	return h
}

// Held is the set of locks taken by one operation. It is used by a single
// goroutine and is not safe for concurrent use.
type Held struct {
	reg      *Registry
	keys     []string
	mus      []*sync.Mutex
	released bool
}

func (h *Held) Keys() []string { return append([]string(nil), h.keys...) }

func (h *Held) Holds(key string) bool {
	i := sort.SearchStrings(h.keys, key)
	return i < len(h.keys) && h.keys[i] == key
}

// Extend locks additional keys. Keys already held are skipped; every other
// key must sort after the last held key, otherwise nothing is acquired and
// ErrOutOfOrder is returned.
func (h *Held) Extend(keys ...string) error {
	if h.released {
		return errors.New("locks: extend after release")
	}
	var fresh []string
	for _, k := range normalize(keys) {
		if !h.Holds(k) {
			fresh = append(fresh, k)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	if n := len(h.keys); n > 0 && fresh[0] <= h.keys[n-1] {
		return ErrOutOfOrder
	}
	h.lock(fresh)
	return nil
}

// Release unlocks in reverse acquisition order. Calling it again is a no-op.
func (h *Held) Release() {
	if h.released {
		return
	}
	h.released = true
	for i := len(h.mus) - 1; i >= 0; i-- {
		h.mus[i].Unlock()
	}
}

func (h *Held) lock(sorted []string) {
	for _, k := range sorted {
		m := h.reg.LockFor(k)
		m.Lock()
		h.keys = append(h.keys, k)
		h.mus = append(h.mus, m)
	}
}

func normalize(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}

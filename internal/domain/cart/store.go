package cart

import (
	"sync"
)

// Store holds one cart per session key. It is the only shared cart state
// in the process; all access goes through the mutex so concurrent requests
// from the same terminal cannot corrupt a cart.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewStore creates an empty session cart store.
func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Update runs fn against the session's cart under the store lock,
// creating an empty cart on first use.
func (s *Store) Update(sessionKey string, fn func(c *Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionKey]
	if !ok {
		c = New()
		s.carts[sessionKey] = c
	}
	return fn(c)
}

// Snapshot returns a detached copy of the session's cart, so readers
// never observe a cart mid-mutation.
func (s *Store) Snapshot(sessionKey string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionKey]
	if !ok {
		return New()
	}
	out := New()
	for pid, qty := range c.lines {
		out.lines[pid] = qty
	}
	return out
}

// Clear empties the session's cart.
func (s *Store) Clear(sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[sessionKey]; ok {
		c.Clear()
	}
}

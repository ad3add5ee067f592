// internal/domain/cart/store.go
package cart

import (
	"sync"
)

type sessionCart struct {
	mu      sync.Mutex
	items   []LineItem
	dropped bool
}

// Store keeps carts in memory keyed by session id.
//
// The map lock is only held to find or create a cart; every cart carries its
// own mutex so two sessions never wait on each other. Unknown sessions behave
// as empty carts and unknown product ids are ignored.
type Store struct {
	mu    sync.RWMutex
	carts map[string]*sessionCart
}

// NewStore creates an empty cart store
func NewStore() *Store {
	return &Store{
		carts: make(map[string]*sessionCart),
	}
}

func (s *Store) lookup(sessionID string) *sessionCart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[sessionID]
}

func (s *Store) lookupOrCreate(sessionID string) *sessionCart {
	if c := s.lookup(sessionID); c != nil {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		c = &sessionCart{}
		s.carts[sessionID] = c
	}
	return c
}

// Get returns a copy of the session cart in insertion order
func (s *Store) Get(sessionID string) []LineItem {
	c := s.lookup(sessionID)
	if c == nil {
		return []LineItem{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Clone(c.items)
}

// Add merges item into an existing unit-priced entry with the same id or appends it.
// Weighted items always append with quantity 1.
func (s *Store) Add(sessionID string, item LineItem) {
	c := s.lookupOrCreate(sessionID)
	c.mu.Lock()
	for c.dropped {
		c.mu.Unlock()
		c = s.lookupOrCreate(sessionID)
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	if item.Weighted() {
		item.Quantity = 1
		c.items = append(c.items, Clone([]LineItem{item})[0])
		return
	}

	if item.Quantity < 1 {
		item.Quantity = 1
	}

	for i := range c.items {
		if c.items[i].ID == item.ID && !c.items[i].Weighted() {
			c.items[i].Quantity += item.Quantity
			return
		}
	}

	c.items = append(c.items, item)
}

// SetQuantity sets the quantity of the unit-priced entry for productID.
// A quantity below 1 removes that entry.
func (s *Store) SetQuantity(sessionID, productID string, quantity int) {
	c := s.lookup(sessionID)
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID != productID || c.items[i].Weighted() {
			continue
		}
		if quantity < 1 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
		c.items[i].Quantity = quantity
		return
	}
}

// Remove drops every entry for productID, weighted ones included
func (s *Store) Remove(sessionID, productID string) {
	c := s.lookup(sessionID)
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	// clear the tail so removed items don't linger in the backing array
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = LineItem{}
	}
	c.items = kept
}

// Clear forgets the session cart entirely
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	c, ok := s.carts[sessionID]
	delete(s.carts, sessionID)
	s.mu.Unlock()

	if ok {
		c.mu.Lock()
		c.items = nil
		c.dropped = true
		c.mu.Unlock()
	}
}

// Len returns the number of carts held, for diagnostics
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

// internal/domain/session/registry.go
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
)

// Session is one logical shopping session of a terminal.
// Fields other than ID and the activity clock are guarded by the session lock.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	customer     *customer.Profile
	lastActivity atomic.Int64
	removed      bool
}

// Lock acquires the session lock
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock
func (s *Session) Unlock() { s.mu.Unlock() }

// Customer returns a copy of the bound customer profile, or nil
func (s *Session) Customer() *customer.Profile {
	if s.customer == nil {
		return nil
	}
	p := s.customer.Clone()
	return &p
}

// BindCustomer stores a copy of profile on the session
func (s *Session) BindCustomer(profile customer.Profile) {
	p := profile.Clone()
	s.customer = &p
}

// LastActivity returns the time of the last recorded activity
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastActivity.Store(now.UnixNano())
}

// Registry maps session ids to sessions. Lock order is session, then registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	carts    *cart.Store
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewRegistry creates a new session registry over the cart store
func NewRegistry(carts *cart.Store, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		carts:    carts,
		metrics:  m,
		now:      time.Now,
	}
}

// Carts returns the cart store owned by the registry
func (r *Registry) Carts() *cart.Store {
	return r.carts
}

// Acquire returns the session for id with its lock held. When id is empty,
// unknown or already removed, a new session is created and created is true.
func (r *Registry) Acquire(id string) (s *Session, created bool) {
	if id != "" {
		r.mu.RLock()
		s = r.sessions[id]
		r.mu.RUnlock()

		if s != nil {
			s.Lock()
			if !s.removed {
				return s, false
			}
			s.Unlock()
		}
	}

	return r.create(), true
}

// create inserts a fresh session and returns it locked
func (r *Registry) create() *Session {
	now := r.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	s.touch(now)
	s.Lock()

	r.mu.Lock()
	r.sessions[s.ID] = s
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SessionsActive.Set(float64(count))
	return s
}

// Get returns the live session for id without locking it
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Touch records activity on s
func (r *Registry) Touch(s *Session) {
	s.touch(r.now())
}

// IsIdle reports whether s has been inactive for longer than threshold
func (r *Registry) IsIdle(s *Session, threshold time.Duration) bool {
	return r.now().Sub(s.LastActivity()) > threshold
}

// Idle lists the ids of sessions inactive for longer than threshold.
// It reads only the atomic activity clock and never waits on a busy session.
func (r *Registry) Idle(threshold time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, s := range r.sessions {
		if r.IsIdle(s, threshold) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot copies the cart and customer of s. The caller holds the session lock.
func (r *Registry) Snapshot(s *Session) ([]cart.LineItem, *customer.Profile) {
	return r.carts.Get(s.ID), s.Customer()
}

// Destroy removes s and its cart. The caller holds the session lock.
func (r *Registry) Destroy(s *Session) {
	if s.removed {
		return
	}
	s.removed = true
	s.customer = nil

	r.mu.Lock()
	delete(r.sessions, s.ID)
	count := len(r.sessions)
	r.mu.Unlock()

	r.carts.Clear(s.ID)
	r.metrics.SessionsActive.Set(float64(count))
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/shipping"
)

// Session owns one Checkout and serialises every access to it.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	checkout  *Checkout
	expiresAt time.Time
}

// Do runs fn with exclusive access to the session's checkout.
func (s *Session) Do(fn func(*Checkout) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.checkout)
}

// ExpiresAt reports when the session lapses unless touched again.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Store keeps live checkout sessions in memory.
type Store struct {
	Calculator shipping.Calculator
	TTL        time.Duration
	Now        func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore constructs a store whose checkouts price delivery with calc.
func NewStore(calc shipping.Calculator, ttl time.Duration) *Store {
	return &Store{Calculator: calc, TTL: ttl, sessions: make(map[uuid.UUID]*Session)}
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Store) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create opens a new session.
func (s *Store) Create() *Session {
	sess := &Session{
		ID:        uuid.New(),
		checkout:  New(s.Calculator),
		expiresAt: s.now().Add(s.ttl()),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[uuid.UUID]*Session)
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a live session and extends its expiry.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("checkout %s: %w", id, common.ErrNotFound)
	}
	now := s.now()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if now.After(sess.expiresAt) {
		return nil, fmt.Errorf("checkout %s expired: %w", id, common.ErrNotFound)
	}
	sess.expiresAt = now.Add(s.ttl())
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("checkout %s: %w", id, common.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.After(sess.expiresAt)
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on every tick until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, every time.Duration, onSweep func(removed int)) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

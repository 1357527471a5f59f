// internal/adapters/memory/sessions.go
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStore keeps checkout sessions in process memory. Sessions are stored as
// JSON snapshots so callers never share a pointer with the store. Like the redis
// store, a session expires ttl after its last write; ttl <= 0 keeps it forever.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]sessionEntry), ttl: ttl, now: time.Now}
}

func (s *SessionStore) entry(data []byte) sessionEntry {
	e := sessionEntry{data: data}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	return e
}

func (s *SessionStore) expired(e sessionEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// sweep drops expired sessions. Callers hold s.mu.
func (s *SessionStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
		}
	}
}

// lookup returns the live entry for id. Callers hold s.mu.
func (s *SessionStore) lookup(id string) (sessionEntry, bool) {
	e, ok := s.sessions[id]
	if !ok || s.expired(e, s.now()) {
		return sessionEntry{}, false
	}
	return e, true
}

func (s *SessionStore) Create(_ context.Context, sess *domain.CheckoutSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = s.entry(data)
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.CheckoutSession, error) {
	s.mu.RLock()
	e, ok := s.lookup(id)
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var sess domain.CheckoutSession
	if err := json.Unmarshal(e.data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Save(_ context.Context, sess *domain.CheckoutSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(sess.ID); !ok {
		delete(s.sessions, sess.ID)
		return domain.ErrSessionNotFound
	}
	s.sessions[sess.ID] = s.entry(data)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(id)
	delete(s.sessions, id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// internal/adapters/memory/codes.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

type codeEntry struct {
	hash      []byte
	attempts  int
	expiresAt time.Time
}

// CodeStore is the single-process counterpart of the redis code store.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]*codeEntry
	now   func() time.Time
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]*codeEntry), now: time.Now}
}

func (s *CodeStore) SaveCode(_ context.Context, key string, hash []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// codes nobody came back for are dropped here
	now := s.now()
	for k, e := range s.codes {
		if !now.Before(e.expiresAt) {
			delete(s.codes, k)
		}
	}
	s.codes[key] = &codeEntry{
		hash:      append([]byte(nil), hash...),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// live returns the entry for key, dropping it when expired. Callers hold s.mu.
func (s *CodeStore) live(key string) (*codeEntry, bool) {
	e, ok := s.codes[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.codes, key)
		return nil, false
	}
	return e, true
}

func (s *CodeStore) LoadCode(_ context.Context, key string) ([]byte, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, 0, domain.ErrOtpExpired
	}
	return append([]byte(nil), e.hash...), e.attempts, nil
}

func (s *CodeStore) IncrementAttempts(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return 0, domain.ErrOtpExpired
	}
	e.attempts++
	return e.attempts, nil
}

func (s *CodeStore) DeleteCode(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, key)
	return nil
}

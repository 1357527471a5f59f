// internal/application/sessions.go
package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

// sharedCallTimeout bounds a call that runs on behalf of every joined caller.
const sharedCallTimeout = 15 * time.Second

// shareFlight runs fn once for all concurrent callers with the same key. fn
// gets a context detached from the caller that started it, so one caller
// giving up does not fail the others; each caller still returns when its own
// ctx is done.
func shareFlight(ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (*domain.CheckoutSession, error)) (*domain.CheckoutSession, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.CheckoutSession), nil
	}
}

// SessionManager serializes every load-mutate-save of one checkout session.
type SessionManager struct {
	store ports.SessionStore
	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionManager(store ports.SessionStore) *SessionManager {
	return &SessionManager{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
		locks: make(map[string]*sessionLock),
	}
}

// WithClock replaces the time source. Used by tests.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

func (m *SessionManager) Now() time.Time { return m.now() }

func (m *SessionManager) Create(ctx context.Context) (*domain.CheckoutSession, error) {
	now := m.now()
	sess := &domain.CheckoutSession{
		ID:   m.newID(),
		Step: domain.StepVerification,
		Verification: domain.VerificationSession{
			State: domain.VerifyPhoneEntry,
		},
		AddressDraft: domain.AddressDraft{AddressType: domain.AddressHome},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *SessionManager) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return m.store.Get(ctx, id)
}

func (m *SessionManager) Delete(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

// Update runs fn against the stored session while holding the session's lock.
// The session is saved when fn reports persist, even if fn also returns an error.
func (m *SessionManager) Update(ctx context.Context, id string, fn func(*domain.CheckoutSession) (bool, error)) (*domain.CheckoutSession, error) {
	unlock := m.lock(id)
	defer unlock()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	persist, fnErr := fn(sess)
	if persist {
		sess.UpdatedAt = m.now()
		if err := m.store.Save(ctx, sess); err != nil {
			return nil, err
		}
	}
	if fnErr != nil {
		return nil, fnErr
	}
	return sess, nil
}

func (m *SessionManager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

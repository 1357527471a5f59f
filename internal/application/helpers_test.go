// internal/application/helpers_test.go
package application

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vanamwellness/checkout-service/internal/adapters/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSessions() (*SessionManager, *fakeClock) {
	clock := newFakeClock()
	return NewSessionManager(memory.NewSessionStore(0)).WithClock(clock.Now), clock
}

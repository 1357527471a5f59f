// internal/ports/ports.go
package ports

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=ports

import (
	"context"
	"time"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

// SessionStore holds checkout sessions. Get returns domain.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Create(ctx context.Context, s *domain.CheckoutSession) error
	Get(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Save(ctx context.Context, s *domain.CheckoutSession) error
	Delete(ctx context.Context, id string) error
}

// OTPGateway issues and checks one-time codes. Verify returns domain.ErrOtpMismatch
// for a wrong code and domain.ErrOtpExpired when no live code exists.
type OTPGateway interface {
	Send(ctx context.Context, req domain.OTPRequest) error
	Verify(ctx context.Context, req domain.OTPRequest, code string) error
}

type CodeStore interface {
	SaveCode(ctx context.Context, key string, hash []byte, ttl time.Duration) error
	LoadCode(ctx context.Context, key string) (hash []byte, attempts int, err error)
	IncrementAttempts(ctx context.Context, key string) (int, error)
	DeleteCode(ctx context.Context, key string) error
}

type Notifier interface {
	DispatchOTP(ctx context.Context, msg domain.OTPMessage) error
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.OrderRecord) error
}

// OrderPlacer persists confirmed orders. PlaceOrder is idempotent on order.IdempotencyKey
// and returns the id of the order stored under that key.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order *domain.OrderRecord) (string, error)
	GetOrder(ctx context.Context, orderID string) (*domain.OrderRecord, error)
}

type CatalogPort interface {
	ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, slugOrID string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	TrackView(ctx context.Context, productID string) error
	// Invalidate drops any locally cached catalog data.
	Invalidate(ctx context.Context) error
}

type CachePort interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// TokenDenylist remembers revoked bearer tokens until they would have expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

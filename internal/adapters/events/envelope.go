// internal/adapters/events/envelope.go
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

const producer = "checkout-service"

// Envelope wraps every message this service emits.
type Envelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

func newEnvelope[T any](name, partitionKey string, payload T) Envelope[T] {
	return Envelope[T]{
		EventName:    name,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     producer,
		PartitionKey: partitionKey,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}
}

type OTPDispatch struct {
	SessionID   string           `json:"sessionId"`
	Channel     domain.OTPTarget `json:"channel"`
	Destination string           `json:"destination"`
	Code        string           `json:"code"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}

type OrderPlacedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type OrderPlaced struct {
	OrderID        string                  `json:"orderId"`
	IdempotencyKey string                  `json:"idempotencyKey"`
	Phone          string                  `json:"phone"`
	Email          string                  `json:"email"`
	Address        domain.AddressRecord    `json:"address"`
	Items          []OrderPlacedItem       `json:"items"`
	Totals         domain.PricingBreakdown `json:"totals"`
	PlacedAt       time.Time               `json:"placedAt"`
}

func orderPlacedFrom(o *domain.OrderRecord) OrderPlaced {
	ev := OrderPlaced{
		OrderID:        o.OrderID,
		IdempotencyKey: o.IdempotencyKey,
		Phone:          o.Verification.Phone,
		Email:          o.Verification.Email,
		Address:        o.Address,
		Totals:         o.Totals,
		PlacedAt:       o.CreatedAt.UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return ev
}

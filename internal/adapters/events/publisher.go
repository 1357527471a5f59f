// internal/adapters/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

const (
	OTPDispatchQueue = "otp.dispatch"
	OrderPlacedQueue = "order.placed"

	publishTimeout = 3 * time.Second
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends OTP codes to the delivery worker and announces placed orders.
type Publisher struct {
	ch channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel) (*Publisher, error) {
	for _, q := range []string{OTPDispatchQueue, OrderPlacedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) DispatchOTP(ctx context.Context, msg domain.OTPMessage) error {
	ev := newEnvelope("OTPDispatchRequested", msg.SessionID, OTPDispatch{
		SessionID:   msg.SessionID,
		Channel:     msg.Target,
		Destination: msg.Destination,
		Code:        msg.Code,
		ExpiresAt:   msg.ExpiresAt.UTC(),
	})
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OTPDispatchRequested: %w", err)
	}
	// undelivered codes expire with the code itself
	ttl := time.Until(msg.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return p.publishJSON(ctx, OTPDispatchQueue, body, ttl)
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *domain.OrderRecord) error {
	ev := newEnvelope("OrderPlaced", o.OrderID, orderPlacedFrom(o))
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}
	return p.publishJSON(ctx, OrderPlacedQueue, body, 0)
}

func (p *Publisher) publishJSON(ctx context.Context, queue string, body []byte, ttl time.Duration) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if ttl > 0 {
		msg.Expiration = fmt.Sprintf("%d", ttl.Milliseconds())
	}
	if err := p.ch.PublishWithContext(pubCtx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	return nil
}

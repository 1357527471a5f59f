// internal/application/checkout_service.go
package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

const DefaultOrderIDPrefix = "VW"

// CheckoutService owns the step of every checkout session and assembles the order.
type CheckoutService struct {
	sessions *SessionManager
	catalog  *CatalogService
	pricing  *PricingCalculator
	orders   ports.OrderPlacer
	events   ports.EventPublisher
	prefix   string
	logger   *slog.Logger
	flights  singleflight.Group
	newKey   func() string
}

func NewCheckoutService(
	sessions *SessionManager,
	catalog *CatalogService,
	pricing *PricingCalculator,
	orders ports.OrderPlacer,
	events ports.EventPublisher,
	prefix string,
	logger *slog.Logger,
) *CheckoutService {
	if prefix == "" {
		prefix = DefaultOrderIDPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		sessions: sessions,
		catalog:  catalog,
		pricing:  pricing,
		orders:   orders,
		events:   events,
		prefix:   prefix,
		logger:   logger,
		newKey:   uuid.NewString,
	}
}

func (s *CheckoutService) Start(ctx context.Context) (*domain.CheckoutSession, error) {
	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "checkout started", "session_id", sess.ID)
	return sess, nil
}

func (s *CheckoutService) Get(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Abandon tears the session down.
func (s *CheckoutService) Abandon(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "checkout abandoned", "session_id", sessionID)
	return nil
}

// Back moves address -> verification or payment -> address. The address draft is kept.
// Returning to verification restarts the OTP flow with the previous contacts pre-filled.
func (s *CheckoutService) Back(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
		prev, err := sess.Step.Back()
		if err != nil {
			return false, err
		}
		switch prev {
		case domain.StepVerification:
			v := sess.Verification
			sess.Verification = domain.VerificationSession{
				State: domain.VerifyPhoneEntry,
				Phone: v.Phone,
				Email: v.Email,
			}
		case domain.StepAddress:
			sess.Address = nil
		}
		sess.Step = prev
		return true, nil
	})
}

// SetItems replaces the session's line items with freshly priced catalog products.
func (s *CheckoutService) SetItems(ctx context.Context, sessionID string, reqs []ItemRequest) (*domain.CheckoutSession, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step == domain.StepConfirmation {
		return nil, fmt.Errorf("%w: order already confirmed", domain.ErrInvalidTransition)
	}
	items, err := s.catalog.ResolveItems(ctx, reqs)
	if err != nil {
		return nil, err
	}
	return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
		if sess.Step == domain.StepConfirmation {
			return false, fmt.Errorf("%w: order already confirmed", domain.ErrInvalidTransition)
		}
		sess.Items = items
		return true, nil
	})
}

func (s *CheckoutService) Quote(ctx context.Context, sessionID string) (domain.PricingBreakdown, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.PricingBreakdown{}, err
	}
	return s.pricing.Calculate(sess.Items), nil
}

// CompletePayment places the order once verification, address and items are all present.
// The idempotency key minted on the first attempt is reused by every retry, so a retried
// placement after a network failure never creates a second order. A session that is
// already confirmed returns its stored order without placing or announcing it again.
func (s *CheckoutService) CompletePayment(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return shareFlight(ctx, &s.flights, sessionID+":pay", func(ctx context.Context) (*domain.CheckoutSession, error) {
		sess, placed, err := s.completePayment(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if placed && s.events != nil {
			if err := s.events.PublishOrderPlaced(ctx, sess.Order); err != nil {
				s.logger.ErrorContext(ctx, "publish order placed failed", "order_id", sess.Order.OrderID, "error", err)
			}
		}
		return sess, nil
	})
}

func (s *CheckoutService) completePayment(ctx context.Context, sessionID string) (*domain.CheckoutSession, bool, error) {
	placed := false
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
		if sess.Step == domain.StepConfirmation && sess.Order != nil {
			return false, nil
		}
		if missing := missingSteps(sess); len(missing) > 0 {
			return false, fmt.Errorf("%w: missing %s", domain.ErrStepIncomplete, strings.Join(missing, ", "))
		}
		next, err := sess.Step.Transition(domain.StepConfirmation)
		if err != nil {
			return false, err
		}

		persist := false
		if sess.IdempotencyKey == "" {
			sess.IdempotencyKey = s.newKey()
			persist = true
		}

		now := s.sessions.Now()
		order := &domain.OrderRecord{
			OrderID:        s.orderID(now.UnixMilli()),
			IdempotencyKey: sess.IdempotencyKey,
			Verification:   sess.Verification,
			Address:        *sess.Address,
			Items:          append([]domain.OrderLineItem(nil), sess.Items...),
			Totals:         s.pricing.Calculate(sess.Items),
			CreatedAt:      now,
		}

		placedID, err := s.orders.PlaceOrder(ctx, order)
		if err != nil {
			s.logger.WarnContext(ctx, "order placement failed", "session_id", sess.ID, "error", err)
			return persist, domain.Network("place order", err)
		}
		order.OrderID = placedID

		sess.Order = order
		sess.Step = next
		placed = true
		s.logger.InfoContext(ctx, "order placed",
			"session_id", sess.ID,
			"order_id", order.OrderID,
			"total", order.Totals.Total)
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}
	return sess, placed, nil
}

// ConfirmedOrder reads the session's placed order back from the order store.
func (s *CheckoutService) ConfirmedOrder(ctx context.Context, sessionID string) (*domain.OrderRecord, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Order == nil {
		return nil, domain.ErrOrderNotFound
	}
	order, err := s.orders.GetOrder(ctx, sess.Order.OrderID)
	if err != nil {
		if domain.Kind(err) == "not_found" {
			return nil, err
		}
		return nil, domain.Network("get order", err)
	}
	return order, nil
}

func missingSteps(sess *domain.CheckoutSession) []string {
	var missing []string
	if !sess.Verification.Verified() {
		missing = append(missing, "verification")
	}
	if sess.Address == nil {
		missing = append(missing, "address")
	}
	if len(sess.Items) == 0 {
		missing = append(missing, "items")
	}
	return missing
}

// orderID is the prefix, the last six digits of the millisecond clock and two random digits.
func (s *CheckoutService) orderID(millis int64) string {
	return fmt.Sprintf("%s%06d%02d", s.prefix, millis%1_000_000, rand.IntN(100))
}

// internal/application/verification.go
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

const DefaultResendCooldown = 30 * time.Second

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return domain.NewValidationError("phone", "Please enter a valid 10-digit mobile number")
	}
	return nil
}

func ValidateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 0 || strings.TrimSpace(email[at+1:]) == "" || strings.ContainsAny(email, " \t") {
		return domain.NewValidationError("email", "Please enter a valid email address")
	}
	return nil
}

func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return domain.NewValidationError("code", "Please enter a valid 6-digit OTP")
	}
	return nil
}

// VerificationService drives the phone then email OTP challenge of a checkout session.
type VerificationService struct {
	sessions *SessionManager
	gateway  ports.OTPGateway
	cooldown time.Duration
	tick     time.Duration
	logger   *slog.Logger
	flights  singleflight.Group
}

func NewVerificationService(sessions *SessionManager, gateway ports.OTPGateway, cooldown time.Duration, logger *slog.Logger) *VerificationService {
	if cooldown <= 0 {
		cooldown = DefaultResendCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{
		sessions: sessions,
		gateway:  gateway,
		cooldown: cooldown,
		tick:     time.Second,
		logger:   logger,
	}
}

// SendCode issues a code to destination. The target must be the one the
// session's current entry state asks for.
func (s *VerificationService) SendCode(ctx context.Context, sessionID string, target domain.OTPTarget, destination string) (*domain.CheckoutSession, error) {
	destination = strings.TrimSpace(destination)
	key := fmt.Sprintf("%s:send:%s:%s", sessionID, target, destination)
	return s.shared(ctx, key, func(ctx context.Context) (*domain.CheckoutSession, error) {
		return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
			v := &sess.Verification
			if sess.Step != domain.StepVerification {
				return false, fmt.Errorf("%w: session is on %s", domain.ErrInvalidTransition, sess.Step)
			}
			if v.State.Target() != target {
				return false, fmt.Errorf("%w: expected %s entry, got %s", domain.ErrInvalidTransition, v.State.Target(), target)
			}
			next, err := v.State.Next(domain.EventSend)
			if err != nil {
				return false, err
			}
			if err := validateDestination(target, destination); err != nil {
				return false, err
			}

			req := domain.OTPRequest{SessionID: sess.ID, Target: target, Destination: destination}
			if err := s.gateway.Send(ctx, req); err != nil {
				return false, gatewayError("otp send", err)
			}

			switch target {
			case domain.TargetPhone:
				v.Phone = destination
			case domain.TargetEmail:
				v.Email = destination
			}
			v.State = next
			v.PendingTarget = target
			v.CooldownUntil = s.sessions.Now().Add(s.cooldown)
			s.logger.InfoContext(ctx, "otp sent", "session_id", sess.ID, "target", target)
			return true, nil
		})
	})
}

// VerifyCode checks code against the pending target. On the email code the
// whole checkout advances to the address step.
func (s *VerificationService) VerifyCode(ctx context.Context, sessionID, code string) (*domain.CheckoutSession, error) {
	code = strings.TrimSpace(code)
	return s.shared(ctx, sessionID+":verify:"+code, func(ctx context.Context) (*domain.CheckoutSession, error) {
		return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
			v := &sess.Verification
			if sess.Step != domain.StepVerification {
				return false, fmt.Errorf("%w: session is on %s", domain.ErrInvalidTransition, sess.Step)
			}
			next, err := v.State.Next(domain.EventVerify)
			if err != nil {
				return false, err
			}
			if err := ValidateCode(code); err != nil {
				return false, err
			}

			target := v.PendingTarget
			req := domain.OTPRequest{SessionID: sess.ID, Target: target, Destination: destinationOf(*v, target)}
			if err := s.gateway.Verify(ctx, req, code); err != nil {
				return false, gatewayError("otp verify", err)
			}

			switch target {
			case domain.TargetPhone:
				v.PhoneVerified = true
			case domain.TargetEmail:
				v.EmailVerified = true
			}
			v.State = next
			v.PendingTarget = domain.TargetNone
			v.CooldownUntil = time.Time{}

			if next == domain.VerifyDone {
				step, err := sess.Step.Transition(domain.StepAddress)
				if err != nil {
					return false, err
				}
				sess.Step = step
				sess.AddressDraft.Phone = v.Phone
				sess.AddressDraft.Email = v.Email
				if sess.AddressDraft.AddressType == "" {
					sess.AddressDraft.AddressType = domain.AddressHome
				}
				s.logger.InfoContext(ctx, "contact verified", "session_id", sess.ID)
			}
			return true, nil
		})
	})
}

// Resend re-issues the pending code once the cooldown has elapsed.
func (s *VerificationService) Resend(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return s.shared(ctx, sessionID+":resend", func(ctx context.Context) (*domain.CheckoutSession, error) {
		return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
			v := &sess.Verification
			if sess.Step != domain.StepVerification {
				return false, fmt.Errorf("%w: session is on %s", domain.ErrInvalidTransition, sess.Step)
			}
			next, err := v.State.Next(domain.EventResend)
			if err != nil {
				return false, err
			}
			now := s.sessions.Now()
			if left := v.ResendCooldownSeconds(now); left > 0 {
				return false, fmt.Errorf("%w: %ds left", domain.ErrCooldownActive, left)
			}

			target := v.PendingTarget
			req := domain.OTPRequest{SessionID: sess.ID, Target: target, Destination: destinationOf(*v, target)}
			if err := s.gateway.Send(ctx, req); err != nil {
				return false, gatewayError("otp resend", err)
			}
			v.State = next
			v.CooldownUntil = now.Add(s.cooldown)
			s.logger.InfoContext(ctx, "otp resent", "session_id", sess.ID, "target", target)
			return true, nil
		})
	})
}

// ChangeContact leaves the pending state for its entry state and drops the cooldown.
func (s *VerificationService) ChangeContact(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
		v := &sess.Verification
		if sess.Step != domain.StepVerification {
			return false, fmt.Errorf("%w: session is on %s", domain.ErrInvalidTransition, sess.Step)
		}
		next, err := v.State.Next(domain.EventChange)
		if err != nil {
			return false, err
		}
		v.State = next
		v.PendingTarget = domain.TargetNone
		v.CooldownUntil = time.Time{}
		return true, nil
	})
}

// WatchCooldown calls fn with the remaining resend cooldown once per tick until it
// reaches zero or ctx ends.
func (s *VerificationService) WatchCooldown(ctx context.Context, sessionID string, fn func(remaining int) error) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		sess, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		left := sess.Verification.ResendCooldownSeconds(s.sessions.Now())
		if err := fn(left); err != nil {
			return err
		}
		if left == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *VerificationService) shared(ctx context.Context, key string, fn func(context.Context) (*domain.CheckoutSession, error)) (*domain.CheckoutSession, error) {
	return shareFlight(ctx, &s.flights, key, fn)
}

func validateDestination(target domain.OTPTarget, destination string) error {
	switch target {
	case domain.TargetPhone:
		return ValidatePhone(destination)
	case domain.TargetEmail:
		return ValidateEmail(destination)
	default:
		return domain.NewValidationError("target", "target must be phone or email")
	}
}

func destinationOf(v domain.VerificationSession, target domain.OTPTarget) string {
	if target == domain.TargetEmail {
		return v.Email
	}
	return v.Phone
}

// gatewayError keeps domain outcomes as they are and turns anything else into a
// retryable NetworkFailure.
func gatewayError(op string, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrOtpMismatch),
		errors.Is(err, domain.ErrOtpExpired),
		errors.As(err, &ve):
		return err
	default:
		return domain.Network(op, err)
	}
}

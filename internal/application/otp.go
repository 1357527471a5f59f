// internal/application/otp.go
package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

const (
	DefaultCodeTTL     = 5 * time.Minute
	DefaultMaxAttempts = 5
)

// CodeGateway issues real codes: the hash lives in the code store, the plain
// code goes out through the notifier.
type CodeGateway struct {
	codes       ports.CodeStore
	notifier    ports.Notifier
	ttl         time.Duration
	maxAttempts int
	cost        int
	now         func() time.Time
	generate    func() (string, error)
}

func NewCodeGateway(codes ports.CodeStore, notifier ports.Notifier, ttl time.Duration, maxAttempts int) *CodeGateway {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &CodeGateway{
		codes:       codes,
		notifier:    notifier,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		generate:    generateCode,
	}
}

func (g *CodeGateway) Send(ctx context.Context, req domain.OTPRequest) error {
	code, err := g.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), g.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	key := codeKey(req)
	if err := g.codes.SaveCode(ctx, key, hash, g.ttl); err != nil {
		return domain.Network("store code", err)
	}
	msg := domain.OTPMessage{
		SessionID:   req.SessionID,
		Target:      req.Target,
		Destination: req.Destination,
		Code:        code,
		ExpiresAt:   g.now().Add(g.ttl),
	}
	if err := g.notifier.DispatchOTP(ctx, msg); err != nil {
		return domain.Network("dispatch code", err)
	}
	return nil
}

func (g *CodeGateway) Verify(ctx context.Context, req domain.OTPRequest, code string) error {
	key := codeKey(req)
	hash, attempts, err := g.codes.LoadCode(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrOtpExpired) {
			return err
		}
		return domain.Network("load code", err)
	}
	if attempts >= g.maxAttempts {
		_ = g.codes.DeleteCode(ctx, key)
		return domain.ErrOtpExpired
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		n, err := g.codes.IncrementAttempts(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrOtpExpired) {
				return err
			}
			return domain.Network("count attempt", err)
		}
		if n >= g.maxAttempts {
			_ = g.codes.DeleteCode(ctx, key)
		}
		return domain.ErrOtpMismatch
	}

	if err := g.codes.DeleteCode(ctx, key); err != nil {
		return domain.Network("consume code", err)
	}
	return nil
}

func codeKey(req domain.OTPRequest) string {
	return fmt.Sprintf("otp:%s:%s:%s", req.SessionID, req.Target, req.Destination)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// AcceptAnyCode accepts every well-formed code and sends nothing. It mirrors the
// storefront's simulated verifier and is only meant for demos and local runs.
type AcceptAnyCode struct {
	logger *slog.Logger
}

func NewAcceptAnyCode(logger *slog.Logger) *AcceptAnyCode {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcceptAnyCode{logger: logger}
}

func (a *AcceptAnyCode) Send(ctx context.Context, req domain.OTPRequest) error {
	a.logger.WarnContext(ctx, "otp stub: no code delivered", "session_id", req.SessionID, "target", req.Target)
	return nil
}

func (a *AcceptAnyCode) Verify(_ context.Context, _ domain.OTPRequest, code string) error {
	if !codePattern.MatchString(code) {
		return domain.ErrOtpMismatch
	}
	return nil
}

// internal/application/auth_service.go
package application

import (
	"context"
	"errors"
	"time"

	"github.com/vanamwellness/checkout-service/internal/ports"
	"github.com/vanamwellness/checkout-service/pkg/auth"
)

var ErrTokenRevoked = errors.New("token is blacklisted")

// AuthService hands out and checks the bearer tokens that bind a client to its checkout session.
type AuthService struct {
	issuer   *auth.Issuer
	denylist ports.TokenDenylist
	now      func() time.Time
}

func NewAuthService(issuer *auth.Issuer, denylist ports.TokenDenylist) *AuthService {
	return &AuthService{issuer: issuer, denylist: denylist, now: time.Now}
}

func (s *AuthService) TokenTTL() time.Duration { return s.issuer.TTL() }

func (s *AuthService) IssueToken(_ context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	token, _, err := s.issuer.GenerateToken(sessionID)
	return token, err
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.issuer.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return errors.New("token not found in context")
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(s.now()); left > 0 {
			ttl = left
		}
	}
	return s.denylist.Revoke(ctx, claims.ID, ttl)
}

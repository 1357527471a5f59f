// internal/application/auth_service_test.go
package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/vanamwellness/checkout-service/internal/ports"
	"github.com/vanamwellness/checkout-service/pkg/auth"
)

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	return iss
}

func TestAuthService_Authenticate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	denylist := ports.NewMockTokenDenylist(ctrl)
	svc := NewAuthService(newTestIssuer(t), denylist)

	token, err := svc.IssueToken(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name      string
		token     string
		mockSetup func()
		wantErr   error
	}{
		{
			name:  "Valid token",
			token: token,
			mockSetup: func() {
				denylist.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(false, nil)
			},
		},
		{
			name:  "Revoked token",
			token: token,
			mockSetup: func() {
				denylist.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr: ErrTokenRevoked,
		},
		{
			name:      "Malformed token",
			token:     "abc.def.ghi",
			mockSetup: func() {},
			wantErr:   auth.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			claims, err := svc.Authenticate(context.Background(), tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Authenticate() unexpected error: %v", err)
			}
			if claims == nil || claims.SessionID != "sess-1" {
				t.Errorf("Authenticate() claims = %+v, want session sess-1", claims)
			}
		})
	}
}

func TestAuthService_IssueToken_RequiresSession(t *testing.T) {
	svc := NewAuthService(newTestIssuer(t), nil)
	if _, err := svc.IssueToken(context.Background(), ""); err == nil {
		t.Error("IssueToken() with empty session id should fail")
	}
}

func TestAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	denylist := ports.NewMockTokenDenylist(ctrl)
	iss := newTestIssuer(t)
	svc := NewAuthService(iss, denylist)

	token, _ := svc.IssueToken(context.Background(), "sess-1")
	claims, _ := iss.ValidateToken(token)

	tests := []struct {
		name      string
		claims    *auth.Claims
		mockSetup func()
		wantErr   bool
		errMsg    string
	}{
		{
			name:   "Successful logout",
			claims: claims,
			mockSetup: func() {
				denylist.EXPECT().Revoke(gomock.Any(), claims.ID, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, ttl time.Duration) error {
						if ttl <= 0 || ttl > time.Hour {
							t.Errorf("Revoke() ttl = %v, want within token lifetime", ttl)
						}
						return nil
					})
			},
		},
		{
			name:      "Missing token",
			claims:    nil,
			mockSetup: func() {},
			wantErr:   true,
			errMsg:    "token not found in context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := svc.Logout(context.Background(), tt.claims)
			if tt.wantErr {
				if err == nil || err.Error() != tt.errMsg {
					t.Errorf("Logout() error = %v, wantErr %v, errMsg %v", err, tt.wantErr, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("Logout() unexpected error: %v", err)
			}
		})
	}
}

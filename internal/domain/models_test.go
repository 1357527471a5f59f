// internal/domain/models_test.go
package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestVerificationSession_ResendCooldownSeconds(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		until time.Time
		want  int
	}{
		{"no cooldown", time.Time{}, 0},
		{"full cooldown", now.Add(30 * time.Second), 30},
		{"partial second rounds up", now.Add(1500 * time.Millisecond), 2},
		{"elapsed", now.Add(-time.Second), 0},
		{"exactly now", now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := VerificationSession{CooldownUntil: tt.until}
			if got := v.ResendCooldownSeconds(now); got != tt.want {
				t.Errorf("ResendCooldownSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProduct_EffectivePrice(t *testing.T) {
	sale := int64(1999)
	zero := int64(0)
	if got := (Product{BasePrice: 2499, SalePrice: &sale}).EffectivePrice(); got != 1999 {
		t.Errorf("EffectivePrice() = %d, want 1999", got)
	}
	if got := (Product{BasePrice: 2499, SalePrice: &zero}).EffectivePrice(); got != 2499 {
		t.Errorf("EffectivePrice() = %d, want 2499", got)
	}
	if got := (Product{BasePrice: 2499}).EffectivePrice(); got != 2499 {
		t.Errorf("EffectivePrice() = %d, want 2499", got)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{NewValidationError("phone", "bad"), "validation"},
		{fmt.Errorf("wrap: %w", NewValidationError("phone", "bad")), "validation"},
		{Network("otp send", errors.New("dial tcp")), "network"},
		{fmt.Errorf("verify: %w", ErrOtpMismatch), "otp_mismatch"},
		{ErrOtpExpired, "otp_expired"},
		{ErrCooldownActive, "cooldown"},
		{ErrStepIncomplete, "step"},
		{ErrInvalidTransition, "step"},
		{ErrSessionNotFound, "not_found"},
		{ErrOutOfStock, "out_of_stock"},
		{ErrInvalidQuantity, "invalid_quantity"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNetwork_DoesNotDoubleWrap(t *testing.T) {
	base := errors.New("connection refused")
	err := Network("place order", Network("place order", base))
	var nf *NetworkFailure
	if !errors.As(err, &nf) || nf.Err != base {
		t.Errorf("Network() = %v, want single wrap of base error", err)
	}
	if Network("x", nil) != nil {
		t.Errorf("Network(nil) should be nil")
	}
}

func TestIsSupportedState(t *testing.T) {
	if !IsSupportedState("Karnataka") || !IsSupportedState("Ladakh") {
		t.Errorf("expected supported states")
	}
	if IsSupportedState("karnataka") || IsSupportedState("California") || IsSupportedState("") {
		t.Errorf("unexpected supported state")
	}
	if len(States) != 32 {
		t.Errorf("len(States) = %d, want 32", len(States))
	}
}

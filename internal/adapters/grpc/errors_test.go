// internal/adapters/grpc/errors_test.go
package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vanamwellness/checkout-service/internal/application"
	"github.com/vanamwellness/checkout-service/internal/domain"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", domain.NewValidationError("phone", "Enter a valid 10-digit mobile number"), codes.InvalidArgument},
		{"otp mismatch", domain.ErrOtpMismatch, codes.InvalidArgument},
		{"otp expired", domain.ErrOtpExpired, codes.FailedPrecondition},
		{"cooldown", fmt.Errorf("resend: %w", domain.ErrCooldownActive), codes.FailedPrecondition},
		{"invalid transition", domain.ErrInvalidTransition, codes.FailedPrecondition},
		{"step incomplete", domain.ErrStepIncomplete, codes.FailedPrecondition},
		{"session not found", domain.ErrSessionNotFound, codes.NotFound},
		{"product not found", domain.ErrProductNotFound, codes.NotFound},
		{"out of stock", domain.ErrOutOfStock, codes.FailedPrecondition},
		{"invalid quantity", domain.ErrInvalidQuantity, codes.InvalidArgument},
		{"network", domain.Network("place order", errors.New("connection refused")), codes.Unavailable},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"revoked token", application.ErrTokenRevoked, codes.Unauthenticated},
		{"already a status", status.Error(codes.ResourceExhausted, "slow down"), codes.ResourceExhausted},
		{"unknown", errors.New("nil map write"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
	require.NoError(t, toStatus(nil))
}

func TestToStatus_InternalHidesDetail(t *testing.T) {
	st := status.Convert(toStatus(errors.New("pq: password authentication failed")))
	require.Equal(t, "internal error", st.Message())
}

func TestFieldViolations(t *testing.T) {
	err := toStatus(&domain.ValidationError{Fields: domain.FieldErrors{
		"city":    "City is required",
		"pincode": "Valid 6-digit pincode is required",
	}})
	require.Equal(t, domain.FieldErrors{
		"city":    "City is required",
		"pincode": "Valid 6-digit pincode is required",
	}, FieldViolations(err))
	require.Empty(t, FieldViolations(status.Error(codes.NotFound, "gone")))
}

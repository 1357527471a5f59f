// internal/domain/errors.go
package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrOtpMismatch       = errors.New("otp does not match")
	ErrOtpExpired        = errors.New("otp expired, request a new code")
	ErrCooldownActive    = errors.New("resend not available yet")
	ErrInvalidTransition = errors.New("invalid step transition")
	ErrStepIncomplete    = errors.New("checkout step incomplete")
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOutOfStock        = errors.New("not enough stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrOrderNotFound     = errors.New("order not found")
)

// FieldErrors maps a field name to a user-facing message.
type FieldErrors map[string]string

func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidationError is a field-level input problem. It never advances state.
type ValidationError struct {
	Fields FieldErrors
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: FieldErrors{field: msg}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields.Fields() {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Kind() string { return "validation" }

// NetworkFailure wraps a failed call to an external collaborator. The triggering
// action can be retried as-is.
type NetworkFailure struct {
	Op  string
	Err error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkFailure) Unwrap() error { return e.Err }

func (e *NetworkFailure) Kind() string { return "network" }

func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NetworkFailure
	if errors.As(err, &nf) {
		return err
	}
	return &NetworkFailure{Op: op, Err: err}
}

// Kind classifies err for transports and logs.
func Kind(err error) string {
	var k interface{ Kind() string }
	switch {
	case err == nil:
		return ""
	case errors.As(err, &k):
		return k.Kind()
	case errors.Is(err, ErrOtpMismatch):
		return "otp_mismatch"
	case errors.Is(err, ErrOtpExpired):
		return "otp_expired"
	case errors.Is(err, ErrCooldownActive):
		return "cooldown"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrStepIncomplete):
		return "step"
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrProductNotFound), errors.Is(err, ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// internal/adapters/grpc/errors.go
package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vanamwellness/checkout-service/internal/application"
	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/pkg/auth"
)

// toStatus maps a service error onto a gRPC status. Unclassified errors become
// Internal with a generic message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return validationStatus(ve)
	}

	switch {
	case errors.Is(err, domain.ErrOtpMismatch), errors.Is(err, domain.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrOtpExpired),
		errors.Is(err, domain.ErrCooldownActive),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStepIncomplete),
		errors.Is(err, domain.ErrOutOfStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, application.ErrTokenRevoked), errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case domain.Kind(err) == "network":
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func validationStatus(ve *domain.ValidationError) error {
	st := status.New(codes.InvalidArgument, ve.Error())
	br := &errdetails.BadRequest{}
	for _, field := range ve.Fields.Fields() {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: ve.Fields[field],
		})
	}
	withDetails, err := st.WithDetails(br)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// FieldViolations returns the field errors carried by an InvalidArgument status.
func FieldViolations(err error) domain.FieldErrors {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	out := domain.FieldErrors{}
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				out[v.GetField()] = v.GetDescription()
			}
		}
	}
	return out
}

// internal/application/address.go
package application

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateAddress returns one message per failing field; an empty result means valid.
func ValidateAddress(d domain.AddressDraft) domain.FieldErrors {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(d.FullName) == "" {
		errs["fullName"] = "Full name is required"
	}
	if strings.TrimSpace(d.AddressLine1) == "" {
		errs["addressLine1"] = "Address is required"
	}
	if strings.TrimSpace(d.City) == "" {
		errs["city"] = "City is required"
	}
	switch state := strings.TrimSpace(d.State); {
	case state == "":
		errs["state"] = "State is required"
	case !domain.IsSupportedState(state):
		errs["state"] = "State is not supported"
	}
	if !pincodePattern.MatchString(strings.TrimSpace(d.Pincode)) {
		errs["pincode"] = "Valid 6-digit pincode is required"
	}
	switch d.AddressType {
	case "", domain.AddressHome, domain.AddressOffice, domain.AddressOther:
	default:
		errs["addressType"] = "Address type must be home, office or other"
	}
	return errs
}

// AddressService captures the shipping address of a verified session.
type AddressService struct {
	sessions *SessionManager
}

func NewAddressService(sessions *SessionManager) *AddressService {
	return &AddressService{sessions: sessions}
}

// UpdateField edits one draft field and clears only that field's error.
func (s *AddressService) UpdateField(ctx context.Context, sessionID, field, value string) (*domain.CheckoutSession, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
		if sess.Step != domain.StepAddress {
			return false, fmt.Errorf("%w: session is on %s", domain.ErrInvalidTransition, sess.Step)
		}
		d := &sess.AddressDraft
		switch field {
		case "fullName":
			d.FullName = value
		case "addressLine1":
			d.AddressLine1 = value
		case "addressLine2":
			d.AddressLine2 = value
		case "city":
			d.City = value
		case "state":
			d.State = value
		case "pincode":
			d.Pincode = value
		case "addressType":
			d.AddressType = domain.AddressType(value)
		case "landmark":
			d.Landmark = value
		case "phone", "email":
			return false, domain.NewValidationError(field, "Verified contact details cannot be edited here")
		default:
			return false, domain.NewValidationError(field, "Unknown address field")
		}
		delete(sess.AddressErrors, field)
		return true, nil
	})
}

// Submit validates draft (or the stored draft when nil) and on success freezes it
// and moves the checkout to payment. Failed validation keeps the step and records
// the field errors on the session.
func (s *AddressService) Submit(ctx context.Context, sessionID string, draft *domain.AddressDraft) (*domain.CheckoutSession, error) {
	return s.sessions.Update(ctx, sessionID, func(sess *domain.CheckoutSession) (bool, error) {
		if sess.Step != domain.StepAddress {
			return false, fmt.Errorf("%w: session is on %s", domain.ErrInvalidTransition, sess.Step)
		}
		if draft != nil {
			sess.AddressDraft = *draft
		}
		d := &sess.AddressDraft
		d.Phone = sess.Verification.Phone
		d.Email = sess.Verification.Email
		if d.AddressType == "" {
			d.AddressType = domain.AddressHome
		}

		if errs := ValidateAddress(*d); len(errs) > 0 {
			sess.AddressErrors = errs
			return true, &domain.ValidationError{Fields: errs}
		}

		next, err := sess.Step.Transition(domain.StepPayment)
		if err != nil {
			return false, err
		}
		record := freezeAddress(*d)
		sess.Address = &record
		sess.AddressErrors = nil
		sess.Step = next
		return true, nil
	})
}

func freezeAddress(d domain.AddressDraft) domain.AddressRecord {
	return domain.AddressRecord{
		FullName:     strings.TrimSpace(d.FullName),
		Phone:        d.Phone,
		Email:        d.Email,
		AddressLine1: strings.TrimSpace(d.AddressLine1),
		AddressLine2: strings.TrimSpace(d.AddressLine2),
		City:         strings.TrimSpace(d.City),
		State:        strings.TrimSpace(d.State),
		Pincode:      strings.TrimSpace(d.Pincode),
		AddressType:  d.AddressType,
		Landmark:     strings.TrimSpace(d.Landmark),
	}
}

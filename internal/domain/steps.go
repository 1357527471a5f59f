// internal/domain/steps.go
package domain

import "fmt"

// Step is the checkout step a session is on.
type Step string

const (
	StepVerification Step = "verification"
	StepAddress      Step = "address"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// Steps lists every step in flow order.
var Steps = []Step{StepVerification, StepAddress, StepPayment, StepConfirmation}

// stepTransitions holds forward edges first, then back edges. Confirmation is terminal.
var stepTransitions = map[Step][]Step{
	StepVerification: {StepAddress},
	StepAddress:      {StepPayment, StepVerification},
	StepPayment:      {StepConfirmation, StepAddress},
	StepConfirmation: {},
}

var stepBack = map[Step]Step{
	StepAddress: StepVerification,
	StepPayment: StepAddress,
}

func (s Step) Valid() bool {
	switch s {
	case StepVerification, StepAddress, StepPayment, StepConfirmation:
		return true
	default:
		return false
	}
}

func (s Step) CanTransition(to Step) bool {
	for _, next := range stepTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns to when the edge s -> to exists.
func (s Step) Transition(to Step) (Step, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return to, nil
}

// Back returns the step reached by backward navigation from s.
func (s Step) Back() (Step, error) {
	prev, ok := stepBack[s]
	if !ok {
		return s, fmt.Errorf("%w: no way back from %s", ErrInvalidTransition, s)
	}
	return prev, nil
}

// VerificationState is the state of the OTP sub-flow.
type VerificationState string

const (
	VerifyPhoneEntry   VerificationState = "phone-entry"
	VerifyPhonePending VerificationState = "phone-otp-pending"
	VerifyEmailEntry   VerificationState = "email-entry"
	VerifyEmailPending VerificationState = "email-otp-pending"
	VerifyDone         VerificationState = "verified"
)

var VerificationStates = []VerificationState{
	VerifyPhoneEntry, VerifyPhonePending, VerifyEmailEntry, VerifyEmailPending, VerifyDone,
}

type VerificationEvent string

const (
	EventSend   VerificationEvent = "send"
	EventVerify VerificationEvent = "verify"
	EventResend VerificationEvent = "resend"
	EventChange VerificationEvent = "change"
)

var verificationTransitions = map[VerificationState]map[VerificationEvent]VerificationState{
	VerifyPhoneEntry: {
		EventSend: VerifyPhonePending,
	},
	VerifyPhonePending: {
		EventVerify: VerifyEmailEntry,
		EventResend: VerifyPhonePending,
		EventChange: VerifyPhoneEntry,
	},
	VerifyEmailEntry: {
		EventSend: VerifyEmailPending,
	},
	VerifyEmailPending: {
		EventVerify: VerifyDone,
		EventResend: VerifyEmailPending,
		EventChange: VerifyEmailEntry,
	},
	VerifyDone: {},
}

func (s VerificationState) Valid() bool {
	switch s {
	case VerifyPhoneEntry, VerifyPhonePending, VerifyEmailEntry, VerifyEmailPending, VerifyDone:
		return true
	default:
		return false
	}
}

// Next applies ev to s.
func (s VerificationState) Next(ev VerificationEvent) (VerificationState, error) {
	next, ok := verificationTransitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: cannot %s in %s", ErrInvalidTransition, ev, s)
	}
	return next, nil
}

// Target is the contact channel the state is about.
func (s VerificationState) Target() OTPTarget {
	switch s {
	case VerifyPhoneEntry, VerifyPhonePending:
		return TargetPhone
	case VerifyEmailEntry, VerifyEmailPending:
		return TargetEmail
	default:
		return TargetNone
	}
}

func (s VerificationState) Pending() bool {
	return s == VerifyPhonePending || s == VerifyEmailPending
}

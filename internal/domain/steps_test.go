// internal/domain/steps_test.go
package domain

import (
	"errors"
	"testing"
)

func TestStep_Transitions(t *testing.T) {
	allowed := map[[2]Step]bool{
		{StepVerification, StepAddress}: true,
		{StepAddress, StepPayment}:      true,
		{StepAddress, StepVerification}: true,
		{StepPayment, StepConfirmation}: true,
		{StepPayment, StepAddress}:      true,
	}

	for _, from := range Steps {
		if !from.Valid() {
			t.Fatalf("step %q not valid", from)
		}
		if _, ok := stepTransitions[from]; !ok {
			t.Errorf("step %q missing from transition table", from)
		}
		for _, to := range Steps {
			want := allowed[[2]Step{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
			_, err := from.Transition(to)
			if want && err != nil {
				t.Errorf("Transition(%s -> %s) unexpected error: %v", from, to, err)
			}
			if !want && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Transition(%s -> %s) error = %v, want ErrInvalidTransition", from, to, err)
			}
		}
	}
}

func TestStep_Back(t *testing.T) {
	tests := []struct {
		from    Step
		want    Step
		wantErr bool
	}{
		{from: StepVerification, want: StepVerification, wantErr: true},
		{from: StepAddress, want: StepVerification},
		{from: StepPayment, want: StepAddress},
		{from: StepConfirmation, want: StepConfirmation, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, err := tt.from.Back()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Back() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Back() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerificationState_Next(t *testing.T) {
	tests := []struct {
		from    VerificationState
		ev      VerificationEvent
		want    VerificationState
		wantErr bool
	}{
		{VerifyPhoneEntry, EventSend, VerifyPhonePending, false},
		{VerifyPhoneEntry, EventVerify, VerifyPhoneEntry, true},
		{VerifyPhoneEntry, EventResend, VerifyPhoneEntry, true},
		{VerifyPhonePending, EventVerify, VerifyEmailEntry, false},
		{VerifyPhonePending, EventResend, VerifyPhonePending, false},
		{VerifyPhonePending, EventChange, VerifyPhoneEntry, false},
		{VerifyPhonePending, EventSend, VerifyPhonePending, true},
		{VerifyEmailEntry, EventSend, VerifyEmailPending, false},
		{VerifyEmailEntry, EventChange, VerifyEmailEntry, true},
		{VerifyEmailPending, EventVerify, VerifyDone, false},
		{VerifyEmailPending, EventChange, VerifyEmailEntry, false},
		{VerifyDone, EventSend, VerifyDone, true},
		{VerifyDone, EventChange, VerifyDone, true},
	}
	for _, tt := range tests {
		got, err := tt.from.Next(tt.ev)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Next(%s) error = %v, wantErr %v", tt.from, tt.ev, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("%s.Next(%s) = %s, want %s", tt.from, tt.ev, got, tt.want)
		}
	}

	for _, s := range VerificationStates {
		if !s.Valid() {
			t.Errorf("state %q not valid", s)
		}
		if _, ok := verificationTransitions[s]; !ok {
			t.Errorf("state %q missing from transition table", s)
		}
	}
}

func TestVerificationState_Target(t *testing.T) {
	if VerifyPhonePending.Target() != TargetPhone || VerifyEmailEntry.Target() != TargetEmail || VerifyDone.Target() != TargetNone {
		t.Errorf("unexpected targets")
	}
	if !VerifyEmailPending.Pending() || VerifyEmailEntry.Pending() {
		t.Errorf("unexpected pending flags")
	}
}

// internal/application/otp_test.go
package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

func newTestCodeGateway(ctrl *gomock.Controller) (*CodeGateway, *ports.MockCodeStore, *ports.MockNotifier) {
	codes := ports.NewMockCodeStore(ctrl)
	notifier := ports.NewMockNotifier(ctrl)
	g := NewCodeGateway(codes, notifier, 5*time.Minute, 3)
	g.cost = bcrypt.MinCost
	g.generate = func() (string, error) { return "424242", nil }
	return g, codes, notifier
}

var phoneReq = domain.OTPRequest{SessionID: "sess-1", Target: domain.TargetPhone, Destination: "9876543210"}

func TestCodeGateway_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g, codes, notifier := newTestCodeGateway(ctrl)
	key := "otp:sess-1:phone:9876543210"

	var stored []byte
	codes.EXPECT().SaveCode(gomock.Any(), key, gomock.Any(), 5*time.Minute).DoAndReturn(
		func(_ context.Context, _ string, hash []byte, _ time.Duration) error {
			stored = hash
			return nil
		})
	notifier.EXPECT().DispatchOTP(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg domain.OTPMessage) error {
			if msg.Code != "424242" || msg.Destination != "9876543210" || msg.Target != domain.TargetPhone {
				t.Errorf("DispatchOTP() message = %+v", msg)
			}
			return nil
		})

	if err := g.Send(context.Background(), phoneReq); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if bcrypt.CompareHashAndPassword(stored, []byte("424242")) != nil {
		t.Error("stored hash does not match the dispatched code")
	}
	if string(stored) == "424242" {
		t.Error("plain code stored")
	}
}

func TestCodeGateway_SendFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g, codes, notifier := newTestCodeGateway(ctrl)

	codes.EXPECT().SaveCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	if err := g.Send(context.Background(), phoneReq); domain.Kind(err) != "network" {
		t.Errorf("Send() with store failure error = %v, want network", err)
	}

	codes.EXPECT().SaveCode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	notifier.EXPECT().DispatchOTP(gomock.Any(), gomock.Any()).Return(errors.New("broker closed"))
	if err := g.Send(context.Background(), phoneReq); domain.Kind(err) != "network" {
		t.Errorf("Send() with dispatch failure error = %v, want network", err)
	}
}

func TestCodeGateway_Verify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g, codes, _ := newTestCodeGateway(ctrl)
	hash, _ := bcrypt.GenerateFromPassword([]byte("424242"), bcrypt.MinCost)
	key := "otp:sess-1:phone:9876543210"

	tests := []struct {
		name      string
		code      string
		mockSetup func()
		wantErr   error
		wantKind  string
	}{
		{
			name: "correct code consumes it",
			code: "424242",
			mockSetup: func() {
				codes.EXPECT().LoadCode(gomock.Any(), key).Return(hash, 0, nil)
				codes.EXPECT().DeleteCode(gomock.Any(), key).Return(nil)
			},
		},
		{
			name: "wrong code counts an attempt",
			code: "111111",
			mockSetup: func() {
				codes.EXPECT().LoadCode(gomock.Any(), key).Return(hash, 0, nil)
				codes.EXPECT().IncrementAttempts(gomock.Any(), key).Return(1, nil)
			},
			wantErr: domain.ErrOtpMismatch,
		},
		{
			name: "last wrong attempt burns the code",
			code: "111111",
			mockSetup: func() {
				codes.EXPECT().LoadCode(gomock.Any(), key).Return(hash, 2, nil)
				codes.EXPECT().IncrementAttempts(gomock.Any(), key).Return(3, nil)
				codes.EXPECT().DeleteCode(gomock.Any(), key).Return(nil)
			},
			wantErr: domain.ErrOtpMismatch,
		},
		{
			name: "attempts exhausted",
			code: "424242",
			mockSetup: func() {
				codes.EXPECT().LoadCode(gomock.Any(), key).Return(hash, 3, nil)
				codes.EXPECT().DeleteCode(gomock.Any(), key).Return(nil)
			},
			wantErr: domain.ErrOtpExpired,
		},
		{
			name: "no live code",
			code: "424242",
			mockSetup: func() {
				codes.EXPECT().LoadCode(gomock.Any(), key).Return(nil, 0, domain.ErrOtpExpired)
			},
			wantErr: domain.ErrOtpExpired,
		},
		{
			name: "store unreachable",
			code: "424242",
			mockSetup: func() {
				codes.EXPECT().LoadCode(gomock.Any(), key).Return(nil, 0, errors.New("i/o timeout"))
			},
			wantKind: "network",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := g.Verify(context.Background(), phoneReq, tt.code)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantKind != "":
				if domain.Kind(err) != tt.wantKind {
					t.Errorf("Verify() error = %v, want kind %s", err, tt.wantKind)
				}
			default:
				if err != nil {
					t.Errorf("Verify() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode() error = %v", err)
		}
		if !codePattern.MatchString(code) {
			t.Fatalf("generateCode() = %q, want 6 digits", code)
		}
	}
}

func TestAcceptAnyCode(t *testing.T) {
	stub := NewAcceptAnyCode(discardLogger())
	ctx := context.Background()
	if err := stub.Send(ctx, phoneReq); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	for _, code := range []string{"000000", "123456", "999999"} {
		if err := stub.Verify(ctx, phoneReq, code); err != nil {
			t.Errorf("Verify(%q) error = %v", code, err)
		}
	}
	if err := stub.Verify(ctx, phoneReq, "12345"); !errors.Is(err, domain.ErrOtpMismatch) {
		t.Errorf("Verify(short) error = %v, want ErrOtpMismatch", err)
	}
}

// internal/adapters/grpc/server.go
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vanamwellness/checkout-service/internal/application"
	"github.com/vanamwellness/checkout-service/internal/domain"
)

// Services bundles the application services the server delegates to.
type Services struct {
	Checkout     *application.CheckoutService
	Verification *application.VerificationService
	Address      *application.AddressService
	Catalog      *application.CatalogService
	Auth         *application.AuthService
}

type Server struct {
	checkout     *application.CheckoutService
	verification *application.VerificationService
	address      *application.AddressService
	catalog      *application.CatalogService
	authService  *application.AuthService
	logger       *slog.Logger
	now          func() time.Time
}

var _ CheckoutServer = (*Server)(nil)

func NewServer(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		checkout:     svc.Checkout,
		verification: svc.Verification,
		address:      svc.Address,
		catalog:      svc.Catalog,
		authService:  svc.Auth,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Server) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.ErrorContext(ctx, op+" failed", "error", err)
	}
	return st
}

func sessionIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.SessionID == "" {
		return "", status.Error(codes.Unauthenticated, "Unauthorized")
	}
	return claims.SessionID, nil
}

func (s *Server) view(sess *domain.CheckoutSession) *SessionResponse {
	return &SessionResponse{Session: &SessionView{
		CheckoutSession:       sess,
		ResendCooldownSeconds: sess.Verification.ResendCooldownSeconds(s.now()),
	}}
}

// sessionCall runs fn for the caller's session and renders the result.
func (s *Server) sessionCall(ctx context.Context, op string, fn func(sessionID string) (*domain.CheckoutSession, error)) (*SessionResponse, error) {
	sid, err := sessionIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := fn(sid)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return s.view(sess), nil
}

func (s *Server) StartCheckout(ctx context.Context, _ *Empty) (*StartCheckoutResponse, error) {
	sess, err := s.checkout.Start(ctx)
	if err != nil {
		return nil, s.fail(ctx, "start checkout", err)
	}
	token, err := s.authService.IssueToken(ctx, sess.ID)
	if err != nil {
		return nil, s.fail(ctx, "issue token", err)
	}
	return &StartCheckoutResponse{
		Session:     s.view(sess).Session,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.authService.TokenTTL() / time.Second),
	}, nil
}

func (s *Server) GetSession(ctx context.Context, _ *Empty) (*SessionResponse, error) {
	return s.sessionCall(ctx, "get session", func(sid string) (*domain.CheckoutSession, error) {
		return s.checkout.Get(ctx, sid)
	})
}

func (s *Server) SendOTP(ctx context.Context, req *SendOTPRequest) (*SessionResponse, error) {
	return s.sessionCall(ctx, "send otp", func(sid string) (*domain.CheckoutSession, error) {
		return s.verification.SendCode(ctx, sid, req.Target, req.Destination)
	})
}

func (s *Server) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*SessionResponse, error) {
	return s.sessionCall(ctx, "verify otp", func(sid string) (*domain.CheckoutSession, error) {
		return s.verification.VerifyCode(ctx, sid, req.Code)
	})
}

func (s *Server) ResendOTP(ctx context.Context, _ *Empty) (*SessionResponse, error) {
	return s.sessionCall(ctx, "resend otp", func(sid string) (*domain.CheckoutSession, error) {
		return s.verification.Resend(ctx, sid)
	})
}

func (s *Server) ChangeContact(ctx context.Context, _ *Empty) (*SessionResponse, error) {
	return s.sessionCall(ctx, "change contact", func(sid string) (*domain.CheckoutSession, error) {
		return s.verification.ChangeContact(ctx, sid)
	})
}

func (s *Server) UpdateAddressField(ctx context.Context, req *UpdateAddressFieldRequest) (*SessionResponse, error) {
	return s.sessionCall(ctx, "update address field", func(sid string) (*domain.CheckoutSession, error) {
		return s.address.UpdateField(ctx, sid, req.Field, req.Value)
	})
}

func (s *Server) SubmitAddress(ctx context.Context, req *SubmitAddressRequest) (*SessionResponse, error) {
	return s.sessionCall(ctx, "submit address", func(sid string) (*domain.CheckoutSession, error) {
		return s.address.Submit(ctx, sid, req.Address)
	})
}

func (s *Server) GoBack(ctx context.Context, _ *Empty) (*SessionResponse, error) {
	return s.sessionCall(ctx, "go back", func(sid string) (*domain.CheckoutSession, error) {
		return s.checkout.Back(ctx, sid)
	})
}

func (s *Server) SetItems(ctx context.Context, req *SetItemsRequest) (*SessionResponse, error) {
	return s.sessionCall(ctx, "set items", func(sid string) (*domain.CheckoutSession, error) {
		return s.checkout.SetItems(ctx, sid, req.Items)
	})
}

func (s *Server) Quote(ctx context.Context, _ *Empty) (*QuoteResponse, error) {
	sid, err := sessionIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.checkout.Quote(ctx, sid)
	if err != nil {
		return nil, s.fail(ctx, "quote", err)
	}
	return &QuoteResponse{Totals: totals}, nil
}

func (s *Server) CompletePayment(ctx context.Context, _ *Empty) (*SessionResponse, error) {
	return s.sessionCall(ctx, "complete payment", func(sid string) (*domain.CheckoutSession, error) {
		return s.checkout.CompletePayment(ctx, sid)
	})
}

func (s *Server) GetOrder(ctx context.Context, _ *Empty) (*OrderResponse, error) {
	sid, err := sessionIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.checkout.ConfirmedOrder(ctx, sid)
	if err != nil {
		return nil, s.fail(ctx, "get order", err)
	}
	return &OrderResponse{Order: order}, nil
}

// AbandonCheckout deletes the session and revokes the caller's token.
func (s *Server) AbandonCheckout(ctx context.Context, _ *Empty) (*MessageResponse, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}
	// a session that already expired or was deleted still gets its token revoked
	if err := s.checkout.Abandon(ctx, claims.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, s.fail(ctx, "abandon checkout", err)
	}
	if err := s.authService.Logout(ctx, claims); err != nil {
		return nil, s.fail(ctx, "logout", err)
	}
	return &MessageResponse{Message: "Checkout abandoned"}, nil
}

func (s *Server) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	page, err := s.catalog.ListProducts(ctx, req.ProductQuery)
	if err != nil {
		return nil, s.fail(ctx, "list products", err)
	}
	return &ListProductsResponse{ProductPage: page}, nil
}

func (s *Server) GetProduct(ctx context.Context, req *GetProductRequest) (*ProductResponse, error) {
	p, err := s.catalog.GetProduct(ctx, req.Slug)
	if err != nil {
		return nil, s.fail(ctx, "get product", err)
	}
	return &ProductResponse{Product: p}, nil
}

func (s *Server) ListCategories(ctx context.Context, _ *Empty) (*ListCategoriesResponse, error) {
	cats, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list categories", err)
	}
	return &ListCategoriesResponse{Categories: cats}, nil
}

func (s *Server) WatchCooldown(_ *Empty, stream CheckoutService_WatchCooldownServer) error {
	ctx := stream.Context()
	sid, err := sessionIDFromContext(ctx)
	if err != nil {
		return err
	}
	err = s.verification.WatchCooldown(ctx, sid, func(remaining int) error {
		return stream.Send(&CooldownTick{RemainingSeconds: remaining})
	})
	if err != nil {
		return s.fail(ctx, "watch cooldown", err)
	}
	return nil
}

// internal/adapters/grpc/messages.go
package grpc

import (
	"github.com/vanamwellness/checkout-service/internal/application"
	"github.com/vanamwellness/checkout-service/internal/domain"
)

type Empty struct{}

type StartCheckoutResponse struct {
	Session     *SessionView `json:"session"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
}

// SessionView is a checkout session as the client sees it.
type SessionView struct {
	*domain.CheckoutSession
	ResendCooldownSeconds int `json:"resendCooldownSeconds"`
}

type SessionResponse struct {
	Session *SessionView `json:"session"`
}

type SendOTPRequest struct {
	Target      domain.OTPTarget `json:"target"`
	Destination string           `json:"destination"`
}

type VerifyOTPRequest struct {
	Code string `json:"code"`
}

type UpdateAddressFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SubmitAddressRequest submits Address, or the stored draft when Address is nil.
type SubmitAddressRequest struct {
	Address *domain.AddressDraft `json:"address,omitempty"`
}

type SetItemsRequest struct {
	Items []application.ItemRequest `json:"items"`
}

type QuoteResponse struct {
	Totals domain.PricingBreakdown `json:"totals"`
}

type OrderResponse struct {
	Order *domain.OrderRecord `json:"order"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListProductsRequest struct {
	domain.ProductQuery
}

type ListProductsResponse struct {
	*domain.ProductPage
}

type GetProductRequest struct {
	Slug string `json:"slug"`
}

type ProductResponse struct {
	Product *domain.Product `json:"product"`
}

type ListCategoriesResponse struct {
	Categories []string `json:"categories"`
}

type CooldownTick struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

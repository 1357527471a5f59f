// internal/domain/models.go
package domain

import (
	"time"
)

type OTPTarget string

const (
	TargetNone  OTPTarget = ""
	TargetPhone OTPTarget = "phone"
	TargetEmail OTPTarget = "email"
)

type AddressType string

const (
	AddressHome   AddressType = "home"
	AddressOffice AddressType = "office"
	AddressOther  AddressType = "other"
)

// VerificationSession tracks proof of ownership of one phone number and one email address.
// PendingTarget is set only while a code for that target is outstanding.
type VerificationSession struct {
	State         VerificationState `json:"state"`
	Phone         string            `json:"phone,omitempty"`
	Email         string            `json:"email,omitempty"`
	PhoneVerified bool              `json:"phoneVerified"`
	EmailVerified bool              `json:"emailVerified"`
	PendingTarget OTPTarget         `json:"pendingOtpTarget,omitempty"`
	CooldownUntil time.Time         `json:"cooldownUntil,omitempty"`
}

// ResendCooldownSeconds returns the whole seconds left before a resend is allowed, rounded up.
func (v VerificationSession) ResendCooldownSeconds(now time.Time) int {
	if v.CooldownUntil.IsZero() || !now.Before(v.CooldownUntil) {
		return 0
	}
	left := v.CooldownUntil.Sub(now)
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}

func (v VerificationSession) Verified() bool {
	return v.PhoneVerified && v.EmailVerified
}

type AddressDraft struct {
	FullName     string      `json:"fullName"`
	Phone        string      `json:"phone"`
	Email        string      `json:"email"`
	AddressLine1 string      `json:"addressLine1"`
	AddressLine2 string      `json:"addressLine2,omitempty"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Pincode      string      `json:"pincode"`
	AddressType  AddressType `json:"addressType"`
	Landmark     string      `json:"landmark,omitempty"`
}

// AddressRecord is a validated, frozen shipping address.
type AddressRecord struct {
	FullName     string      `json:"fullName"`
	Phone        string      `json:"phone"`
	Email        string      `json:"email"`
	AddressLine1 string      `json:"addressLine1"`
	AddressLine2 string      `json:"addressLine2,omitempty"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Pincode      string      `json:"pincode"`
	AddressType  AddressType `json:"addressType"`
	Landmark     string      `json:"landmark,omitempty"`
}

type OrderLineItem struct {
	ProductID string `json:"productId"`
	Slug      string `json:"slug,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Currency  string `json:"currency"`
}

type PricingBreakdown struct {
	Subtotal int64  `json:"subtotal"`
	Shipping int64  `json:"shipping"`
	Tax      int64  `json:"tax"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

type OrderRecord struct {
	OrderID        string              `json:"orderId"`
	IdempotencyKey string              `json:"idempotencyKey"`
	Verification   VerificationSession `json:"verification"`
	Address        AddressRecord       `json:"address"`
	Items          []OrderLineItem     `json:"items"`
	Totals         PricingBreakdown    `json:"totals"`
	CreatedAt      time.Time           `json:"createdAt"`
}

type CheckoutSession struct {
	ID             string              `json:"id"`
	Step           Step                `json:"step"`
	Verification   VerificationSession `json:"verification"`
	AddressDraft   AddressDraft        `json:"addressDraft"`
	AddressErrors  FieldErrors         `json:"addressErrors,omitempty"`
	Address        *AddressRecord      `json:"address,omitempty"`
	Items          []OrderLineItem     `json:"items,omitempty"`
	IdempotencyKey string              `json:"idempotencyKey,omitempty"`
	Order          *OrderRecord        `json:"order,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

type ProductImage struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
	Order     int    `json:"order"`
}

type Inventory struct {
	Stock             int  `json:"stock"`
	LowStockThreshold int  `json:"lowStockThreshold"`
	TrackQuantity     bool `json:"trackQuantity"`
}

type Reviews struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

type Product struct {
	ID          string         `json:"_id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	SKU         string         `json:"sku"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory,omitempty"`
	Brand       string         `json:"brand,omitempty"`
	Images      []ProductImage `json:"images,omitempty"`
	BasePrice   int64          `json:"basePrice"`
	SalePrice   *int64         `json:"salePrice,omitempty"`
	Currency    string         `json:"currency"`
	Inventory   Inventory      `json:"inventory"`
	Status      string         `json:"status"`
	Featured    bool           `json:"featured"`
	Tags        []string       `json:"tags,omitempty"`
	Reviews     *Reviews       `json:"reviews,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (p Product) EffectivePrice() int64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.BasePrice
}

type ProductQuery struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Search    string `json:"search,omitempty"`
	Category  string `json:"category,omitempty"`
	Tag       string `json:"tag,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNextPage   bool `json:"hasNextPage"`
	HasPrevPage   bool `json:"hasPrevPage"`
	Limit         int  `json:"limit"`
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// OTPMessage is handed to the delivery worker; Code is the plain code.
type OTPMessage struct {
	SessionID   string    `json:"sessionId"`
	Target      OTPTarget `json:"target"`
	Destination string    `json:"destination"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// OTPRequest identifies one code challenge.
type OTPRequest struct {
	SessionID   string    `json:"sessionId"`
	Target      OTPTarget `json:"target"`
	Destination string    `json:"destination"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponType categorizes what a coupon grants
type CouponType string

const (
	TypeFixedAmount      CouponType = "FIXED_AMOUNT"
	TypePercentage       CouponType = "PERCENTAGE"
	TypeFreeMenu         CouponType = "FREE_MENU"
	TypeBuyOneGetOne     CouponType = "BUY_ONE_GET_ONE"
	TypeFreeDelivery     CouponType = "FREE_DELIVERY"
	TypeSpecialPromotion CouponType = "SPECIAL_PROMOTION"
)

// Coupon is a catalog entry
type Coupon struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	CouponType     CouponType      `json:"coupon_type"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	IsPercentage   bool            `json:"is_percentage"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// CouponStock is the remaining-quantity counter for one coupon (1:1 with Coupon).
// Version increments on every successful write; the optimistic strategy
// conditions its update on it to detect lost updates.
type CouponStock struct {
	ID                int64      `json:"id"`
	CouponID          int64      `json:"coupon_id"`
	TotalQuantity     int        `json:"total_quantity"`
	RemainingQuantity int        `json:"remaining_quantity"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// IssuanceStatus represents valid issuance states
type IssuanceStatus string

const (
	StatusActive    IssuanceStatus = "ACTIVE"
	StatusUsed      IssuanceStatus = "USED"
	StatusExpired   IssuanceStatus = "EXPIRED"
	StatusCancelled IssuanceStatus = "CANCELLED"
)

// CouponIssuance is one row of the issuance ledger, unique per (user, coupon)
type CouponIssuance struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	CouponID       int64          `json:"coupon_id"`
	Code           string         `json:"code"`
	Status         IssuanceStatus `json:"status"`
	IssuedAt       time.Time      `json:"issued_at"`
	UsedAt         *time.Time     `json:"used_at,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	OrderReference *string        `json:"order_reference,omitempty"`
}

// API Request/Response types

type CreateCouponRequest struct {
	Code           string          `json:"code" validate:"required,max=50"`
	Name           string          `json:"name" validate:"required,max=100"`
	Description    string          `json:"description" validate:"max=500"`
	CouponType     CouponType      `json:"coupon_type" validate:"required"`
	DiscountAmount decimal.Decimal `json:"discount_amount" validate:"required"`
	IsPercentage   bool            `json:"is_percentage"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	StartDate      time.Time       `json:"start_date" validate:"required"`
	EndDate        time.Time       `json:"end_date" validate:"required,gtfield=StartDate"`
	TotalQuantity  int             `json:"total_quantity" validate:"required,gt=0"`
}

type IssueRequest struct {
	CouponCode string `json:"coupon_code" validate:"required"`
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
}

type UseRequest struct {
	IssuanceCode   string `json:"issuance_code" validate:"required"`
	OrderReference string `json:"order_reference" validate:"required"`
}

type CancelRequest struct {
	IssuanceCode string `json:"issuance_code" validate:"required"`
}

// IssueResponse is the client view of a successful grant
type IssueResponse struct {
	ID           int64          `json:"id"`
	CouponID     int64          `json:"coupon_id"`
	CouponName   string         `json:"coupon_name"`
	CouponCode   string         `json:"coupon_code"`
	IssuanceCode string         `json:"issuance_code"`
	Status       IssuanceStatus `json:"status"`
	IssuedAt     time.Time      `json:"issued_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

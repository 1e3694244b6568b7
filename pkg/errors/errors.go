package errors

import "errors"

// Domain errors for the coupon system
var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponExists      = errors.New("coupon code already exists")
	ErrStockNotFound     = errors.New("coupon stock not found")
	ErrAlreadyIssued     = errors.New("coupon already issued to this user")
	ErrSoldOut           = errors.New("coupon sold out")
	ErrIssuanceNotFound  = errors.New("issuance not found")
	ErrNotActive         = errors.New("issuance is not active")
	ErrNotUsed           = errors.New("issuance has not been used")
	ErrExpired           = errors.New("coupon has expired")
	ErrVersionConflict   = errors.New("stock version conflict")
	ErrConflictExhausted = errors.New("issuance failed after retries, try again later")
	ErrLockNotAcquired   = errors.New("could not acquire lock, try again later")
)

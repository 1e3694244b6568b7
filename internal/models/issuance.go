package models

import (
	"time"

	apperrors "couponhub/pkg/errors"
)

// Use marks the issuance as consumed by an order. An active issuance past
// its expiry is moved to EXPIRED instead and the call is refused.
func (i *CouponIssuance) Use(orderReference string, now time.Time) error {
	switch i.Status {
	case StatusActive:
		if now.After(i.ExpiresAt) {
			i.Status = StatusExpired
			return apperrors.ErrExpired
		}
		i.Status = StatusUsed
		i.UsedAt = &now
		i.OrderReference = &orderReference
		return nil
	case StatusUsed, StatusExpired, StatusCancelled:
		return apperrors.ErrNotActive
	default:
		return apperrors.ErrNotActive
	}
}

// CancelUse undoes a single use, restoring the issuance to ACTIVE and
// clearing the usage fields. Only a USED issuance can be cancelled.
func (i *CouponIssuance) CancelUse() error {
	switch i.Status {
	case StatusUsed:
		i.Status = StatusActive
		i.UsedAt = nil
		i.OrderReference = nil
		return nil
	case StatusActive, StatusExpired, StatusCancelled:
		return apperrors.ErrNotUsed
	default:
		return apperrors.ErrNotUsed
	}
}

// Expire marks an active issuance as expired. Other states are left alone.
func (i *CouponIssuance) Expire() {
	if i.Status == StatusActive {
		i.Status = StatusExpired
	}
}

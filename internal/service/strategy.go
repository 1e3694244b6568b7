package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"couponhub/internal/models"
)

// Strategy serializes access to the shared stock counter for one coupon.
// Each implementation owns its transaction: it decrements the counter through
// its own mechanism and appends the ledger row in the same unit of work, so a
// failed insert never leaks a decrement.
type Strategy interface {
	Name() string
	Issue(ctx context.Context, coupon *models.Coupon, userID int64) (*models.CouponIssuance, error)
}

// newIssuanceCode generates a fresh unique code for a granted coupon
func newIssuanceCode() string {
	return "CP_" + strings.ToUpper(uuid.NewString()[:8])
}

package service

import (
	"context"
	"fmt"
	"time"

	"couponhub/internal/database"
	"couponhub/internal/lock"
	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

const (
	couponLockPrefix = "coupon:lock:"
	couponLockTTL    = 3000 * time.Millisecond
)

// RedisLockStrategy serializes all issuance attempts for one coupon across
// every server process by taking a coupon-scoped lock in the shared
// coordinator before touching the stock row. Acquisition is a single attempt;
// a held lock fails the request immediately. The TTL is the safety net
// against a crashed holder keeping the coupon locked.
type RedisLockStrategy struct {
	db     *database.DB
	locker lock.DistributedLock
}

func NewRedisLockStrategy(db *database.DB, locker lock.DistributedLock) *RedisLockStrategy {
	return &RedisLockStrategy{db: db, locker: locker}
}

func (s *RedisLockStrategy) Name() string { return "redis-lock" }

func (s *RedisLockStrategy) Issue(ctx context.Context, coupon *models.Coupon, userID int64) (*models.CouponIssuance, error) {
	key := couponLockPrefix + coupon.Code

	var issuance *models.CouponIssuance
	ran, err := lock.RunUnderLock(ctx, s.locker, key, couponLockTTL, func() error {
		result, err := s.issueLocked(coupon, userID)
		if err != nil {
			return err
		}
		issuance = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		return nil, apperrors.ErrLockNotAcquired
	}
	return issuance, nil
}

// issueLocked performs a plain read-check-decrement-write; the coupon-scoped
// lock is what serializes competing writers here.
func (s *RedisLockStrategy) issueLocked(coupon *models.Coupon, userID int64) (*models.CouponIssuance, error) {
	tx, err := s.db.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stock, err := s.db.GetStockTx(tx, coupon.ID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, apperrors.ErrStockNotFound
	}
	if stock.RemainingQuantity <= 0 {
		return nil, apperrors.ErrSoldOut
	}

	if err := s.db.UpdateStockTx(tx, stock.ID, stock.RemainingQuantity-1); err != nil {
		return nil, err
	}

	issuance, err := s.db.CreateIssuanceTx(tx, userID, coupon.ID, newIssuanceCode(), coupon.EndDate)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return issuance, nil
}

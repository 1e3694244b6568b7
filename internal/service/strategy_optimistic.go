package service

import (
	"context"
	"fmt"
	"log"

	"couponhub/internal/database"
	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

// OptimisticStrategy reads the stock row without any lock and writes it back
// conditioned on the version stamp being unchanged. Conflicts are detected,
// not prevented: the whole attempt is rolled back and retried with backoff.
type OptimisticStrategy struct {
	db *database.DB
}

func NewOptimisticStrategy(db *database.DB) *OptimisticStrategy {
	return &OptimisticStrategy{db: db}
}

func (s *OptimisticStrategy) Name() string { return "optimistic" }

func (s *OptimisticStrategy) Issue(ctx context.Context, coupon *models.Coupon, userID int64) (*models.CouponIssuance, error) {
	var issuance *models.CouponIssuance
	err := retryOnConflict(ctx, func() error {
		result, err := s.attempt(coupon, userID)
		if err != nil {
			return err
		}
		issuance = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issuance, nil
}

func (s *OptimisticStrategy) attempt(coupon *models.Coupon, userID int64) (*models.CouponIssuance, error) {
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

	updated, err := s.db.UpdateStockVersionedTx(tx, stock.ID, stock.RemainingQuantity-1, stock.Version)
	if err != nil {
		return nil, err
	}
	if !updated {
		log.Printf("Stock version conflict on coupon %s (version %d), retrying", coupon.Code, stock.Version)
		return nil, apperrors.ErrVersionConflict
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

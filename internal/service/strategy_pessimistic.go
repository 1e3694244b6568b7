package service

import (
	"context"
	"fmt"

	"couponhub/internal/database"
	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

// PessimisticStrategy takes an exclusive row lock on the stock row
// (SELECT ... FOR UPDATE) so competing transactions block until this one
// finishes. The transaction covers only the read-decrement-write and the
// ledger insert to keep the blocking window narrow.
type PessimisticStrategy struct {
	db *database.DB
}

func NewPessimisticStrategy(db *database.DB) *PessimisticStrategy {
	return &PessimisticStrategy{db: db}
}

func (s *PessimisticStrategy) Name() string { return "pessimistic" }

func (s *PessimisticStrategy) Issue(ctx context.Context, coupon *models.Coupon, userID int64) (*models.CouponIssuance, error) {
	tx, err := s.db.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stock, err := s.db.GetStockForUpdateTx(tx, coupon.ID)
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

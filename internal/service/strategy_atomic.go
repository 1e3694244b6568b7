package service

import (
	"context"
	"fmt"

	"couponhub/internal/database"
	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

// AtomicStrategy decrements the counter with a single conditional UPDATE,
// letting the store's row-level atomicity do the serialization. No blocking,
// no retries; zero rows affected means sold out. This is the default.
type AtomicStrategy struct {
	db *database.DB
}

func NewAtomicStrategy(db *database.DB) *AtomicStrategy {
	return &AtomicStrategy{db: db}
}

func (s *AtomicStrategy) Name() string { return "atomic" }

func (s *AtomicStrategy) Issue(ctx context.Context, coupon *models.Coupon, userID int64) (*models.CouponIssuance, error) {
	tx, err := s.db.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	decremented, err := s.db.DecrementStockAtomicTx(tx, coupon.ID)
	if err != nil {
		return nil, err
	}
	if !decremented {
		return nil, apperrors.ErrSoldOut
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

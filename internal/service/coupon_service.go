package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couponhub/internal/database"
	"couponhub/internal/lock"
	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

const useLockTTL = 3000 * time.Millisecond

// CouponService validates issuance preconditions and delegates the stock
// decrement plus ledger write to one of the interchangeable strategies.
type CouponService struct {
	db *database.DB

	pessimistic Strategy
	optimistic  Strategy
	atomic      Strategy
	redisLock   Strategy

	useLocked    lock.LockedFn
	cancelLocked lock.LockedFn
}

func NewCouponService(db *database.DB, locker lock.DistributedLock) *CouponService {
	s := &CouponService{
		db:          db,
		pessimistic: NewPessimisticStrategy(db),
		optimistic:  NewOptimisticStrategy(db),
		atomic:      NewAtomicStrategy(db),
		redisLock:   NewRedisLockStrategy(db, locker),
	}

	// use and cancel share one lock key per issuance so their
	// read-check-write sequences never interleave
	s.useLocked = lock.WithLock(locker, "coupon:use:#arg0", useLockTTL, func(ctx context.Context, args ...string) error {
		return s.useCoupon(args[0], args[1])
	})
	s.cancelLocked = lock.WithLock(locker, "coupon:use:#arg0", useLockTTL, func(ctx context.Context, args ...string) error {
		return s.cancelCoupon(args[0])
	})
	return s
}

// Issue grants the coupon using the default (atomic conditional update) strategy
func (s *CouponService) Issue(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error) {
	return s.issue(ctx, s.atomic, couponCode, userID)
}

func (s *CouponService) IssueWithPessimisticLock(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error) {
	return s.issue(ctx, s.pessimistic, couponCode, userID)
}

func (s *CouponService) IssueWithOptimisticLock(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error) {
	return s.issue(ctx, s.optimistic, couponCode, userID)
}

func (s *CouponService) IssueWithAtomicOperation(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error) {
	return s.issue(ctx, s.atomic, couponCode, userID)
}

func (s *CouponService) IssueWithRedisLock(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error) {
	return s.issue(ctx, s.redisLock, couponCode, userID)
}

// issue is the common preamble shared by every strategy: resolve the coupon,
// reject duplicate grants, then hand the decrement and ledger write to the
// strategy. The per-user pre-check is racy for two requests from the same
// user; the ledger's unique constraint is the backstop and strategies report
// that violation as ErrAlreadyIssued.
func (s *CouponService) issue(ctx context.Context, strategy Strategy, couponCode string, userID int64) (*models.IssueResponse, error) {
	coupon, err := s.db.GetCouponByCode(couponCode)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, apperrors.ErrCouponNotFound
	}

	issued, err := s.db.HasIssuance(userID, coupon.ID)
	if err != nil {
		return nil, err
	}
	if issued {
		return nil, apperrors.ErrAlreadyIssued
	}

	issuance, err := strategy.Issue(ctx, coupon, userID)
	if err != nil {
		return nil, err
	}

	return &models.IssueResponse{
		ID:           issuance.ID,
		CouponID:     coupon.ID,
		CouponName:   coupon.Name,
		CouponCode:   coupon.Code,
		IssuanceCode: issuance.Code,
		Status:       issuance.Status,
		IssuedAt:     issuance.IssuedAt,
		ExpiresAt:    issuance.ExpiresAt,
	}, nil
}

// UseCoupon marks an issued coupon as consumed by an order. The transition
// runs under a per-issuance named lock.
func (s *CouponService) UseCoupon(ctx context.Context, issuanceCode, orderReference string) error {
	return s.useLocked(ctx, issuanceCode, orderReference)
}

func (s *CouponService) useCoupon(issuanceCode, orderReference string) error {
	issuance, err := s.db.GetIssuanceByCode(issuanceCode)
	if err != nil {
		return err
	}
	if issuance == nil {
		return apperrors.ErrIssuanceNotFound
	}

	transitionErr := issuance.Use(orderReference, time.Now())
	if transitionErr != nil && !errors.Is(transitionErr, apperrors.ErrExpired) {
		return transitionErr
	}
	// an expiry detected here still has to reach the store
	if err := s.db.SaveIssuanceStatus(issuance); err != nil {
		return err
	}
	return transitionErr
}

// CancelCoupon undoes a prior use, restoring the issuance to ACTIVE
func (s *CouponService) CancelCoupon(ctx context.Context, issuanceCode string) error {
	return s.cancelLocked(ctx, issuanceCode)
}

func (s *CouponService) cancelCoupon(issuanceCode string) error {
	issuance, err := s.db.GetIssuanceByCode(issuanceCode)
	if err != nil {
		return err
	}
	if issuance == nil {
		return apperrors.ErrIssuanceNotFound
	}

	if err := issuance.CancelUse(); err != nil {
		return err
	}
	return s.db.SaveIssuanceStatus(issuance)
}

// CreateCoupon inserts a catalog entry together with its stock row
func (s *CouponService) CreateCoupon(req models.CreateCouponRequest) (*models.Coupon, *models.CouponStock, error) {
	tx, err := s.db.BeginTx()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	coupon, err := s.db.CreateCouponTx(tx, req)
	if err != nil {
		return nil, nil, err
	}
	stock, err := s.db.CreateStockTx(tx, coupon.ID, req.TotalQuantity)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return coupon, stock, nil
}

func (s *CouponService) GetCouponByCode(couponCode string) (*models.Coupon, error) {
	return s.db.GetCouponByCode(couponCode)
}

func (s *CouponService) GetCouponByID(couponID int64) (*models.Coupon, error) {
	return s.db.GetCouponByID(couponID)
}

func (s *CouponService) GetUserCoupons(userID int64) ([]models.CouponIssuance, error) {
	return s.db.GetUserIssuances(userID)
}

// GetRemainingQuantity reports the current stock counter for a coupon
func (s *CouponService) GetRemainingQuantity(couponCode string) (int, error) {
	coupon, err := s.db.GetCouponByCode(couponCode)
	if err != nil {
		return 0, err
	}
	if coupon == nil {
		return 0, apperrors.ErrCouponNotFound
	}
	stock, err := s.db.GetStockByCouponID(coupon.ID)
	if err != nil {
		return 0, err
	}
	if stock == nil {
		return 0, apperrors.ErrStockNotFound
	}
	return stock.RemainingQuantity, nil
}

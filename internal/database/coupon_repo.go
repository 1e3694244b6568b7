package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateCouponTx inserts a new catalog entry within tx
func (db *DB) CreateCouponTx(tx *sql.Tx, req models.CreateCouponRequest) (*models.Coupon, error) {
	var coupon models.Coupon
	err := tx.QueryRow(
		`INSERT INTO coupons (code, name, description, coupon_type, discount_amount, is_percentage, min_order_amount, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, code, name, description, coupon_type, discount_amount, is_percentage, min_order_amount, start_date, end_date, created_at, updated_at`,
		req.Code, req.Name, req.Description, req.CouponType, req.DiscountAmount,
		req.IsPercentage, req.MinOrderAmount, req.StartDate, req.EndDate,
	).Scan(&coupon.ID, &coupon.Code, &coupon.Name, &coupon.Description, &coupon.CouponType,
		&coupon.DiscountAmount, &coupon.IsPercentage, &coupon.MinOrderAmount,
		&coupon.StartDate, &coupon.EndDate, &coupon.CreatedAt, &coupon.UpdatedAt)

	if isUniqueViolation(err) {
		return nil, apperrors.ErrCouponExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return &coupon, nil
}

// GetCouponByCode retrieves a coupon by its catalog code
func (db *DB) GetCouponByCode(code string) (*models.Coupon, error) {
	return db.scanCoupon(db.QueryRow(
		`SELECT id, code, name, description, coupon_type, discount_amount, is_percentage, min_order_amount, start_date, end_date, created_at, updated_at
		 FROM coupons WHERE code = $1`,
		code,
	))
}

// GetCouponByID retrieves a coupon by ID
func (db *DB) GetCouponByID(id int64) (*models.Coupon, error) {
	return db.scanCoupon(db.QueryRow(
		`SELECT id, code, name, description, coupon_type, discount_amount, is_percentage, min_order_amount, start_date, end_date, created_at, updated_at
		 FROM coupons WHERE id = $1`,
		id,
	))
}

func (db *DB) scanCoupon(row *sql.Row) (*models.Coupon, error) {
	var coupon models.Coupon
	err := row.Scan(&coupon.ID, &coupon.Code, &coupon.Name, &coupon.Description,
		&coupon.CouponType, &coupon.DiscountAmount, &coupon.IsPercentage,
		&coupon.MinOrderAmount, &coupon.StartDate, &coupon.EndDate,
		&coupon.CreatedAt, &coupon.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &coupon, nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

const issuanceColumns = `id, user_id, coupon_id, code, status, issued_at, used_at, expires_at, order_reference`

// HasIssuance reports whether the user already holds an issuance for the coupon
func (db *DB) HasIssuance(userID, couponID int64) (bool, error) {
	var exists bool
	err := db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM coupon_issuances WHERE user_id = $1 AND coupon_id = $2)`,
		userID, couponID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check issuance: %w", err)
	}
	return exists, nil
}

// CreateIssuanceTx appends a ledger row within tx. A unique-constraint
// violation on (user_id, coupon_id) is reported as ErrAlreadyIssued; the
// constraint is the backstop against races the strategies fail to prevent.
func (db *DB) CreateIssuanceTx(tx *sql.Tx, userID, couponID int64, code string, expiresAt time.Time) (*models.CouponIssuance, error) {
	row := tx.QueryRow(
		`INSERT INTO coupon_issuances (user_id, coupon_id, code, status, expires_at)
		 VALUES ($1, $2, $3, 'ACTIVE', $4)
		 RETURNING `+issuanceColumns,
		userID, couponID, code, expiresAt,
	)
	issuance, err := scanIssuance(row)
	if isUniqueViolation(err) {
		return nil, apperrors.ErrAlreadyIssued
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create issuance: %w", err)
	}
	return issuance, nil
}

// GetIssuanceByCode retrieves an issuance by its unique code
func (db *DB) GetIssuanceByCode(code string) (*models.CouponIssuance, error) {
	issuance, err := scanIssuance(db.QueryRow(
		`SELECT `+issuanceColumns+` FROM coupon_issuances WHERE code = $1`,
		code,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance: %w", err)
	}
	return issuance, nil
}

// GetUserIssuances retrieves all issuances held by a user
func (db *DB) GetUserIssuances(userID int64) ([]models.CouponIssuance, error) {
	rows, err := db.Query(
		`SELECT `+issuanceColumns+` FROM coupon_issuances WHERE user_id = $1 ORDER BY issued_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get issuances: %w", err)
	}
	defer rows.Close()

	var issuances []models.CouponIssuance
	for rows.Next() {
		var i models.CouponIssuance
		err := rows.Scan(&i.ID, &i.UserID, &i.CouponID, &i.Code, &i.Status,
			&i.IssuedAt, &i.UsedAt, &i.ExpiresAt, &i.OrderReference)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issuance: %w", err)
		}
		issuances = append(issuances, i)
	}
	return issuances, nil
}

// SaveIssuanceStatus persists the mutable state of an issuance after a
// status transition
func (db *DB) SaveIssuanceStatus(issuance *models.CouponIssuance) error {
	_, err := db.Exec(
		`UPDATE coupon_issuances SET status = $2, used_at = $3, order_reference = $4 WHERE id = $1`,
		issuance.ID, issuance.Status, issuance.UsedAt, issuance.OrderReference,
	)
	if err != nil {
		return fmt.Errorf("failed to save issuance: %w", err)
	}
	return nil
}

func scanIssuance(row *sql.Row) (*models.CouponIssuance, error) {
	var i models.CouponIssuance
	err := row.Scan(&i.ID, &i.UserID, &i.CouponID, &i.Code, &i.Status,
		&i.IssuedAt, &i.UsedAt, &i.ExpiresAt, &i.OrderReference)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

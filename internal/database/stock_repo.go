package database

import (
	"database/sql"
	"fmt"

	"couponhub/internal/models"
)

const stockColumns = `id, coupon_id, total_quantity, remaining_quantity, version, created_at, updated_at`

// CreateStockTx inserts the stock row for a new coupon within tx
func (db *DB) CreateStockTx(tx *sql.Tx, couponID int64, totalQuantity int) (*models.CouponStock, error) {
	row := tx.QueryRow(
		`INSERT INTO coupon_stocks (coupon_id, total_quantity, remaining_quantity)
		 VALUES ($1, $2, $2)
		 RETURNING `+stockColumns,
		couponID, totalQuantity,
	)
	stock, err := scanStock(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock: %w", err)
	}
	return stock, nil
}

// GetStockByCouponID reads the stock row without any lock
func (db *DB) GetStockByCouponID(couponID int64) (*models.CouponStock, error) {
	stock, err := scanStock(db.QueryRow(
		`SELECT `+stockColumns+` FROM coupon_stocks WHERE coupon_id = $1`,
		couponID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

// GetStockTx reads the stock row within tx without any lock
func (db *DB) GetStockTx(tx *sql.Tx, couponID int64) (*models.CouponStock, error) {
	stock, err := scanStock(tx.QueryRow(
		`SELECT `+stockColumns+` FROM coupon_stocks WHERE coupon_id = $1`,
		couponID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

// GetStockForUpdateTx reads the stock row holding an exclusive row lock for
// the remainder of tx. Concurrent callers block until tx commits or rolls back.
func (db *DB) GetStockForUpdateTx(tx *sql.Tx, couponID int64) (*models.CouponStock, error) {
	stock, err := scanStock(tx.QueryRow(
		`SELECT `+stockColumns+` FROM coupon_stocks WHERE coupon_id = $1 FOR UPDATE`,
		couponID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock: %w", err)
	}
	return stock, nil
}

// UpdateStockTx writes remainingQuantity unconditionally, bumping the version.
// Used where serialization is guaranteed by an outer lock.
func (db *DB) UpdateStockTx(tx *sql.Tx, stockID int64, remainingQuantity int) error {
	_, err := tx.Exec(
		`UPDATE coupon_stocks
		 SET remaining_quantity = $2, version = version + 1, updated_at = NOW()
		 WHERE id = $1`,
		stockID, remainingQuantity,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// UpdateStockVersionedTx writes remainingQuantity only if the row's version
// still matches expectedVersion. It reports false when another writer got
// there first.
func (db *DB) UpdateStockVersionedTx(tx *sql.Tx, stockID int64, remainingQuantity int, expectedVersion int64) (bool, error) {
	result, err := tx.Exec(
		`UPDATE coupon_stocks
		 SET remaining_quantity = $2, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $3`,
		stockID, remainingQuantity, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// DecrementStockAtomicTx decrements the counter and filters on remaining
// stock in one statement, letting the store's row-level atomicity serialize
// competing writers. It reports false when the coupon is sold out.
func (db *DB) DecrementStockAtomicTx(tx *sql.Tx, couponID int64) (bool, error) {
	result, err := tx.Exec(
		`UPDATE coupon_stocks
		 SET remaining_quantity = remaining_quantity - 1, version = version + 1, updated_at = NOW()
		 WHERE coupon_id = $1 AND remaining_quantity > 0`,
		couponID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func scanStock(row *sql.Row) (*models.CouponStock, error) {
	var stock models.CouponStock
	err := row.Scan(&stock.ID, &stock.CouponID, &stock.TotalQuantity,
		&stock.RemainingQuantity, &stock.Version, &stock.CreatedAt, &stock.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

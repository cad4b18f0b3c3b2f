package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance-tracker/internal/models"
)

// UpsertBudget sets the budget amount for (accountID, category), creating the
// row if needed. created reports whether a new row was inserted.
//
// The UNIQUE(account_id, category) constraint with ON CONFLICT is what keeps
// concurrent upserts to one row; the existence probe only picks the report.
func (db *DB) UpsertBudget(ctx context.Context, accountID int64, category string, amount float64) (b *models.Budget, created bool, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingID int64
	err = tx.QueryRowContext(ctx, db.rebind(
		"SELECT id FROM budgets WHERE account_id = ? AND category = ?"),
		accountID, category,
	).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("probe budget: %w", err)
	}

	budget := models.Budget{AccountID: accountID}
	err = tx.QueryRowContext(ctx, db.rebind(`
		INSERT INTO budgets (account_id, category, amount) VALUES (?, ?, ?)
		ON CONFLICT (account_id, category) DO UPDATE SET amount = excluded.amount
		RETURNING id, category, amount`),
		accountID, category, amount,
	).Scan(&budget.ID, &budget.Category, &budget.Amount)
	if err != nil {
		return nil, false, fmt.Errorf("upsert budget: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit upsert: %w", err)
	}
	return &budget, created, nil
}

// ListBudgets retrieves all budgets of an account in insertion order.
func (db *DB) ListBudgets(ctx context.Context, accountID int64) ([]models.Budget, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		"SELECT id, category, amount FROM budgets WHERE account_id = ? ORDER BY id"),
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b := models.Budget{AccountID: accountID}
		if err := rows.Scan(&b.ID, &b.Category, &b.Amount); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// DeleteBudget removes budget id if accountID owns it. A missing budget and
// one owned by another account both yield ErrNotFound.
func (db *DB) DeleteBudget(ctx context.Context, accountID, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(
		"DELETE FROM budgets WHERE id = ? AND account_id = ?"),
		id, accountID,
	)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finance-tracker/internal/models"
)

// CreateTransaction inserts a transaction owned by accountID.
func (db *DB) CreateTransaction(ctx context.Context, accountID int64, description string, amount float64, category *string) (*models.Transaction, error) {
	t := models.Transaction{
		Description: description,
		Amount:      amount,
		Category:    category,
		AccountID:   accountID,
	}
	err := db.conn.QueryRowContext(ctx, db.rebind(
		"INSERT INTO transactions (description, amount, category, account_id) VALUES (?, ?, ?, ?) RETURNING id"),
		description, amount, nullString(category), accountID,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &t, nil
}

// ListTransactions retrieves all transactions of an account in insertion order.
func (db *DB) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		"SELECT id, description, amount, category FROM transactions WHERE account_id = ? ORDER BY id"),
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t := models.Transaction{AccountID: accountID}
		var category sql.NullString
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &category); err != nil {
			return nil, err
		}
		t.Category = stringPtr(category)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// SumByCategory returns the summed amount per category for an account. The
// uncategorized group, if any, comes first.
func (db *DB) SumByCategory(ctx context.Context, accountID int64) ([]models.CategoryTotal, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT category, SUM(amount)
		FROM transactions
		WHERE account_id = ?
		GROUP BY category
		ORDER BY (category IS NULL) DESC, category`),
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var ct models.CategoryTotal
		var category sql.NullString
		if err := rows.Scan(&category, &ct.Total); err != nil {
			return nil, err
		}
		ct.Category = stringPtr(category)
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

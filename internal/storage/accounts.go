package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance-tracker/internal/apperr"
	"finance-tracker/internal/models"
)

const accountColumns = "id, username, password_hash, created_at"

// CreateAccount creates a new account with the given username and password hash.
// A username that is already taken yields apperr.ErrDuplicateUsername.
func (db *DB) CreateAccount(ctx context.Context, username, passwordHash string) (*models.Account, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, db.rebind(
		"INSERT INTO accounts (username, password_hash) VALUES (?, ?) RETURNING id"),
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return db.GetAccountByID(ctx, id)
}

// GetAccountByID retrieves an account by ID.
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?"), id)
	return scanAccount(row)
}

// GetAccountByUsername retrieves an account by username.
func (db *DB) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(
		"SELECT "+accountColumns+" FROM accounts WHERE username = ?"), username)
	return scanAccount(row)
}

// AccountCount returns the number of accounts in the database.
func (db *DB) AccountCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count)
	return count, err
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

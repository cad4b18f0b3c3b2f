package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"finance-tracker/internal/models"
)

// CreateSession creates a new session for an account.
func (db *DB) CreateSession(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(
		"INSERT INTO sessions (token, account_id, expires_at, last_activity) VALUES (?, ?, ?, ?)"),
		token, accountID, expiresAt.Unix(), time.Now().Unix(),
	)
	return err
}

// LookupSession returns the session for token if it has not expired.
func (db *DB) LookupSession(ctx context.Context, token string) (*models.SessionInfo, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(
		"SELECT account_id, last_activity, expires_at FROM sessions WHERE token = ? AND expires_at > ?"),
		token, time.Now().Unix(),
	)

	var lastActivity, expiresAt int64
	info := models.SessionInfo{Token: token}
	if err := row.Scan(&info.AccountID, &lastActivity, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info.LastActivity = time.Unix(lastActivity, 0)
	info.ExpiresAt = time.Unix(expiresAt, 0)
	return &info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?"),
		time.Now().Unix(), newExpiresAt.Unix(), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM sessions WHERE token = ?"), token)
	return err
}

// CleanExpiredSessions removes all expired sessions and reports how many went.
func (db *DB) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM sessions WHERE expires_at <= ?"), time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

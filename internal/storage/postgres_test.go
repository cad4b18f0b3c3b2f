package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"finance-tracker/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn, dialect: DialectPostgres}, mock
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	lite := &DB{dialect: DialectSQLite}

	q := "SELECT id FROM budgets WHERE account_id = ? AND category = ?"
	assert.Equal(t, "SELECT id FROM budgets WHERE account_id = $1 AND category = $2", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestPostgresUpsertBudget_Insert(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM budgets WHERE account_id = $1 AND category = $2")).
		WithArgs(int64(1), "Food").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (account_id, category) DO UPDATE SET amount = excluded.amount")).
		WithArgs(int64(1), "Food", 100.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "amount"}).AddRow(int64(7), "Food", 100.0))
	mock.ExpectCommit()

	b, created, err := db.UpsertBudget(context.Background(), 1, "Food", 100)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(7), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertBudget_Update(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM budgets")).
		WithArgs(int64(1), "Food").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO budgets")).
		WithArgs(int64(1), "Food", 150.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "amount"}).AddRow(int64(7), "Food", 150.0))
	mock.ExpectCommit()

	b, created, err := db.UpsertBudget(context.Background(), 1, "Food", 150)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 150.0, b.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertBudget_RollsBackOnError(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM budgets")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO budgets")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := db.UpsertBudget(context.Background(), 1, "Food", 150)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert budget")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateAccount_UniqueViolation(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts (username, password_hash) VALUES ($1, $2) RETURNING id")).
		WithArgs("alice", "hash").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := db.CreateAccount(context.Background(), "alice", "hash")
	assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteBudget_NotOwned(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM budgets WHERE id = $1 AND account_id = $2")).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.DeleteBudget(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

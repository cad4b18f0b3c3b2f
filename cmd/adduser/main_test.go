package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"finance-tracker/internal/accounts"
	"finance-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDatabaseEnv(t *testing.T) {
	t.Setenv("FINANCE_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PATH", "")
}

func TestRun_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_success.db")

	stdout := new(bytes.Buffer)
	args := []string{"-user", "alice", "-password", "secret", "-db", dbPath}
	err := run(args, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Account alice created successfully")

	// The account can log in with the given password
	db, err := storage.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = accounts.NewService(db, nil).Verify(context.Background(), "alice", "secret")
	assert.NoError(t, err)
}

func TestRun_SQLiteURL(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "url.db")

	stdout := new(bytes.Buffer)
	args := []string{"-user", "alice", "-password", "secret", "-db", "sqlite://" + dbPath}
	require.NoError(t, run(args, new(bytes.Buffer), stdout, new(bytes.Buffer)))
	assert.FileExists(t, dbPath)
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_duplicate.db")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-user", "alice", "-password", "secret", "-db", dbPath}

	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err, "first run should succeed")

	stdout.Reset()
	stderr.Reset()
	err = run([]string{"-user", " alice ", "-password", "other", "-db", dbPath}, stdin, stdout, stderr)
	require.Error(t, err, "expected error on duplicate account")
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingUserFlag(t *testing.T) {
	stdout := new(bytes.Buffer)

	err := run([]string{"-password", "secret"}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.Error(t, err, "expected error for missing user flag")
	assert.Contains(t, err.Error(), "missing required flags: user")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_interactive.db")
	stdout := new(bytes.Buffer)
	stdin := bytes.NewBufferString("interactive_secret\n")

	args := []string{"-user", "interactive_user", "-db", dbPath}
	err := run(args, stdin, stdout, new(bytes.Buffer))
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "Password: ")
	assert.Contains(t, output, "Account interactive_user created successfully")
}

func TestRun_InteractivePassword_Empty(t *testing.T) {
	stdin := bytes.NewBufferString("\n")

	err := run([]string{"-user", "empty_pass_user"}, stdin, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "expected error for empty password")
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_EnvVarOverride(t *testing.T) {
	clearDatabaseEnv(t)
	dbPath := filepath.Join(t.TempDir(), "test_env.db")
	t.Setenv("DB_PATH", dbPath)

	args := []string{"-user", "envuser", "-password", "secret"}
	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestResolveDatabase(t *testing.T) {
	clearDatabaseEnv(t)
	assert.Equal(t, defaultDatabase, resolveDatabase(""))

	t.Setenv("DB_PATH", "/tmp/a.db")
	assert.Equal(t, "/tmp/a.db", resolveDatabase(""))

	t.Setenv("DATABASE_URL", "postgres://localhost/finance")
	assert.Equal(t, "postgres://localhost/finance", resolveDatabase(""))

	assert.Equal(t, "flag.db", resolveDatabase("flag.db"))
}

func TestRun_InvalidDBPath(t *testing.T) {
	// A directory is not a database file
	args := []string{"-user", "failuser", "-password", "secret", "-db", t.TempDir()}
	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "expected error for invalid db path")
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	err := run([]string{"-invalid"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err, "expected error for invalid flag")
	assert.Contains(t, err.Error(), "flag provided but not defined")
}

package accounts

import (
	"context"
	"testing"

	"finance-tracker/internal/apperr"
	"finance-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AccountsTestSuite struct {
	suite.Suite
	db  *storage.DB
	svc *Service
	ctx context.Context
}

func (suite *AccountsTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.svc = NewService(db, nil)
	suite.ctx = context.Background()
}

func (suite *AccountsTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *AccountsTestSuite) TestRegisterThenVerify() {
	account, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", account.Username)
	assert.NotEqual(suite.T(), "pw1", account.PasswordHash)

	verified, err := suite.svc.Verify(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), account.ID, verified.ID)
}

func (suite *AccountsTestSuite) TestVerifyWrongPassword() {
	_, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)

	for _, pw := range []string{"pw2", "", "PW1", "pw1 "} {
		_, err := suite.svc.Verify(suite.ctx, "alice", pw)
		assert.ErrorIs(suite.T(), err, apperr.ErrInvalidCredentials, "password %q", pw)
	}
}

func (suite *AccountsTestSuite) TestVerifyUnknownUserSameError() {
	_, err := suite.svc.Verify(suite.ctx, "ghost", "pw1")
	assert.ErrorIs(suite.T(), err, apperr.ErrInvalidCredentials)
	assert.Equal(suite.T(), "Invalid username or password.", err.Error())
}

func (suite *AccountsTestSuite) TestRegisterDuplicate() {
	_, err := suite.svc.Register(suite.ctx, "alice", "pw1")
	require.NoError(suite.T(), err)

	_, err = suite.svc.Register(suite.ctx, "alice", "other")
	assert.ErrorIs(suite.T(), err, apperr.ErrDuplicateUsername)

	count, err := suite.db.AccountCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count, "duplicate registration must not create a row")

	// The original password still works
	_, err = suite.svc.Verify(suite.ctx, "alice", "pw1")
	assert.NoError(suite.T(), err)
}

func (suite *AccountsTestSuite) TestRegisterRequiresFields() {
	tests := []struct {
		username string
		password string
	}{
		{"", "pw"},
		{"   ", "pw"},
		{"alice", ""},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := suite.svc.Register(suite.ctx, tt.username, tt.password)
		assert.ErrorIs(suite.T(), err, apperr.ErrInvalidInput)
	}

	count, err := suite.db.AccountCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), count)
}

func TestAccountsSuite(t *testing.T) {
	suite.Run(t, new(AccountsTestSuite))
}

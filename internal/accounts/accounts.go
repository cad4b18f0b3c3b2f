package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"finance-tracker/internal/apperr"
	"finance-tracker/internal/auth"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/go-playground/validator/v10"
)

// Store persists accounts.
type Store interface {
	CreateAccount(ctx context.Context, username, passwordHash string) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
}

// Credentials is a username/password pair as submitted by a user.
type Credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Service registers accounts and verifies credentials.
type Service struct {
	store    Store
	validate *validator.Validate
	metrics  *metrics.Metrics
}

// NewService creates a new Service. m may be nil.
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
	}
}

// Register creates an account storing only a hash of password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.Account, error) {
	creds := Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := s.validate.Struct(creds); err != nil {
		return nil, apperr.InvalidInput("Username and password are required.")
	}

	// The unique index is authoritative; this only avoids hashing for a
	// name that is obviously taken.
	if _, err := s.store.GetAccountByUsername(ctx, creds.Username); err == nil {
		return nil, apperr.ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.store.CreateAccount(ctx, creds.Username, hash)
	if err != nil {
		return nil, err
	}
	s.metrics.IncAccountsRegistered()
	return account, nil
}

// Verify returns the account for username if password matches. Unknown
// usernames and wrong passwords both yield apperr.ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, username, password string) (*models.Account, error) {
	account, err := s.store.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("lookup account: %w", err)
		}
		// Burn a comparison so unknown users cost the same as known ones.
		auth.CheckPassword(password, dummyHash())
		s.metrics.IncLoginAttempt(false)
		return nil, apperr.ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, account.PasswordHash) {
		s.metrics.IncLoginAttempt(false)
		return nil, apperr.ErrInvalidCredentials
	}
	s.metrics.IncLoginAttempt(true)
	return account, nil
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Account, error) {
	return s.store.GetAccountByID(ctx, id)
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = auth.HashPassword("not-a-real-password")
	})
	return dummy
}

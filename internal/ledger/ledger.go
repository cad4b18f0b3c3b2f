package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"finance-tracker/internal/apperr"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/go-playground/validator/v10"
)

// Store persists transactions and budgets scoped by account.
type Store interface {
	CreateTransaction(ctx context.Context, accountID int64, description string, amount float64, category *string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
	SumByCategory(ctx context.Context, accountID int64) ([]models.CategoryTotal, error)
	UpsertBudget(ctx context.Context, accountID int64, category string, amount float64) (*models.Budget, bool, error)
	ListBudgets(ctx context.Context, accountID int64) ([]models.Budget, error)
	DeleteBudget(ctx context.Context, accountID, id int64) error
}

// NewTransaction is an add-transaction request. Amount holds the raw
// decoded JSON value and is coerced by the service.
type NewTransaction struct {
	Description string  `json:"description"`
	Amount      any     `json:"amount"`
	Category    *string `json:"category"`
}

// NewBudget is an upsert-budget request.
type NewBudget struct {
	Category string `json:"category"`
	Amount   any    `json:"amount"`
}

var (
	errAmountNotNumber = apperr.InvalidInput("Amount must be a number.")
	errBudgetNotFound  = apperr.NotFound("Budget not found.")
)

// Service validates ledger input and delegates to a Store.
type Service struct {
	store    Store
	validate *validator.Validate
	metrics  *metrics.Metrics
}

// NewService creates a new Service. m may be nil.
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		metrics:  m,
	}
}

func (s *Service) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, accountID)
}

// AddTransaction records a transaction for accountID.
func (s *Service) AddTransaction(ctx context.Context, accountID int64, in NewTransaction) (*models.Transaction, error) {
	if s.validate.Var(in.Description, "required") != nil || in.Amount == nil {
		return nil, apperr.InvalidInput("Description and amount are required.")
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.CreateTransaction(ctx, accountID, in.Description, amount, in.Category)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	s.metrics.IncTransactionsCreated()
	return tx, nil
}

// Summarize totals the account's transactions per category. A nil category
// is its own group.
func (s *Service) Summarize(ctx context.Context, accountID int64) ([]models.CategoryTotal, error) {
	return s.store.SumByCategory(ctx, accountID)
}

func (s *Service) ListBudgets(ctx context.Context, accountID int64) ([]models.Budget, error) {
	return s.store.ListBudgets(ctx, accountID)
}

// UpsertBudget sets the budget for a category, reporting whether a new row
// was created.
func (s *Service) UpsertBudget(ctx context.Context, accountID int64, in NewBudget) (*models.Budget, bool, error) {
	if s.validate.Var(in.Category, "required") != nil || in.Amount == nil {
		return nil, false, apperr.InvalidInput("Category and amount are required.")
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, false, err
	}

	b, created, err := s.store.UpsertBudget(ctx, accountID, in.Category, amount)
	if err != nil {
		return nil, false, fmt.Errorf("upsert budget: %w", err)
	}
	s.metrics.IncBudgetsUpserted(created)
	return b, created, nil
}

// DeleteBudget removes a budget owned by accountID. Missing and foreign ids
// both report apperr.ErrNotFound.
func (s *Service) DeleteBudget(ctx context.Context, accountID, id int64) error {
	err := s.store.DeleteBudget(ctx, accountID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return errBudgetNotFound
	}
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.metrics.IncBudgetsDeleted()
	return nil
}

// ParseAmount coerces a decoded JSON value to a finite float. Numbers and
// numeric strings are accepted.
func ParseAmount(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, errAmountNotNumber
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errAmountNotNumber
	}
	return f, nil
}

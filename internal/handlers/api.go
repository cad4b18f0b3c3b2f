package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"finance-tracker/internal/apperr"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/session"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Ledger is the account-scoped transaction and budget service.
type Ledger interface {
	ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, accountID int64, in ledger.NewTransaction) (*models.Transaction, error)
	Summarize(ctx context.Context, accountID int64) ([]models.CategoryTotal, error)
	ListBudgets(ctx context.Context, accountID int64) ([]models.Budget, error)
	UpsertBudget(ctx context.Context, accountID int64, in ledger.NewBudget) (*models.Budget, bool, error)
	DeleteBudget(ctx context.Context, accountID, id int64) error
	ExportWorkbook(ctx context.Context, accountID int64, w io.Writer) error
}

type messageResponse struct {
	Message string `json:"message"`
}

type transactionResponse struct {
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
}

type budgetResponse struct {
	Message string         `json:"message"`
	Budget  *models.Budget `json:"budget"`
}

func accountID(r *http.Request) int64 {
	return session.AccountFromContext(r.Context()).ID
}

// ListTransactions returns the caller's transactions.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledger.ListTransactions(r.Context(), accountID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// AddTransaction records a transaction for the caller.
func (h *Handlers) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.NewTransaction
	if !h.decode(w, r, &in) {
		return
	}
	tx, err := h.ledger.AddTransaction(r.Context(), accountID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{
		Message:     "Transaction added successfully!",
		Transaction: tx,
	})
}

// Summary returns category totals keyed by category; uncategorized
// transactions are keyed "null".
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledger.Summarize(r.Context(), accountID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make(map[string]float64, len(totals))
	for _, t := range totals {
		key := ledger.NullCategoryLabel
		if t.Category != nil {
			key = *t.Category
		}
		out[key] += t.Total
	}
	writeJSON(w, http.StatusOK, out)
}

// ExportTransactions streams the caller's ledger as an xlsx workbook.
func (h *Handlers) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.ledger.ExportWorkbook(r.Context(), accountID(r), &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ListBudgets returns the caller's budgets.
func (h *Handlers) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.ledger.ListBudgets(r.Context(), accountID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

// UpsertBudget creates or overwrites the caller's budget for a category.
func (h *Handlers) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	var in ledger.NewBudget
	if !h.decode(w, r, &in) {
		return
	}
	b, created, err := h.ledger.UpsertBudget(r.Context(), accountID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := "Budget updated successfully!"
	if created {
		msg = "Budget added successfully!"
	}
	writeJSON(w, http.StatusCreated, budgetResponse{Message: msg, Budget: b})
}

// DeleteBudget removes one of the caller's budgets.
func (h *Handlers) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Budget not found."})
		return
	}
	if err := h.ledger.DeleteBudget(r.Context(), accountID(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Budget deleted successfully!"})
}

// decode reads a JSON object body into v, answering 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload."})
		return false
	}
	return true
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": apperr.Message(err, "Invalid input.")})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": apperr.Message(err, "Not found.")})
	default:
		h.log(r).ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error."})
	}
}

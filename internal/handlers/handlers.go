package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"

	"finance-tracker/internal/logging"
	"finance-tracker/internal/models"
	"finance-tracker/internal/session"
)

const flashCookieName = "flash"

// Accounts registers and authenticates users.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	Verify(ctx context.Context, username, password string) (*models.Account, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the dependencies of Handlers.
type Config struct {
	Accounts     Accounts
	Ledger       Ledger
	Sessions     *session.Manager
	DB           Pinger
	TemplateDir  string
	SecureCookie bool
	Logger       *slog.Logger
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	accounts     Accounts
	ledger       Ledger
	sessions     *session.Manager
	db           Pinger
	templateDir  string
	secureCookie bool
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		accounts:     cfg.Accounts,
		ledger:       cfg.Ledger,
		sessions:     cfg.Sessions,
		db:           cfg.DB,
		templateDir:  cfg.TemplateDir,
		secureCookie: cfg.SecureCookie,
		logger:       logger,
	}
}

// RequirePage gates interactive routes behind a session.
func (h *Handlers) RequirePage(next http.Handler) http.Handler {
	return h.sessions.RequirePage(next)
}

// RequireAPI gates JSON routes behind a session.
func (h *Handlers) RequireAPI(next http.Handler) http.Handler {
	return h.sessions.RequireAPI(next)
}

// Layout is embedded in every page view model.
type Layout struct {
	Flash    string
	Username string
}

func (h *Handlers) layout(w http.ResponseWriter, r *http.Request) Layout {
	l := Layout{Flash: h.popFlash(w, r)}
	if a := session.AccountFromContext(r.Context()); a != nil {
		l.Username = a.Username
	}
	return l
}

// Home redirects to the dashboard.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// TransactionsPage renders the transactions page; its data is loaded from the API.
func (h *Handlers) TransactionsPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "transactions.html", h.layout(w, r))
}

// BudgetPage renders the budget page; its data is loaded from the API.
func (h *Handlers) BudgetPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "budget.html", h.layout(w, r))
}

// Health reports database reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log(r).ErrorContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) log(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), h.logger)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		h.log(r).ErrorContext(r.Context(), "template parse failed", "view", viewName, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		h.log(r).ErrorContext(r.Context(), "template execution failed", "view", viewName, "error", err)
	}
}

// setFlash stores a one-shot message shown on the next rendered page.
func (h *Handlers) setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

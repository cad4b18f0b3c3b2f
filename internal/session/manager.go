package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
)

type contextKey string

const (
	accountContextKey contextKey = "account"

	// CookieName is the name of the session cookie.
	CookieName = "session"
	// DefaultDuration is how long sessions last (30 days).
	DefaultDuration = 30 * 24 * time.Hour
)

// AccountLookup resolves the account a session belongs to.
type AccountLookup interface {
	Get(ctx context.Context, id int64) (*models.Account, error)
}

// Options configures a Manager.
type Options struct {
	Duration     time.Duration
	SecureCookie bool
	Logger       *slog.Logger
}

// Manager establishes, resolves and invalidates cookie-bound sessions.
type Manager struct {
	store        Store
	accounts     AccountLookup
	duration     time.Duration
	secureCookie bool
	logger       *slog.Logger
}

// NewManager creates a new Manager.
func NewManager(store Store, accounts AccountLookup, opts Options) *Manager {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		store:        store,
		accounts:     accounts,
		duration:     opts.Duration,
		secureCookie: opts.SecureCookie,
		logger:       opts.Logger,
	}
}

// AccountFromContext retrieves the authenticated account from a request context.
func AccountFromContext(ctx context.Context) *models.Account {
	if a, ok := ctx.Value(accountContextKey).(*models.Account); ok {
		return a
	}
	return nil
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// Login creates a session for accountID and sets the session cookie.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, accountID int64) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}
	if err := m.store.Create(ctx, token, accountID, time.Now().Add(m.duration)); err != nil {
		return err
	}
	m.setCookie(w, token)
	return nil
}

// Logout deletes the server-side session and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := m.store.Delete(r.Context(), cookie.Value); err != nil {
			m.logger.ErrorContext(r.Context(), "failed to delete session", "error", err)
		}
	}
	m.clearCookie(w)
}

// CurrentAccount resolves the account of the request's session, or nil.
func (m *Manager) CurrentAccount(r *http.Request) *models.Account {
	account, _ := m.resolve(r)
	return account
}

func (m *Manager) resolve(r *http.Request) (*models.Account, *models.SessionInfo) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	info, err := m.store.Lookup(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.ErrorContext(r.Context(), "session lookup failed", "error", err)
		}
		return nil, nil
	}
	account, err := m.accounts.Get(r.Context(), info.AccountID)
	if err != nil {
		return nil, nil
	}
	return account, info
}

// authenticate resolves the session and, for a session past the halfway
// point of its lifetime, renews it. Renewal failures are logged and ignored.
func (m *Manager) authenticate(w http.ResponseWriter, r *http.Request) *models.Account {
	account, info := m.resolve(r)
	if account == nil {
		if _, err := r.Cookie(CookieName); err == nil {
			m.clearCookie(w)
		}
		return nil
	}

	now := time.Now()
	if info.ExpiresAt.Sub(now) < m.duration/2 {
		if err := m.store.Renew(r.Context(), info.Token, now.Add(m.duration)); err == nil {
			m.setCookie(w, info.Token)
		} else {
			m.logger.WarnContext(r.Context(), "session renewal failed", "error", err)
		}
	}
	return account
}

// RequirePage gates interactive routes: anonymous requests are redirected to
// the login page with the original path in ?next=.
func (m *Manager) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := m.authenticate(w, r)
		if account == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
	})
}

// RequireAPI gates JSON routes: anonymous requests get 401.
func (m *Manager) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := m.authenticate(w, r)
		if account == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required."})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
	})
}

// RunCleanup removes expired sessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.store.CleanExpired(ctx)
			if err != nil {
				m.logger.ErrorContext(ctx, "expired session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.InfoContext(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.duration.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

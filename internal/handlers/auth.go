package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"finance-tracker/internal/apperr"
)

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Layout
	Error string
	Next  string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.sessions.CurrentAccount(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", LoginViewModel{
		Layout: h.layout(w, r),
		Next:   safeNext(r.URL.Query().Get("next")),
	})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.sessions.CurrentAccount(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", LoginViewModel{Error: "Invalid form submission."})
		return
	}

	next := safeNext(r.FormValue("next"))
	if next == "" {
		next = safeNext(r.URL.Query().Get("next"))
	}

	account, err := h.accounts.Verify(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		msg := apperr.Message(err, "")
		if !errors.Is(err, apperr.ErrInvalidCredentials) {
			h.log(r).ErrorContext(r.Context(), "login failed", "error", err)
			msg = "An error occurred. Please try again."
		}
		h.render(w, r, "login.html", LoginViewModel{Error: msg, Next: next})
		return
	}

	if err := h.sessions.Login(r.Context(), w, account.ID); err != nil {
		h.log(r).ErrorContext(r.Context(), "failed to create session", "error", err)
		h.render(w, r, "login.html", LoginViewModel{Error: "An error occurred. Please try again.", Next: next})
		return
	}

	if next == "" {
		next = "/dashboard"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.sessions.CurrentAccount(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, "register.html", h.layout(w, r))
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if h.sessions.CurrentAccount(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "Invalid form submission.")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	_, err := h.accounts.Register(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case err == nil:
		h.setFlash(w, "Registration successful! Please log in.")
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrDuplicateUsername):
		h.setFlash(w, apperr.Message(err, ""))
		http.Redirect(w, r, "/register", http.StatusFound)
	default:
		h.log(r).ErrorContext(r.Context(), "registration failed", "error", err)
		h.setFlash(w, "An error occurred. Please try again.")
		http.Redirect(w, r, "/register", http.StatusFound)
	}
}

// Logout ends the session and returns to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w, r)
	h.setFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// safeNext returns next if it is a local absolute path, "" otherwise.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

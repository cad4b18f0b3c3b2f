package apperr

import "errors"

// Kind classifies domain errors so transport layers can map them to responses.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindDuplicateUsername  Kind = "duplicate_username"
	KindNotFound           Kind = "not_found"
)

// Error is a domain error carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid username or password."}
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Message: "Username already exists."}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
)

// InvalidInput returns an InvalidInput error with the given message.
func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// NotFound returns a NotFound error with the given message.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Message returns the user-facing message of a domain error, or fallback
// for anything else.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := InvalidInput("Description and amount are required.")

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Description and amount are required.", err.Error())

	wrapped := fmt.Errorf("add transaction: %w", NotFound("Budget not found."))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Budget not found.", Message(NotFound("Budget not found."), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("db is down"), "fallback"))
	assert.Equal(t, "Username already exists.", Message(fmt.Errorf("register: %w", ErrDuplicateUsername), ""))
}

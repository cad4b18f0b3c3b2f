package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.NotEqual(t, "pw1", hash, "hash must not be the raw password")
	assert.True(t, CheckPassword("pw1", hash))
	assert.False(t, CheckPassword("pw2", hash))
	assert.False(t, CheckPassword("pw1", "not-a-hash"))

	again, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

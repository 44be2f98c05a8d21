package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, h.Verify("correct horse battery", hash))
	assert.False(t, h.Verify("wrong password", hash))
}

func TestPasswordHasher_TooShort(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", 80))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordHasher_VerifyGarbageHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
}

func TestNewPasswordHasher_OutOfRangeCost(t *testing.T) {
	h := NewPasswordHasher(1)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

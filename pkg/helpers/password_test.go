package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherHashAndVerify(t *testing.T) {
	h := NewHasher(4) // minimum cost keeps the test fast

	hash, err := h.Hash("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123!", hash)
	assert.True(t, h.Verify(hash, "Secret123!"))
	assert.False(t, h.Verify(hash, "wrongpass"))
}

func TestHasherSaltsPerCall(t *testing.T) {
	h := NewHasher(4)

	h1, err := h.Hash("same-password")
	require.NoError(t, err)
	h2, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, h.Verify(h1, "same-password"))
	assert.True(t, h.Verify(h2, "same-password"))
}

func TestHasherVerifyMalformedHash(t *testing.T) {
	h := NewHasher(4)

	assert.False(t, h.Verify("", "anything"))
	assert.False(t, h.Verify("not-a-bcrypt-hash", "anything"))
}

func TestHasherCostOutOfRangeFallsBack(t *testing.T) {
	h := NewHasher(99)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "pw"))
}

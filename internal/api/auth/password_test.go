package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		hash, err := HashPassword("password123", 4)

		assert.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "password123", hash)
	})

	t.Run("DistinctHashesForSameInput", func(t *testing.T) {
		first, err := HashPassword("password123", 4)
		assert.NoError(t, err)
		second, err := HashPassword("password123", 4)
		assert.NoError(t, err)

		// Each hash carries its own salt
		assert.NotEqual(t, first, second)
	})

	t.Run("OutOfRangeCostFallsBack", func(t *testing.T) {
		hash, err := HashPassword("password123", 99)

		assert.NoError(t, err)
		assert.True(t, CheckPassword("password123", hash))
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correcthorse", 4)
	assert.NoError(t, err)

	t.Run("Match", func(t *testing.T) {
		assert.True(t, CheckPassword("correcthorse", hash))
	})

	t.Run("Mismatch", func(t *testing.T) {
		assert.False(t, CheckPassword("wronghorse", hash))
	})

	t.Run("MalformedHash", func(t *testing.T) {
		// A corrupted stored hash must read as a failed match, not an error
		assert.False(t, CheckPassword("correcthorse", "not-a-bcrypt-hash"))
	})

	t.Run("EmptyHash", func(t *testing.T) {
		assert.False(t, CheckPassword("correcthorse", ""))
	})
}

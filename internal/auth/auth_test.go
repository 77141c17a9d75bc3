package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
	assert.False(t, CheckPassword("", "admin123"))
}

func TestDummyHash(t *testing.T) {
	assert.Equal(t, DummyHash(), DummyHash())
	assert.False(t, CheckPassword(DummyHash(), "admin123"))
}

func TestGenerateTemporaryPassword(t *testing.T) {
	a, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)
	b, err := GenerateTemporaryPassword(12)
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)

	_, err = GenerateTemporaryPassword(0)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "messenger", time.Hour)

	token, expires, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenErrors(t *testing.T) {
	issuer := NewTokenIssuer("secret", "messenger", time.Hour)

	t.Run("Missing", func(t *testing.T) {
		_, err := issuer.Parse("")
		assert.ErrorIs(t, err, ErrTokenMissing)
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewTokenIssuer("secret", "messenger", time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.Issue(1)
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, _, err := NewTokenIssuer("other", "messenger", time.Hour).Issue(1)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		token, _, err := NewTokenIssuer("secret", "elsewhere", time.Hour).Issue(1)
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("NonNumericSubject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "admin",
			Issuer:    "messenger",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}

package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/model"
)

func TestTokenService_Session(t *testing.T) {
	clock := newTestClock()
	tokens := NewTokenService(testSecret, "RecipeHub", time.Hour, 15*time.Minute, clock.Now)
	user := &model.User{ID: "user-1", Email: "cook@example.com", Username: "cook"}

	token, expires, err := tokens.IssueSession(user)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), expires)

	identity, err := tokens.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, &model.SessionUser{ID: "user-1", Email: "cook@example.com", Username: "cook"}, identity)

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenService("another-secret-with-32-characters!!", "RecipeHub", time.Hour, time.Minute, clock.Now)
		_, err := other.VerifySession(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewTokenService(testSecret, "SomethingElse", time.Hour, time.Minute, clock.Now)
		_, err := other.VerifySession(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "RecipeHub",
				ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
			},
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.VerifySession(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		late := &testClock{t: clock.Now().Add(time.Hour)}
		expired := NewTokenService(testSecret, "RecipeHub", time.Hour, time.Minute, late.Now)
		_, err := expired.VerifySession(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenService_ResetBoundToPasswordHash(t *testing.T) {
	clock := newTestClock()
	tokens := NewTokenService(testSecret, "RecipeHub", time.Hour, 15*time.Minute, clock.Now)
	user := &model.User{ID: "user-1", Email: "cook@example.com", PasswordHash: "hash-one"}

	token, err := tokens.IssueReset(user)
	require.NoError(t, err)
	require.NoError(t, tokens.VerifyReset(token, user))

	changed := *user
	changed.PasswordHash = "hash-two"
	assert.ErrorIs(t, tokens.VerifyReset(token, &changed), ErrInvalidToken)

	// Same hash on a different account still does not verify
	other := *user
	other.ID = "user-2"
	assert.ErrorIs(t, tokens.VerifyReset(token, &other), ErrTokenSubject)

	_, err = tokens.VerifySession(token)
	assert.Error(t, err, "reset tokens are not sessions")
}

func TestTokenService_VerificationCode(t *testing.T) {
	tokens := NewTokenService(testSecret, "RecipeHub", time.Hour, time.Minute, nil)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := tokens.VerificationCode("cook@example.com")
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestCodesMatch(t *testing.T) {
	assert.True(t, CodesMatch("123456", "123456"))
	assert.False(t, CodesMatch("123456", "123457"))
	assert.False(t, CodesMatch("12345", "123456"))
	assert.False(t, CodesMatch("", "123456"))
}

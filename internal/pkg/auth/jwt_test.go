package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return raw
}

func TestParseToken_ReadsExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	token := ParseToken(signed(t, exp))

	assert.True(t, exp.Equal(token.ExpiresAt))
	assert.False(t, token.Expired(time.Now(), time.Minute))
	assert.True(t, token.Expired(exp.Add(-30*time.Second), time.Minute))
}

func TestParseToken_OpaqueTokenNeverExpires(t *testing.T) {
	token := ParseToken("not-a-jwt")

	assert.Equal(t, "not-a-jwt", token.Raw)
	assert.True(t, token.ExpiresAt.IsZero())
	assert.False(t, token.Expired(time.Now().Add(24*time.Hour), time.Minute))
}

func TestTokenCache_RefreshesExpiredToken(t *testing.T) {
	now := time.Now()
	calls := 0
	cache := NewTokenCache(func(context.Context) (string, error) {
		calls++
		return signed(t, now.Add(10*time.Minute)), nil
	}, time.Minute)
	cache.now = func() time.Time { return now }

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	cache.now = func() time.Time { return now.Add(9*time.Minute + 30*time.Second) }
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	cache.Invalidate()
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestTokenCache_FetchError(t *testing.T) {
	boom := errors.New("401")
	cache := NewTokenCache(func(context.Context) (string, error) { return "", boom }, time.Minute)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

// internal/pkg/auth/jwt.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is a bearer JWT issued by a remote service. The signature is not
// checked; only the expiry is read so the token can be renewed in time.
type Token struct {
	Raw       string
	ExpiresAt time.Time
}

// ParseToken reads the expiry of raw without verifying its signature.
// Tokens that are not JWTs or carry no exp claim never expire.
func ParseToken(raw string) Token {
	token := Token{Raw: raw}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return token
	}
	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Time
	}
	return token
}

// Expired reports whether the token expires within leeway of now
func (t Token) Expired(now time.Time, leeway time.Duration) bool {
	if t.Raw == "" {
		return true
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(t.ExpiresAt)
}

// FetchFunc obtains a new raw token
type FetchFunc func(ctx context.Context) (string, error)

// TokenCache holds one token and fetches a new one when it is about to expire
type TokenCache struct {
	mu     sync.Mutex
	token  Token
	fetch  FetchFunc
	leeway time.Duration
	now    func() time.Time
}

// NewTokenCache creates a new token cache
func NewTokenCache(fetch FetchFunc, leeway time.Duration) *TokenCache {
	return &TokenCache{
		fetch:  fetch,
		leeway: leeway,
		now:    time.Now,
	}
}

// Get returns a valid token, fetching one if needed
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.token.Expired(c.now(), c.leeway) {
		return c.token.Raw, nil
	}

	raw, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain token: %w", err)
	}
	c.token = ParseToken(raw)
	return c.token.Raw, nil
}

// Invalidate drops the cached token
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = Token{}
	c.mu.Unlock()
}

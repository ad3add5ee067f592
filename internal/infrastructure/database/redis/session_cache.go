// internal/infrastructure/database/redis/session_cache.go
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/nanostore-kiosk/internal/domain/order"
)

const adminSessionKey = "kiosk:ofn:admin_session"

// AdminSessionCache keeps the commerce platform admin session in Redis
type AdminSessionCache struct {
	client *Client
	ttl    time.Duration
}

// NewAdminSessionCache creates a new admin session cache
func NewAdminSessionCache(client *Client, ttl time.Duration) *AdminSessionCache {
	return &AdminSessionCache{client: client, ttl: ttl}
}

// Load returns the cached session, or nil when none is cached
func (c *AdminSessionCache) Load(ctx context.Context) (*order.AdminSession, error) {
	var session order.AdminSession
	err := c.client.GetJSON(ctx, adminSessionKey, &session)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Store caches session for the configured TTL
func (c *AdminSessionCache) Store(ctx context.Context, session *order.AdminSession) error {
	return c.client.SetJSON(ctx, adminSessionKey, session, c.ttl)
}

// Invalidate drops the cached session
func (c *AdminSessionCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, adminSessionKey)
}

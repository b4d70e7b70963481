package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PrincipalCache keeps resolved AuthUser values in Redis so the guard does
// not hit PostgreSQL on every request.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache builds the cache. A nil client disables caching.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

// Get returns the cached principal. ok is false on a miss.
func (c *PrincipalCache) Get(ctx context.Context, userID int64) (*AuthUser, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, principalKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var user AuthUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// Set stores the principal with the configured TTL.
func (c *PrincipalCache) Set(ctx context.Context, user *AuthUser) error {
	if c == nil || c.client == nil || user == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, principalKey(user.ID), raw, c.ttl).Err()
}

// Invalidate drops the cached principal, e.g. after a role change.
func (c *PrincipalCache) Invalidate(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, principalKey(userID)).Err()
}

func principalKey(userID int64) string {
	return "farmdesk:principal:" + strconv.FormatInt(userID, 10)
}

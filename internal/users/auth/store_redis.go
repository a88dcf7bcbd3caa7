// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercato/mercato/internal/platform/constants"
)

// # Token Denylist

// RedisTokenDenylist implements TokenDenylist using Redis.
//
// Revoked token identifiers are stored with a TTL matching the token's
// remaining lifetime, so entries expire exactly when the token would have
// stopped validating anyway.
type RedisTokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist creates a new Redis-backed TokenDenylist.
func NewTokenDenylist(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client}
}

/*
Revoke marks a token identifier as revoked for its remaining lifetime.

Parameters:
  - context: context.Context
  - tokenID: string (jti claim of the token being revoked)
  - ttl: time.Duration (remaining validity of the token)

Returns:
  - error: Storage failures
*/
func (denylist *RedisTokenDenylist) Revoke(context context.Context, tokenID string, ttl time.Duration) error {

	// A token at or past expiry needs no denylist entry.
	if ttl <= 0 {
		return nil
	}

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixDenylist, tokenID)

	// Set the marker with TTL
	if err := denylist.client.Set(context, key, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("redis_denylist_revoke_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
IsRevoked reports whether a token identifier has been revoked.

Description: Consulted by the auth gate on every authenticated request
before the token's subject is resolved.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - bool: true when the token has been revoked
  - error: Connectivity errors
*/
func (denylist *RedisTokenDenylist) IsRevoked(context context.Context, tokenID string) (bool, error) {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixDenylist, tokenID)

	// Check for the marker
	count, err := denylist.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_check_failed: %w", err)
	}

	// Present means revoked
	return count > 0, nil
}

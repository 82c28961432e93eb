package utils

import (
	"context"
	"errors"
	"time"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist remembers revoked access tokens until they would have expired anyway.
type TokenBlacklist struct {
	cache Cache
}

// NewTokenBlacklist stores revocations in cache.
func NewTokenBlacklist(cache Cache) *TokenBlacklist {
	return &TokenBlacklist{cache: cache}
}

// Revoke blacklists the token id until expiresAt. Already expired tokens are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.cache.Set(ctx, blacklistPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks if a token was revoked before natural expiration.
// Cache failures fail open to avoid locking every user out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) bool {
	_, err := b.cache.Get(ctx, blacklistPrefix+tokenID)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheMiss) {
		Sugar.Warnf("blacklist lookup failed id=%s err=%v", tokenID, err)
	}
	return false
}

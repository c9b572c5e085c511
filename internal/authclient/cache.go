package authclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"go-task-manager/internal/model"
)

const cacheKeyPrefix = "authverify:"

// Cache stores positive verification results. Keys are token digests.
type Cache interface {
	Get(ctx context.Context, key string) (model.Claims, bool, error)
	Set(ctx context.Context, key string, claims model.Claims, ttl time.Duration) error
}

// CachingVerifier answers from Cache when it can and falls through to the
// wrapped verifier otherwise. Only successful verifications are cached, and
// never past the token's own expiry.
type CachingVerifier struct {
	next  Verifier
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewCachingVerifier(next Verifier, cache Cache, ttl time.Duration) *CachingVerifier {
	return &CachingVerifier{next: next, cache: cache, ttl: ttl, now: time.Now}
}

func (v *CachingVerifier) Verify(ctx context.Context, token string) (model.Claims, error) {
	key := cacheKey(token)

	claims, hit, err := v.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("verify cache read failed", "error", err)
	}
	if hit && v.stillValid(claims) {
		return claims, nil
	}

	claims, err = v.next.Verify(ctx, token)
	if err != nil {
		return model.Claims{}, err
	}

	if ttl := v.entryTTL(claims); ttl >= time.Millisecond {
		if err := v.cache.Set(ctx, key, claims, ttl); err != nil {
			slog.Warn("verify cache write failed", "error", err)
		}
	}
	return claims, nil
}

func (v *CachingVerifier) stillValid(claims model.Claims) bool {
	return claims.ExpiresAt == nil || v.now().Before(*claims.ExpiresAt)
}

func (v *CachingVerifier) entryTTL(claims model.Claims) time.Duration {
	ttl := v.ttl
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(v.now()); remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (model.Claims, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Claims{}, false, nil
	}
	if err != nil {
		return model.Claims{}, false, fmt.Errorf("redis get: %w", err)
	}

	var claims model.Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return model.Claims{}, false, fmt.Errorf("decode cached claims: %w", err)
	}
	return claims, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, claims model.Claims, ttl time.Duration) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

package utils

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/articles/config"
)

// NewRedis connects to the configured Redis and pings it once.
func NewRedis(cfg config.RedisSection) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", rc.Options().Addr, err)
	}
	return rc, nil
}

// NewCache picks Redis when configured and reachable, the in-process cache otherwise.
func NewCache(cfg config.AppConfig) Cache {
	if !cfg.RedisEnabled() {
		return NewMemoryCache()
	}
	rc, err := NewRedis(cfg.Redis)
	if err != nil {
		Sugar.Warnf("redis unavailable, falling back to in-memory cache: %v", err)
		return NewMemoryCache()
	}
	return NewRedisCache(rc)
}

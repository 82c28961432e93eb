package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/articles/utils"
)

const (
	articleCachePrefix   = "cache:articles:"
	articleGenerationKey = articleCachePrefix + "generation"
	articlePageTTL       = 10 * time.Minute
	// maxCachedOffset bounds the cached keyspace; deeper pages always go to the database.
	maxCachedOffset = 30
)

// articlePages caches the anonymous article listing. Keys carry a generation number that
// every article or author write increments, so pages built before a write are never served
// again and simply age out.
type articlePages struct {
	cache utils.Cache
}

// key returns the cache key of one page, or false when the page must not be cached.
func (p articlePages) key(ctx context.Context, ascending bool, limit, offset int) (string, bool) {
	if offset > maxCachedOffset {
		return "", false
	}
	gen, err := p.generation(ctx)
	if err != nil {
		utils.Logger.Warn("read article cache generation", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("%sg%d:asc=%t:limit=%d:offset=%d", articleCachePrefix, gen, ascending, limit, offset), true
}

func (p articlePages) generation(ctx context.Context) (int64, error) {
	b, err := p.cache.Get(ctx, articleGenerationKey)
	if errors.Is(err, utils.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

func (p articlePages) get(ctx context.Context, key string) ([]byte, bool) {
	b, err := p.cache.Get(ctx, key)
	return b, err == nil
}

func (p articlePages) put(ctx context.Context, key string, body []byte) {
	if err := p.cache.Set(ctx, key, body, articlePageTTL); err != nil {
		utils.Logger.Warn("store article page", zap.String("key", key), zap.Error(err))
	}
}

// invalidate retires every cached page.
func (p articlePages) invalidate(ctx context.Context) {
	if _, err := p.cache.Incr(ctx, articleGenerationKey); err != nil {
		utils.Logger.Warn("invalidate article cache", zap.Error(err))
	}
}

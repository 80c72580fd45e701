package gsheet

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache stores fetched sheets between the preview and the import request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisCache is a Cache on a go-redis client.
type RedisCache struct{ rdb *redis.Client }

func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// CachedFetcher is a read-through cache in front of another Fetcher.
// Cache failures are logged and fall through to the underlying fetcher.
type CachedFetcher struct {
	Next   Fetcher
	Cache  Cache
	TTL    time.Duration
	Prefix string
	Log    *logrus.Logger
}

func (f *CachedFetcher) key(sheetID string) string { return f.Prefix + "sheet:" + sheetID }

func (f *CachedFetcher) Fetch(ctx context.Context, sheetID string) ([][]string, error) {
	key := f.key(sheetID)
	if b, ok, err := f.Cache.Get(ctx, key); err != nil {
		f.warn(err, "cache get", sheetID)
	} else if ok {
		var rows [][]string
		if err := json.Unmarshal(b, &rows); err == nil {
			return rows, nil
		}
	}

	rows, err := f.Next.Fetch(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rows); err == nil {
		if err := f.Cache.Set(ctx, key, b, f.TTL); err != nil {
			f.warn(err, "cache set", sheetID)
		}
	}
	return rows, nil
}

// Invalidate drops a cached sheet so the next Fetch goes to the source.
func (f *CachedFetcher) Invalidate(ctx context.Context, sheetID string) error {
	return f.Cache.Delete(ctx, f.key(sheetID))
}

func (f *CachedFetcher) warn(err error, op, sheetID string) {
	if f.Log == nil {
		return
	}
	f.Log.WithFields(logrus.Fields{"op": op, "sheet": sheetID}).Warn(err.Error())
}

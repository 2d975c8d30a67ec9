package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	listCacheKey   = "catalog:products"
	listVersionKey = "catalog:products:version"
)

// CachedStore serves List from Redis and drops the cached list on every
// write. Redis failures fall through to the wrapped store.
//
// Every write bumps listVersionKey. A miss fills the cache inside a WATCH on
// that key, so a list read before a concurrent write is never cached after
// the write's invalidation.
type CachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{Store: inner, rdb: rdb, ttl: ttl, log: log}
}

// NewRedisClient connects and pings, the way the store would at startup.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (s *CachedStore) List(ctx context.Context) ([]Product, error) {
	raw, err := s.rdb.Get(ctx, listCacheKey).Bytes()
	switch {
	case err == nil:
		var out []Product
		if jerr := json.Unmarshal(raw, &out); jerr == nil {
			return out, nil
		}
		s.log.Warn("catalog cache entry unreadable")
	case !errors.Is(err, redis.Nil):
		s.log.Warn("catalog cache get failed", zap.Error(err))
	}

	var (
		out     []Product
		listErr error
		fetched bool
	)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		out, listErr = s.Store.List(ctx)
		fetched = true
		if listErr != nil {
			return listErr
		}

		b, jerr := json.Marshal(out)
		if jerr != nil {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, listCacheKey, b, s.ttl)
			return nil
		})
		return err
	}, listVersionKey)

	switch {
	case !fetched:
		// WATCH itself failed: Redis is unreachable.
		s.log.Warn("catalog cache unavailable", zap.Error(err))
		return s.Store.List(ctx)
	case listErr != nil:
		return nil, listErr
	case errors.Is(err, redis.TxFailedErr):
		s.log.Debug("catalog cache fill skipped, list changed")
	case err != nil:
		s.log.Warn("catalog cache set failed", zap.Error(err))
	}
	return out, nil
}

func (s *CachedStore) Create(ctx context.Context, p Product) error {
	if err := s.Store.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) Update(ctx context.Context, p Product) error {
	if err := s.Store.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return err
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *CachedStore) invalidate(ctx context.Context) {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, listVersionKey)
		p.Del(ctx, listCacheKey)
		return nil
	})
	if err != nil {
		s.log.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}

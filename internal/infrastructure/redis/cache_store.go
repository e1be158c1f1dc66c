package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
)

// CacheStore implements cache.Store on Redis so every replica shares entries
// and invalidations.
type CacheStore struct {
	client    *Client
	keyPrefix string
	logger    *slog.Logger
}

func NewCacheStore(client *Client, keyPrefix string, logger *slog.Logger) *CacheStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStore{client: client, keyPrefix: keyPrefix, logger: logger}
}

func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.keyPrefix+key)
	if errors.Is(err, ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.keyPrefix+key, value, ttl)
}

func (s *CacheStore) Invalidate(ctx context.Context, prefix string) error {
	n, err := s.client.DeleteByPrefix(ctx, s.keyPrefix+prefix)
	if err != nil {
		s.logger.Warn("cache invalidation failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		return err
	}
	metrics.ObserveCacheInvalidation()
	s.logger.Debug("cache invalidated", slog.String("prefix", prefix), slog.Int("keys", n))
	return nil
}

package landing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"formation/internal/model"

	"github.com/go-redis/redis/v8"
)

const landingKeyPrefix = "landing:"

type redisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore shares landing pages between instances. Entries are kept for
// retention, which should exceed the cache TTL so stale pages can still be
// served while a refetch runs.
func NewRedisStore(client *redis.Client, retention time.Duration) Store {
	return &redisStore{client: client, retention: retention}
}

func landingKey(locale string) string {
	return landingKeyPrefix + locale
}

func (s *redisStore) Get(ctx context.Context, locale string) (*model.LandingPage, bool, error) {
	data, err := s.client.Get(ctx, landingKey(locale)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get landing page from Redis: %w", err)
	}
	var page model.LandingPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached landing page: %w", err)
	}
	return &page, true, nil
}

func (s *redisStore) Set(ctx context.Context, locale string, page *model.LandingPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode landing page: %w", err)
	}
	if err := s.client.Set(ctx, landingKey(locale), data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to store landing page in Redis: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, locales ...string) error {
	if len(locales) == 0 {
		return nil
	}
	keys := make([]string, len(locales))
	for i, l := range locales {
		keys[i] = landingKey(l)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete landing pages from Redis: %w", err)
	}
	return nil
}

package landing

import (
	"context"
	"os"
	"testing"
	"time"

	"formation/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL is not set, skip Redis integration test")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, time.Minute)

	_, ok, err := store.Get(ctx, "test-missing")
	require.NoError(t, err)
	assert.False(t, ok)

	page := &model.LandingPage{Locale: "test", Hero: model.Hero{Title: "Bienvenue"}, FetchedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Set(ctx, "test", page))

	got, ok, err := store.Get(ctx, "test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bienvenue", got.Hero.Title)
	assert.True(t, page.FetchedAt.Equal(got.FetchedAt))

	require.NoError(t, store.Delete(ctx, "test"))
	_, ok, err = store.Get(ctx, "test")
	require.NoError(t, err)
	assert.False(t, ok)
}

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/models"
)

func redisStore(t *testing.T) *RedisStore {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Minute)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, models.User{ID: 7, Username: "asha", Name: "Asha", AccountType: models.AccountStudent})
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)

	loaded, err := store.Get(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.UserID)
	assert.Equal(t, "asha", loaded.Username)

	require.NoError(t, store.Delete(ctx, created.Token))
	_, err = store.Get(ctx, created.Token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnknownToken(t *testing.T) {
	store := redisStore(t)
	_, err := store.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	require.Error(t, err)
}

func TestEmptyTokenIsNotFound(t *testing.T) {
	store := NewRedisStore(nil, time.Minute)
	_, err := store.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Delete(context.Background(), ""))
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werss-client/internal/core/store"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore_Basic(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	s := NewRedisStore[string, string](client, "werss:")

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "token", "jwt-value"))
	assert.True(t, mr.Exists("werss:token"))

	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", v)

	ok, err := s.Exists(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "token"))
	ok, err = s.Exists(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Ping(ctx))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	s := NewRedisStore[string, string](client, "")

	require.NoError(t, s.SetWithTTL(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	s := NewRedisStore[string, string](client, "p:")
	require.NoError(t, mr.Set("p:k", "not-json"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrDeserializationFailed)
}

func TestNewRedisStoreFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	s, err := NewRedisStoreFromConfig[string, string](store.RedisConfig{Addr: addr}, "x:")
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "a", "b"))
	require.NoError(t, s.Close())

	mr.Close()
	_, err = NewRedisStoreFromConfig[string, string](store.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}, "x:")
	assert.Error(t, err)
}

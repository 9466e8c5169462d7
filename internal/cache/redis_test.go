package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagdatov/carmarket/internal/config"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)

	err := cache.Set(context.Background(), "verifycode:uid-1", "123456", time.Minute)
	require.NoError(t, err)

	var code string
	found, err := cache.Get(context.Background(), "verifycode:uid-1", &code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "123456", code)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out string
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSet_OverwritesValueAndTTL(t *testing.T) {
	cache, _ := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), "key", "first", time.Minute))
	require.NoError(t, cache.Set(context.Background(), "key", "second", time.Hour))

	var out string
	found, err := cache.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", out)
}

func TestGet_KeyExpires(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), "key", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(context.Background(), "key"))

	var out string
	found, err := cache.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIncrement(t *testing.T) {
	cache, mr := setupTestCache(t)

	for want := int64(1); want <= 4; want++ {
		got, err := cache.Increment(context.Background(), "resendcount:uid-1", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Окно истекло — счетчик начинается заново.
	mr.FastForward(2 * time.Hour)
	got, err := cache.Increment(context.Background(), "resendcount:uid-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestIncrement_KeyAlwaysHasTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	_, err := cache.Increment(context.Background(), "resendcount:uid-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("resendcount:uid-1"))

	// Повторные инкременты не сдвигают окно от первой попытки.
	mr.FastForward(30 * time.Minute)
	_, err = cache.Increment(context.Background(), "resendcount:uid-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL("resendcount:uid-1"))
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out struct{ Name string }
	found, err := cache.Get(context.Background(), "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

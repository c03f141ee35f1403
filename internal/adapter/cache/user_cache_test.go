package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-table/internal/domain/user"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func testUser() *domain.User {
	return &domain.User{
		ID:        1,
		FirstName: "John",
		Email:     "john@example.com",
		Extra:     map[string]json.RawMessage{"age": json.RawMessage(`31`)},
	}
}

func TestRedisUserCache_Set_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	err := cache.Set(context.Background(), testUser())
	require.NoError(t, err)

	data, err := client.Get(context.Background(), "usertable:user:1").Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"firstName":"John","email":"john@example.com","age":31}`, string(data))
}

func TestRedisUserCache_Set_NilUser(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	err := cache.Set(context.Background(), nil)
	assert.EqualError(t, err, "cannot cache nil user")
}

func TestRedisUserCache_Get_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	user := testUser()
	require.NoError(t, cache.Set(context.Background(), user))

	cached, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, cached)

	assert.Equal(t, user.ID, cached.ID)
	assert.Equal(t, user.FirstName, cached.FirstName)
	assert.Equal(t, user.Email, cached.Email)
	assert.JSONEq(t, `31`, string(cached.Extra["age"]))
}

func TestRedisUserCache_Get_CacheMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	cached, err := cache.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	require.NoError(t, mr.Set("usertable:user:1", "{not json"))

	_, err := cache.Get(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode user:1")
}

func TestRedisUserCache_Delete_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	require.NoError(t, cache.Set(context.Background(), testUser()))
	require.NoError(t, cache.Delete(context.Background(), 1))

	cached, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 2*time.Second, zaptest.NewLogger(t))

	require.NoError(t, cache.Set(context.Background(), testUser()))

	// Fast forward time in miniredis
	mr.FastForward(3 * time.Second)

	cached, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	mr.Close()

	_, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
}

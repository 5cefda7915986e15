package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

func newTestRedisStore(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{URL: "redis://" + mr.Addr(), Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_SetAndGet(t *testing.T) {
	store, mr := newTestRedisStore(t, "test:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "otp:alice", []byte("123456"), time.Minute))

	got, err := store.Get(ctx, "otp:alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("123456"), got)

	// keys are namespaced with the prefix
	assert.True(t, mr.Exists("test:otp:alice"))
	assert.False(t, mr.Exists("otp:alice"))
	assert.Equal(t, time.Minute, mr.TTL("test:otp:alice"))
}

func TestRedisStore_Miss(t *testing.T) {
	store, mr := newTestRedisStore(t, "test:")
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func()
		key   string
	}{
		{name: "never set", setup: func() {}, key: "missing"},
		{
			name: "expired",
			setup: func() {
				require.NoError(t, store.Set(ctx, "session:old", []byte("x"), time.Second))
				mr.FastForward(2 * time.Second)
			},
			key: "session:old",
		},
		{
			name: "deleted",
			setup: func() {
				require.NoError(t, store.Set(ctx, "session:gone", []byte("x"), time.Minute))
				require.NoError(t, store.Delete(ctx, "session:gone"))
			},
			key: "session:gone",
		},
		{
			name: "set without prefix",
			setup: func() {
				require.NoError(t, mr.Set("otp:bob", "654321"))
			},
			key: "otp:bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			_, err := store.Get(ctx, tt.key)
			assert.ErrorIs(t, err, domain.ErrCacheMiss)

			exists, err := store.Exists(ctx, tt.key)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestRedisStore_Exists(t *testing.T) {
	store, _ := newTestRedisStore(t, "test:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session:abc", []byte("{}"), time.Hour))

	exists, err := store.Exists(ctx, "session:abc")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	store, mr := newTestRedisStore(t, "")

	require.NoError(t, store.Set(context.Background(), "otp:carol", []byte("1"), time.Minute))
	assert.True(t, mr.Exists("salescoach:otp:carol"))
}

func TestRedisStore_ServerErrors(t *testing.T) {
	store, mr := newTestRedisStore(t, "test:")
	ctx := context.Background()

	mr.SetError("LOADING dataset in memory")

	_, err := store.Get(ctx, "otp:alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)

	assert.Error(t, store.Set(ctx, "otp:alice", []byte("1"), time.Minute))
	assert.Error(t, store.Delete(ctx, "otp:alice"))
	_, err = store.Exists(ctx, "otp:alice")
	assert.Error(t, err)
}

func TestNewRedisStore_Errors(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	tests := []struct {
		name string
		url  string
	}{
		{name: "invalid url", url: "not-a-redis-url"},
		{name: "unreachable", url: "redis://" + addr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewRedisStore(RedisConfig{URL: tt.url})
			assert.Error(t, err)
			assert.Nil(t, store)
		})
	}
}

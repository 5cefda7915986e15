package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Hour)
	store.now = clock.Now
	t.Cleanup(func() { store.Close() })
	return store, clock
}

func TestMemoryStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "otp:alice", []byte("123456"), time.Minute))

	got, err := store.Get(ctx, "otp:alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("123456"), got)

	exists, err := store.Exists(ctx, "otp:alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_Miss(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := store.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_ExpiryCheckedOnLookup(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session:abc", []byte("alice"), 5*time.Minute))

	clock.Advance(4 * time.Minute)
	_, err := store.Get(ctx, "session:abc")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, _ := store.Exists(ctx, "session:abc")
	assert.False(t, exists)

	// still held until the janitor runs
	assert.Equal(t, 1, store.Size())
	store.sweep()
	assert.Equal(t, 0, store.Size())
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	got[0] = 'Y'
	again, _ := store.Get(ctx, "k")
	assert.Equal(t, "original", string(again))
}

func TestMemoryStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "never-set"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryStore_JanitorAndClose(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{URL: "not-a-redis-url"})
	assert.Error(t, err)
}

func TestRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{URL: "redis://127.0.0.1:1/0"})
	assert.Error(t, err)
}

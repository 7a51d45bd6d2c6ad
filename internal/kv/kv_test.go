package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "k", []byte(`{"count":1}`), time.Minute))
	val, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"count":1}`, string(val))
	assert.Equal(t, time.Minute, m.TTL("k"))

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "key should expire exactly at its deadline")
}

func TestMemoryFault(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Fail(errors.New("connection refused"))

	_, _, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, m.Put(ctx, "k", []byte("1"), 0), ErrUnavailable)

	m.Fail(nil)
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryConcurrentKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("ratelimit:read:agent-%d", i)
			for j := 0; j < 20; j++ {
				assert.NoError(t, m.Put(ctx, key, []byte(fmt.Sprint(j)), time.Minute))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 64; i++ {
		val, ok, err := m.Get(ctx, fmt.Sprintf("ratelimit:read:agent-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "19", string(val))
	}
}

func TestRedisGetPut(t *testing.T) {
	srv := miniredis.RunT(t)
	r, err := NewRedis(RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "ratelimit:post:a1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put(ctx, "ratelimit:post:a1", []byte(`{"count":2}`), 30*time.Second))
	val, ok, err := r.Get(ctx, "ratelimit:post:a1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"count":2}`, string(val))
	assert.Equal(t, 30*time.Second, srv.TTL("ratelimit:post:a1"))

	srv.FastForward(31 * time.Second)
	_, ok, err = r.Get(ctx, "ratelimit:post:a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	r, err := NewRedis(RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	defer r.Close()

	srv.Close()
	_, _, err = r.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	assert.Error(t, err)
}

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	c, err := Open(Config{})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = Open(Config{Backend: BackendMemory, Size: 2})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = Open(Config{Backend: BackendRedis})
	assert.Error(t, err)

	c, err = Open(Config{Backend: BackendRedis, RedisAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)
	require.NoError(t, c.Close())

	_, err = Open(Config{Backend: "disk"})
	assert.Error(t, err)
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, time.Minute)

	_, ok, err := m.Get(ctx, "https://fr.wikipedia.org/wiki/Jacques_Chirac")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "https://fr.wikipedia.org/wiki/Jacques_Chirac", "Jacques Chirac, né le 29 novembre 1932"))
	v, ok, err := m.Get(ctx, "https://fr.wikipedia.org/wiki/Jacques_Chirac")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Jacques Chirac, né le 29 novembre 1932", v)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.Len())
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Minute)

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, _, _ = m.Get(ctx, "a")
	require.NoError(t, m.Set(ctx, "c", "3"))

	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, 20*time.Millisecond)

	require.NoError(t, m.Set(ctx, "k", "v"))
	assert.Eventually(t, func() bool {
		_, ok, _ := m.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

// TestRedis_RoundTrip runs against a real server when COUNTRYLEADERS_TEST_REDIS is set.
func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("COUNTRYLEADERS_TEST_REDIS")
	if addr == "" {
		t.Skip("COUNTRYLEADERS_TEST_REDIS not set")
	}

	ctx := context.Background()
	r := NewRedis(addr, "countryleaders:test:", time.Minute)
	defer r.Close()
	require.NoError(t, r.Ping(ctx))

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "page", "paragraph"))
	v, ok, err := r.Get(ctx, "page")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "paragraph", v)
}

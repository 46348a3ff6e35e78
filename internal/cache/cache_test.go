package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("klines", map[string]string{"symbol": "BTCUSDT", "interval": "1h"})
	b := Key("klines", map[string]string{"interval": "1h", "symbol": "BTCUSDT"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key("klines", map[string]string{"symbol": "ETHUSDT", "interval": "1h"}))
	assert.Equal(t, "overview", Key("overview", nil))
}

func TestFetchHitsCacheOnSecondCall(t *testing.T) {
	c := NewMemory(16, time.Minute)
	calls := 0
	load := func(context.Context) (map[string]string, error) {
		calls++
		return map[string]string{"BTCUSDT": "65000"}, nil
	}
	ctx := context.Background()

	first, err := Fetch(ctx, c, "prices", load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, "prices", load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := NewMemory(16, time.Minute)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 0, errors.New("upstream down")
	}
	ctx := context.Background()

	_, err := Fetch(ctx, c, "tickers", load)
	assert.Error(t, err)
	_, err = Fetch(ctx, c, "tickers", load)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryExpiresAfterTTL(t *testing.T) {
	c := NewMemory(16, 50*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	time.Sleep(120 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemorySetOverwrites(t *testing.T) {
	c := NewMemory(16, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("old")))
	require.NoError(t, c.Set(ctx, "k", []byte("new")))

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "business:1", []byte(`{"id":1}`), time.Minute))

	b, ok, err := c.Get(ctx, "business:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{"id":1}`), b)
}

func TestRedisCache_MissIsNotAnError(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	b, ok, err := c.Get(context.Background(), "business:404")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, b)
}

func TestRedisCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "business:2", []byte("x"), time.Second))

	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "business:2")
	require.NoError(t, err)
	require.False(t, ok)
}

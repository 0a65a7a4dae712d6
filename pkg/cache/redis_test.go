package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, rc.SetJSON(ctx, "k", payload{Name: "book-a"}, time.Minute))

	var got payload
	hit, err := rc.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "book-a", got.Name)

	mr.FastForward(2 * time.Minute)
	hit, err = rc.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDelete(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "a", "1", 0))
	require.NoError(t, rc.Delete(ctx, "a"))

	val, err := rc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, val)
	require.NoError(t, rc.Delete(ctx))
}

func TestNew_ConnectsToServer(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := New(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rc.Close()
	require.NoError(t, rc.Ping(context.Background()))
}

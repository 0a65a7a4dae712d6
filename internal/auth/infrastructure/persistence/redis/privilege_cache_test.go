package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

func TestPrivilegeCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewPrivilegeRedisCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, domain.RoleTrader)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Save(ctx, domain.RoleTrader, []tradedomain.Operation{tradedomain.OpBookTrade}))
	ops, ok, err := cache.Get(ctx, domain.RoleTrader)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []tradedomain.Operation{tradedomain.OpBookTrade}, ops)

	// 空权限同样缓存
	require.NoError(t, cache.Save(ctx, domain.RoleSupport, nil))
	ops, ok, err = cache.Get(ctx, domain.RoleSupport)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, ops)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, domain.RoleTrader)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Save(ctx, domain.RoleAdmin, domain.AllPrivileges))
	require.NoError(t, cache.Delete(ctx, domain.RoleAdmin))
	assert.False(t, mr.Exists("auth:role:ADMIN:privileges"))
}

// Package redis 角色权限的 Redis 缓存
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/cache"
)

type privilegeRedisCache struct {
	cache  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewPrivilegeRedisCache 创建角色权限缓存
func NewPrivilegeRedisCache(client redis.UniversalClient, ttl time.Duration) domain.PrivilegeCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &privilegeRedisCache{
		cache:  cache.NewFromClient(client),
		prefix: "auth:role:",
		ttl:    ttl,
	}
}

func (r *privilegeRedisCache) key(role domain.Role) string {
	return r.prefix + string(role) + ":privileges"
}

func (r *privilegeRedisCache) Get(ctx context.Context, role domain.Role) ([]tradedomain.Operation, bool, error) {
	var ops []tradedomain.Operation
	hit, err := r.cache.GetJSON(ctx, r.key(role), &ops)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get privileges from redis: %w", err)
	}
	return ops, hit, nil
}

func (r *privilegeRedisCache) Save(ctx context.Context, role domain.Role, ops []tradedomain.Operation) error {
	if ops == nil {
		ops = []tradedomain.Operation{}
	}
	return r.cache.SetJSON(ctx, r.key(role), ops, r.ttl)
}

func (r *privilegeRedisCache) Delete(ctx context.Context, role domain.Role) error {
	return r.cache.Delete(ctx, r.key(role))
}

// Package redis 参考数据 Redis 读模型，按 ID 与名称各存一份
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/cache"
)

// ReferenceRedisRepository 键格式 referencedata:<kind>:id:<id> 与 referencedata:<kind>:name:<name>
type ReferenceRedisRepository struct {
	cache  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewReferenceRedisRepository 创建基于 Redis 的参考数据读模型仓储
func NewReferenceRedisRepository(client redis.UniversalClient) *ReferenceRedisRepository {
	return &ReferenceRedisRepository{
		cache:  cache.NewFromClient(client),
		prefix: "referencedata:",
		ttl:    24 * time.Hour,
	}
}

func (r *ReferenceRedisRepository) idKey(kind tradedomain.ReferenceKind, id int64) string {
	return r.prefix + string(kind) + ":id:" + strconv.FormatInt(id, 10)
}

func (r *ReferenceRedisRepository) nameKey(kind tradedomain.ReferenceKind, name string) string {
	return r.prefix + string(kind) + ":name:" + name
}

func (r *ReferenceRedisRepository) Save(ctx context.Context, e *domain.Entity) error {
	if e == nil {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.idKey(e.Kind, e.ID), e, r.ttl); err != nil {
		return fmt.Errorf("failed to cache %s %d: %w", e.Kind, e.ID, err)
	}
	if e.Name == "" {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.nameKey(e.Kind, e.Name), e, r.ttl); err != nil {
		return fmt.Errorf("failed to cache %s %s: %w", e.Kind, e.Name, err)
	}
	return nil
}

func (r *ReferenceRedisRepository) Get(ctx context.Context, kind tradedomain.ReferenceKind, id int64) (*domain.Entity, error) {
	return r.get(ctx, r.idKey(kind, id))
}

func (r *ReferenceRedisRepository) GetByName(ctx context.Context, kind tradedomain.ReferenceKind, name string) (*domain.Entity, error) {
	if name == "" {
		return nil, nil
	}
	return r.get(ctx, r.nameKey(kind, name))
}

func (r *ReferenceRedisRepository) Delete(ctx context.Context, e *domain.Entity) error {
	if e == nil {
		return nil
	}
	return r.cache.Delete(ctx, r.idKey(e.Kind, e.ID), r.nameKey(e.Kind, e.Name))
}

func (r *ReferenceRedisRepository) get(ctx context.Context, key string) (*domain.Entity, error) {
	var e domain.Entity
	hit, err := r.cache.GetJSON(ctx, key, &e)
	if err != nil {
		return nil, fmt.Errorf("failed to get reference data from redis: %w", err)
	}
	if !hit {
		return nil, nil
	}
	return &e, nil
}

// Package redis 提供活跃交易的 Redis 读模型
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/cache"
)

// DefaultTTL 缓存有效期
const DefaultTTL = 15 * time.Minute

// TradeRedisRepository 按 tradeId 缓存活跃版本快照，读取方需用 FindActiveStamp 确认后再使用
type TradeRedisRepository struct {
	cache  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewTradeRedisRepository 创建读模型，ttl 为 0 时使用默认值
func NewTradeRedisRepository(client redis.UniversalClient, ttl time.Duration) *TradeRedisRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TradeRedisRepository{
		cache:  cache.NewFromClient(client),
		prefix: "trade:active:",
		ttl:    ttl,
	}
}

// Save 写入缓存
func (r *TradeRedisRepository) Save(ctx context.Context, trade *domain.Trade) error {
	if trade == nil {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.key(trade.TradeID), trade, r.ttl); err != nil {
		return fmt.Errorf("failed to cache trade: %w", err)
	}
	return nil
}

// Get 读取缓存，未命中返回 nil, nil
func (r *TradeRedisRepository) Get(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	var trade domain.Trade
	hit, err := r.cache.GetJSON(ctx, r.key(tradeID), &trade)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade from redis: %w", err)
	}
	if !hit {
		return nil, nil
	}
	return &trade, nil
}

// Delete 删除缓存
func (r *TradeRedisRepository) Delete(ctx context.Context, tradeID int64) error {
	return r.cache.Delete(ctx, r.key(tradeID))
}

func (r *TradeRedisRepository) key(tradeID int64) string {
	return r.prefix + strconv.FormatInt(tradeID, 10)
}

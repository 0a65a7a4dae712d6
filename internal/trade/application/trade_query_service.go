package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
)

// TradeQueryService 处理交易的读操作
type TradeQueryService struct {
	repo     domain.TradeRepository
	resolver domain.ReferenceDataResolver
	cache    domain.TradeReadRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewTradeQueryService 创建查询服务
func NewTradeQueryService(deps Dependencies) *TradeQueryService {
	return &TradeQueryService{
		repo:     deps.Repo,
		resolver: deps.Resolver,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   deps.logger(),
	}
}

// GetTradeByID 获取活跃版本；缓存快照先与数据库中的行 ID 和状态比对，不一致时丢弃并回源
func (q *TradeQueryService) GetTradeByID(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	if q.cache != nil {
		cached, err := q.cachedTrade(ctx, tradeID)
		if err != nil {
			return nil, err
		}
		q.metrics.RecordCacheLookup("trade", cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	trade, err := q.repo.FindActiveByTradeID(ctx, tradeID, false)
	if err != nil {
		return nil, err
	}
	if err := newRefCache(q.resolver).hydrate(ctx, trade); err != nil {
		return nil, err
	}

	if q.cache != nil {
		if err := q.cache.Save(ctx, trade); err != nil {
			q.logger.WarnContext(ctx, "trade cache write failed", "trade_id", tradeID, "error", err)
		}
	}
	return trade, nil
}

// cachedTrade 返回仍与活跃版本一致的缓存快照，过期快照被删除
func (q *TradeQueryService) cachedTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	cached, err := q.cache.Get(ctx, tradeID)
	if err != nil {
		q.logger.WarnContext(ctx, "trade cache read failed", "trade_id", tradeID, "error", err)
		return nil, nil
	}
	if cached == nil {
		return nil, nil
	}

	stamp, err := q.repo.FindActiveStamp(ctx, tradeID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}
	if err == nil && stamp.Matches(cached) {
		return cached, nil
	}

	q.logger.InfoContext(ctx, "discarding stale trade snapshot", "trade_id", tradeID, "cached_row_id", cached.ID, "active_row_id", stamp.RowID)
	if err := q.cache.Delete(ctx, tradeID); err != nil {
		q.logger.WarnContext(ctx, "failed to drop stale trade snapshot", "trade_id", tradeID, "error", err)
	}
	return nil, nil
}

// ListTradesByStatus 列出指定状态的全部活跃版本
func (q *TradeQueryService) ListTradesByStatus(ctx context.Context, status domain.Reference) ([]*domain.Trade, error) {
	refs := newRefCache(q.resolver)
	st, err := refs.resolve(ctx, domain.RefTradeStatus, status)
	if err != nil {
		return nil, err
	}

	trades, err := q.repo.FindActiveByStatus(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range trades {
		if err := refs.hydrate(ctx, t); err != nil {
			return nil, err
		}
	}
	return trades, nil
}

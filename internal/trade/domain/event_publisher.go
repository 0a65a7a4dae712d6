package domain

import "context"

// EventPublisher 事件发布者接口，在事务 context 中调用时与交易写入一同提交
type EventPublisher interface {
	// PublishTradeCreated 发布交易创建事件
	PublishTradeCreated(ctx context.Context, event TradeCreatedEvent) error

	// PublishTradeAmended 发布交易修订事件
	PublishTradeAmended(ctx context.Context, event TradeAmendedEvent) error

	// PublishTradeTerminated 发布交易终止事件
	PublishTradeTerminated(ctx context.Context, event TradeTerminatedEvent) error

	// PublishTradeCancelled 发布交易取消事件
	PublishTradeCancelled(ctx context.Context, event TradeCancelledEvent) error
}

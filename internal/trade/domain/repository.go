package domain

import "context"

// TradeRepository 交易仓储接口
// 事务通过 WithTx 传入的 context 传播，仓储方法在 txCtx 上调用时加入同一事务
type TradeRepository interface {
	// WithTx 在一个数据库事务中执行 fn
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
	// Save 插入交易版本及其腿与现金流，回填各级 ID；(trade_id, version) 冲突返回 ConcurrencyConflict
	Save(ctx context.Context, trade *Trade) error
	// Deactivate 条件更新 active=true 的行为停用，未命中返回 ConcurrencyConflict
	Deactivate(ctx context.Context, trade *Trade) error
	// UpdateStatus 条件更新活跃行的状态与最后修改时间，未命中返回 ConcurrencyConflict
	UpdateStatus(ctx context.Context, trade *Trade) error
	// FindActiveByTradeID 获取活跃版本，forUpdate 时加行锁；不存在返回 NotFound
	FindActiveByTradeID(ctx context.Context, tradeID int64, forUpdate bool) (*Trade, error)
	// FindActiveStamp 只读取活跃版本的行 ID 与状态；不存在返回 NotFound
	FindActiveStamp(ctx context.Context, tradeID int64) (TradeStamp, error)
	// FindActiveByStatus 获取指定状态的全部活跃版本
	FindActiveByStatus(ctx context.Context, statusID int64) ([]*Trade, error)
	// CountTrades 交易行总数（含历史版本）
	CountTrades(ctx context.Context) (int64, error)
}

// TradeStamp 标识活跃版本的当前状态：修订换行 ID，终止与取消换状态
type TradeStamp struct {
	RowID    int64
	StatusID int64
}

// Matches 快照与当前活跃版本一致
func (s TradeStamp) Matches(t *Trade) bool {
	return t != nil && t.Active && t.ID == s.RowID && t.Status.ID == s.StatusID
}

// TradeReadRepository 活跃交易读模型缓存，快照需经 FindActiveStamp 确认后使用
type TradeReadRepository interface {
	Get(ctx context.Context, tradeID int64) (*Trade, error)
	Save(ctx context.Context, trade *Trade) error
	Delete(ctx context.Context, tradeID int64) error
}

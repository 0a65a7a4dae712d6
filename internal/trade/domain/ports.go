package domain

import "context"

// ReferenceDataResolver 参考数据解析
// 不存在返回 NotFound，Active 由调用方按字段决定是否检查
type ReferenceDataResolver interface {
	Resolve(ctx context.Context, kind ReferenceKind, ref Reference) (RefEntity, error)
}

// Operation 需要授权的生命周期操作
type Operation string

const (
	OpBookTrade      Operation = "BOOK_TRADE"
	OpAmendTrade     Operation = "AMEND_TRADE"
	OpTerminateTrade Operation = "TERMINATE_TRADE"
	OpCancelTrade    Operation = "CANCEL_TRADE"

	// OpMaintainReferenceData 新增、修改、启停参考数据与用户
	OpMaintainReferenceData Operation = "MAINTAIN_REFERENCE_DATA"
)

// TradeContext 授权时可用的交易上下文，新建交易时 TradeID 可能为 0
type TradeContext struct {
	TradeID int64
}

// Authorizer 授权检查，拒绝时返回 Unauthorized
type Authorizer interface {
	Authorize(ctx context.Context, userID string, op Operation, tc TradeContext) error
}

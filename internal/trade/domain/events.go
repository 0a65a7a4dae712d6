package domain

import "time"

// 事件类型
const (
	EventTradeCreated    = "TradeCreated"
	EventTradeAmended    = "TradeAmended"
	EventTradeTerminated = "TradeTerminated"
	EventTradeCancelled  = "TradeCancelled"
)

// TradeEvent 生命周期事件公共字段
type TradeEvent struct {
	TradeID    int64     `json:"tradeId"`
	Version    int       `json:"version"`
	Status     string    `json:"status"`
	UserID     string    `json:"userId"`
	OccurredOn time.Time `json:"occurredOn"`
}

// NewTradeEvent 由交易版本构造事件
func NewTradeEvent(t *Trade, userID string, at time.Time) TradeEvent {
	return TradeEvent{
		TradeID:    t.TradeID,
		Version:    t.Version,
		Status:     t.Status.Name,
		UserID:     userID,
		OccurredOn: at,
	}
}

// TradeCreatedEvent 交易创建事件
type TradeCreatedEvent struct {
	TradeEvent
	BookID         int64 `json:"bookId"`
	CounterpartyID int64 `json:"counterpartyId"`
	CashflowCount  int   `json:"cashflowCount"`
}

// TradeAmendedEvent 交易修订事件
type TradeAmendedEvent struct {
	TradeEvent
	PreviousVersion int `json:"previousVersion"`
	CashflowCount   int `json:"cashflowCount"`
}

// TradeTerminatedEvent 交易终止事件
type TradeTerminatedEvent struct {
	TradeEvent
}

// TradeCancelledEvent 交易取消事件
type TradeCancelledEvent struct {
	TradeEvent
}

// Package messaging 实现交易事件的 Outbox 发布与中继
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"gorm.io/gorm"
)

// Outbox 消息状态
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// OutboxMessage 待投递事件
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	EventID   string    `gorm:"type:varchar(36);index"`
	EventType string    `gorm:"type:varchar(100);index"`
	TradeID   string    `gorm:"type:varchar(32);index"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "trade_outbox_messages"
}

// AutoMigrate 迁移 outbox 表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OutboxMessage{})
}

// OutboxEventPublisher 实现 domain.EventPublisher，事件写入与交易写入同一事务
type OutboxEventPublisher struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOutboxEventPublisher 创建 OutboxEventPublisher
func NewOutboxEventPublisher(db *gorm.DB, now func() time.Time) *OutboxEventPublisher {
	if now == nil {
		now = time.Now
	}
	return &OutboxEventPublisher{db: db, now: now}
}

// PublishTradeCreated 发布交易创建事件
func (p *OutboxEventPublisher) PublishTradeCreated(ctx context.Context, event domain.TradeCreatedEvent) error {
	return p.publishEvent(ctx, domain.EventTradeCreated, event.TradeID, event)
}

// PublishTradeAmended 发布交易修订事件
func (p *OutboxEventPublisher) PublishTradeAmended(ctx context.Context, event domain.TradeAmendedEvent) error {
	return p.publishEvent(ctx, domain.EventTradeAmended, event.TradeID, event)
}

// PublishTradeTerminated 发布交易终止事件
func (p *OutboxEventPublisher) PublishTradeTerminated(ctx context.Context, event domain.TradeTerminatedEvent) error {
	return p.publishEvent(ctx, domain.EventTradeTerminated, event.TradeID, event)
}

// PublishTradeCancelled 发布交易取消事件
func (p *OutboxEventPublisher) PublishTradeCancelled(ctx context.Context, event domain.TradeCancelledEvent) error {
	return p.publishEvent(ctx, domain.EventTradeCancelled, event.TradeID, event)
}

func (p *OutboxEventPublisher) publishEvent(ctx context.Context, eventType string, tradeID int64, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", eventType, err)
	}

	now := p.now()
	message := OutboxMessage{
		ID:        uuid.NewString(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		TradeID:   strconv.FormatInt(tradeID, 10),
		Payload:   string(payload),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.getDB(ctx).Create(&message).Error; err != nil {
		return fmt.Errorf("failed to save outbox message: %w", err)
	}
	return nil
}

func (p *OutboxEventPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx); ok {
		return tx
	}
	return p.db.WithContext(ctx)
}

package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/tradelifecycle/pkg/logger"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
	"github.com/wyfcoding/tradelifecycle/pkg/mq"
	"gorm.io/gorm"
)

// Producer 消息投递端，由 mq.KafkaProducer 实现
type Producer interface {
	Publish(ctx context.Context, messages ...mq.Message) error
}

// Relay 将 pending 状态的 outbox 消息投递到 Kafka，成功后标记为 sent
// 投递失败时消息保持 pending，下次调度重试（至少一次）
type Relay struct {
	db       *gorm.DB
	producer Producer
	topic    string
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewRelay 创建中继
func NewRelay(db *gorm.DB, producer Producer, topic string, m *metrics.Metrics, now func() time.Time) *Relay {
	if now == nil {
		now = time.Now
	}
	return &Relay{db: db, producer: producer, topic: topic, metrics: m, now: now}
}

// ProcessPending 按创建顺序投递一批消息，返回投递条数
func (r *Relay) ProcessPending(ctx context.Context, batchSize int) (int, error) {
	var messages []OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at, id").
		Limit(batchSize).
		Find(&messages).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	out := make([]mq.Message, 0, len(messages))
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, mq.Message{
			Topic: r.topic,
			Key:   m.TradeID,
			Value: []byte(m.Payload),
			Headers: map[string]string{
				"event_id":   m.EventID,
				"event_type": m.EventType,
			},
		})
		ids = append(ids, m.ID)
	}

	if err := r.producer.Publish(ctx, out...); err != nil {
		r.metrics.RecordOutbox("failed", len(out))
		return 0, fmt.Errorf("failed to publish %d outbox messages: %w", len(out), err)
	}

	err = r.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": StatusSent, "updated_at": r.now()}).Error
	if err != nil {
		// 已投递但未标记，下次会重复投递
		logger.Warn(ctx, "outbox messages published but not marked sent", "count", len(out), "error", err)
		return 0, fmt.Errorf("failed to mark outbox messages sent: %w", err)
	}
	r.metrics.RecordOutbox("sent", len(out))
	return len(out), nil
}

// Cleanup 删除 before 之前已投递的消息
func (r *Relay) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusSent, before).
		Delete(&OutboxMessage{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to cleanup outbox messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RelayJob 供调度器调用的投递任务
func (r *Relay) RelayJob(batchSize int) func(context.Context) {
	return func(ctx context.Context) {
		n, err := r.ProcessPending(ctx, batchSize)
		if err != nil {
			logger.Error(ctx, "outbox relay failed", "error", err)
			return
		}
		if n > 0 {
			logger.Debug(ctx, "outbox relayed", "count", n)
		}
	}
}

// CleanupJob 供调度器调用的清理任务
func (r *Relay) CleanupJob(retention time.Duration) func(context.Context) {
	return func(ctx context.Context) {
		n, err := r.Cleanup(ctx, r.now().Add(-retention))
		if err != nil {
			logger.Error(ctx, "outbox cleanup failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info(ctx, "outbox cleaned up", "count", n)
		}
	}
}

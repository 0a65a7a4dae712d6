// Package mq 提供 Kafka producer/consumer 通用实现
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/tradelifecycle/pkg/logger"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string
	GroupID      string
	WriteTimeout time.Duration
	MaxRetries   int
}

// Message 待发送消息
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer messageWriter
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg KafkaConfig) *KafkaProducer {
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll, // 等待所有副本确认
		MaxAttempts:            maxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
	}

	logger.Info(context.Background(), "kafka producer created", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer}
}

// Publish 批量发送消息，同一 key 落在同一分区保证顺序
func (kp *KafkaProducer) Publish(ctx context.Context, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		msg := kafka.Message{
			Topic: m.Topic,
			Key:   []byte(m.Key),
			Value: m.Value,
		}
		for k, v := range m.Headers {
			msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		batch = append(batch, msg)
	}

	if err := kp.writer.WriteMessages(ctx, batch...); err != nil {
		logger.Error(ctx, "failed to send kafka messages", "count", len(batch), "error", err)
		return fmt.Errorf("failed to send kafka messages: %w", err)
	}

	logger.Debug(ctx, "kafka messages sent", "count", len(batch))
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// KafkaConsumer Kafka 消费者
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewConsumer 创建消费者，GroupID 为空时从最新位置读取单分区流
func NewConsumer(cfg KafkaConfig, topic string) *KafkaConsumer {
	readerCfg := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	if cfg.GroupID == "" {
		readerCfg.StartOffset = kafka.LastOffset
	}
	return &KafkaConsumer{reader: kafka.NewReader(readerCfg)}
}

// Consume 循环读取消息直到 ctx 取消，handler 返回错误时停止
func (kc *KafkaConsumer) Consume(ctx context.Context, handler func(ctx context.Context, key string, value []byte) error) error {
	for {
		msg, err := kc.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read kafka message: %w", err)
		}
		if err := handler(ctx, string(msg.Key), msg.Value); err != nil {
			return err
		}
	}
}

// Close 关闭消费者
func (kc *KafkaConsumer) Close() error {
	return kc.reader.Close()
}

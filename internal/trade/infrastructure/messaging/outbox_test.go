package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/mq"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type recordingProducer struct {
	messages []mq.Message
	err      error
}

func (p *recordingProducer) Publish(_ context.Context, messages ...mq.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, messages...)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := db.Init(context.Background(), db.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(d.DB))
	t.Cleanup(func() { _ = d.Close() })
	return d.DB
}

func created(tradeID int64) domain.TradeCreatedEvent {
	return domain.TradeCreatedEvent{
		TradeEvent:    domain.TradeEvent{TradeID: tradeID, Version: 1, Status: domain.StatusNew, UserID: "alice", OccurredOn: fixedNow},
		BookID:        3,
		CashflowCount: 4,
	}
}

func pendingCount(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&OutboxMessage{}).Where("status = ?", StatusPending).Count(&n).Error)
	return n
}

func TestOutboxEventPublisher_JoinsTransaction(t *testing.T) {
	gdb := newTestDB(t)
	pub := NewOutboxEventPublisher(gdb, clock)
	ctx := context.Background()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, pub.PublishTradeCreated(contextx.WithTx(ctx, tx), created(10000)))
		return errors.New("rollback")
	})
	require.Error(t, err)
	assert.Zero(t, pendingCount(t, gdb))

	require.NoError(t, pub.PublishTradeCreated(ctx, created(10000)))
	assert.Equal(t, int64(1), pendingCount(t, gdb))
}

func TestRelay_ProcessPending(t *testing.T) {
	gdb := newTestDB(t)
	pub := NewOutboxEventPublisher(gdb, clock)
	ctx := context.Background()

	require.NoError(t, pub.PublishTradeCreated(ctx, created(10000)))
	require.NoError(t, pub.PublishTradeCancelled(ctx, domain.TradeCancelledEvent{
		TradeEvent: domain.TradeEvent{TradeID: 10000, Version: 1, Status: domain.StatusCancelled},
	}))

	producer := &recordingProducer{}
	relay := NewRelay(gdb, producer, "trade.lifecycle", nil, clock)

	n, err := relay.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, pendingCount(t, gdb))

	require.Len(t, producer.messages, 2)
	first := producer.messages[0]
	assert.Equal(t, "trade.lifecycle", first.Topic)
	assert.Equal(t, "10000", first.Key)
	assert.Contains(t, []string{domain.EventTradeCreated, domain.EventTradeCancelled}, first.Headers["event_type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &payload))
	assert.EqualValues(t, 10000, payload["tradeId"])

	n, err = relay.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_PublishFailureKeepsPending(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewOutboxEventPublisher(gdb, clock).PublishTradeCreated(ctx, created(1)))

	relay := NewRelay(gdb, &recordingProducer{err: errors.New("broker down")}, "trade.lifecycle", nil, clock)
	_, err := relay.ProcessPending(ctx, 10)
	require.Error(t, err)
	assert.Equal(t, int64(1), pendingCount(t, gdb))
}

// captureLogs 将默认 slog 输出重定向到缓冲区
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRelayJob_LogsFailures(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewOutboxEventPublisher(gdb, clock).PublishTradeCreated(ctx, created(1)))
	logs := captureLogs(t)

	NewRelay(gdb, &recordingProducer{err: errors.New("broker down")}, "trade.lifecycle", nil, clock).RelayJob(10)(ctx)
	assert.Contains(t, logs.String(), "outbox relay failed")
	assert.Contains(t, logs.String(), "broker down")

	logs.Reset()
	require.NoError(t, gdb.Migrator().DropTable(&OutboxMessage{}))
	NewRelay(gdb, &recordingProducer{}, "trade.lifecycle", nil, clock).RelayJob(10)(ctx)
	assert.Contains(t, logs.String(), "failed to load outbox messages")
}

func TestRelay_Cleanup(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewOutboxEventPublisher(gdb, clock).PublishTradeCreated(ctx, created(1)))
	require.NoError(t, NewOutboxEventPublisher(gdb, clock).PublishTradeCreated(ctx, created(2)))

	relay := NewRelay(gdb, &recordingProducer{}, "trade.lifecycle", nil, clock)
	n, err := relay.ProcessPending(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	deleted, err := relay.Cleanup(ctx, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, int64(1), pendingCount(t, gdb), "pending messages are never cleaned up")
}

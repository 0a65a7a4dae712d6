package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

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

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleTrade(tradeID int64, version int) *domain.Trade {
	cf := func(date string, amount string) domain.Cashflow {
		return domain.Cashflow{
			ValueDate:    day(date),
			PaymentValue: decimal.RequireFromString(amount),
			Rate:         decimal.NewNullDecimal(decimal.RequireFromString("3.5")),
			PayReceive:   domain.RefEntity{ID: 1},
			PaymentType:  domain.LegRateFixed,
			CreatedAt:    fixedNow,
			Active:       true,
		}
	}
	return &domain.Trade{
		TradeID:            tradeID,
		Version:            version,
		TradeDate:          day("2026-10-12"),
		StartDate:          day("2026-10-12"),
		MaturityDate:       day("2027-04-12"),
		ExecutionDate:      day("2026-10-12"),
		UTICode:            "UTI-1",
		Status:             domain.RefEntity{ID: 1, Name: domain.StatusNew},
		Book:               domain.RefEntity{ID: 3},
		Counterparty:       domain.RefEntity{ID: 4},
		Trader:             domain.RefEntity{ID: 5},
		Inputter:           domain.RefEntity{ID: 5},
		TradeType:          domain.RefEntity{ID: 6},
		Active:             true,
		CreatedAt:          fixedNow,
		LastTouchTimestamp: fixedNow,
		Legs: []domain.TradeLeg{
			{
				Notional:    decimal.NewFromInt(10000000),
				Rate:        decimal.NewNullDecimal(decimal.RequireFromString("3.5")),
				Currency:    domain.RefEntity{ID: 1},
				LegRateType: domain.RefEntity{ID: 1},
				PayReceive:  domain.RefEntity{ID: 1},
				PaymentBDC:  domain.RefEntity{ID: 2},
				Cashflows: []domain.Cashflow{
					cf("2027-04-12", "87500.00"),
					cf("2027-01-12", "87500.00"),
				},
			},
			{
				Notional:    decimal.NewFromInt(10000000),
				Currency:    domain.RefEntity{ID: 1},
				LegRateType: domain.RefEntity{ID: 2},
				Index:       domain.RefEntity{ID: 7},
				PayReceive:  domain.RefEntity{ID: 2},
			},
		},
	}
}

func TestTradeRepository_SaveAndFindActive(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	trade := sampleTrade(10000, 1)
	require.NoError(t, repo.Save(ctx, trade))
	assert.NotZero(t, trade.ID)
	assert.NotZero(t, trade.Legs[0].ID)
	assert.NotZero(t, trade.Legs[0].Cashflows[0].ID)

	got, err := repo.FindActiveByTradeID(ctx, 10000, false)
	require.NoError(t, err)
	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, 1, got.Version)
	assert.True(t, got.Active)
	assert.Equal(t, int64(3), got.Book.ID)
	assert.Equal(t, int64(6), got.TradeType.ID)
	assert.True(t, got.TradeSubType.IsZero())
	assert.True(t, got.TradeDate.Equal(day("2026-10-12")))

	require.Len(t, got.Legs, 2)
	fixed := got.Legs[0]
	assert.True(t, fixed.Notional.Equal(decimal.NewFromInt(10000000)))
	assert.True(t, fixed.Rate.Valid)
	assert.True(t, fixed.Rate.Decimal.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, int64(2), fixed.PaymentBDC.ID)

	require.Len(t, fixed.Cashflows, 2)
	assert.True(t, fixed.Cashflows[0].ValueDate.Equal(day("2027-01-12")), "cashflows ordered by value date")
	assert.True(t, fixed.Cashflows[1].PaymentValue.Equal(decimal.RequireFromString("87500")))

	floating := got.Legs[1]
	assert.False(t, floating.Rate.Valid)
	assert.Equal(t, int64(7), floating.Index.ID)
	assert.Empty(t, floating.Cashflows)
}

func TestTradeRepository_FindActive_NotFound(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))

	_, err := repo.FindActiveByTradeID(context.Background(), 404, true)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestTradeRepository_DuplicateVersionIsConflict(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleTrade(10000, 1)))
	err := repo.Save(ctx, sampleTrade(10000, 1))
	require.Error(t, err)
	assert.True(t, domain.IsConcurrencyConflict(err))
}

func TestTradeRepository_DeactivateThenNewVersion(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	v1 := sampleTrade(10000, 1)
	require.NoError(t, repo.Save(ctx, v1))

	later := fixedNow.Add(time.Hour)
	v1.Deactivate(later)
	require.NoError(t, repo.Deactivate(ctx, v1))

	// 已停用的行不能再次停用
	err := repo.Deactivate(ctx, v1)
	assert.True(t, domain.IsConcurrencyConflict(err))

	v2 := sampleTrade(10000, 2)
	require.NoError(t, repo.Save(ctx, v2))

	got, err := repo.FindActiveByTradeID(ctx, 10000, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)

	count, err := repo.CountTrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTradeRepository_UpdateStatusAndFindByStatus(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	a := sampleTrade(10000, 1)
	b := sampleTrade(10001, 1)
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	a.ChangeStatus(domain.RefEntity{ID: 3, Name: domain.StatusTerminated}, fixedNow.Add(time.Minute))
	require.NoError(t, repo.UpdateStatus(ctx, a))

	news, err := repo.FindActiveByStatus(ctx, 1)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, int64(10001), news[0].TradeID)
	assert.Len(t, news[0].Legs, 2)

	terminated, err := repo.FindActiveByStatus(ctx, 3)
	require.NoError(t, err)
	require.Len(t, terminated, 1)
	assert.Equal(t, 1, terminated[0].Version, "status change keeps the version")
}

func TestTradeRepository_FindActiveStamp(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.FindActiveStamp(ctx, 10000)
	assert.True(t, domain.IsNotFound(err))

	trade := sampleTrade(10000, 1)
	require.NoError(t, repo.Save(ctx, trade))
	stamp, err := repo.FindActiveStamp(ctx, 10000)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStamp{RowID: trade.ID, StatusID: 1}, stamp)

	trade.ChangeStatus(domain.RefEntity{ID: 4, Name: domain.StatusCancelled}, fixedNow.Add(time.Minute))
	require.NoError(t, repo.UpdateStatus(ctx, trade))
	stamp, err = repo.FindActiveStamp(ctx, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stamp.StatusID)
	assert.True(t, stamp.Matches(trade))
}

func TestTradeRepository_WithTxRollback(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := repo.Save(txCtx, sampleTrade(10000, 1)); err != nil {
			return err
		}
		// 嵌套调用加入外层事务
		return repo.WithTx(txCtx, func(inner context.Context) error {
			if err := repo.Save(inner, sampleTrade(10001, 1)); err != nil {
				return err
			}
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.CountTrades(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

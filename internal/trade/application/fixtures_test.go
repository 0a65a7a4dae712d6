package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/messaging"
	"github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
	"gorm.io/gorm"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeResolver 内存参考数据，按 ID 或名称（忽略大小写）查找
type fakeResolver struct {
	entities map[domain.ReferenceKind][]domain.RefEntity
}

func newFakeResolver() *fakeResolver {
	e := func(id int64, name string) domain.RefEntity { return domain.RefEntity{ID: id, Name: name, Active: true} }
	return &fakeResolver{entities: map[domain.ReferenceKind][]domain.RefEntity{
		domain.RefTradeStatus: {e(1, domain.StatusNew), e(2, domain.StatusAmended), e(3, domain.StatusTerminated), e(4, domain.StatusCancelled)},
		domain.RefBook:        {e(1, "FX-BOOK-1"), {ID: 2, Name: "OLD-BOOK"}},
		domain.RefCounterparty: {
			e(1, "BigBank"), e(2, "MegaFund"),
		},
		domain.RefUser:                  {e(1, "alice"), e(2, "bob"), {ID: 3, Name: "mallory"}},
		domain.RefTradeType:             {e(1, "Swap")},
		domain.RefTradeSubType:          {e(1, "IRS")},
		domain.RefCurrency:              {e(1, "USD"), e(2, "EUR")},
		domain.RefLegRateType:           {e(1, domain.LegRateFixed), e(2, domain.LegRateFloating)},
		domain.RefIndex:                 {e(1, "SOFR")},
		domain.RefHolidayCalendar:       {e(1, "NYC")},
		domain.RefSchedule:              {e(1, "Quarterly"), e(2, "Monthly"), e(3, "6M")},
		domain.RefBusinessDayConvention: {e(1, "Following"), e(2, "ModifiedFollowing")},
		domain.RefPayReceive:            {e(1, "Pay"), e(2, "Receive")},
	}}
}

func (r *fakeResolver) Resolve(_ context.Context, kind domain.ReferenceKind, ref domain.Reference) (domain.RefEntity, error) {
	for _, ent := range r.entities[kind] {
		if id, ok := ref.ID(); ok && ent.ID == id {
			return ent, nil
		}
		if name, ok := ref.Name(); ok && strings.EqualFold(ent.Name, name) {
			return ent, nil
		}
	}
	return domain.RefEntity{}, domain.NotFound(ref.Field(kind), ref.String())
}

// fakeAuthorizer 按用户授予操作
type fakeAuthorizer struct {
	grants map[string][]domain.Operation
	calls  []domain.Operation
}

func (a *fakeAuthorizer) Authorize(_ context.Context, userID string, op domain.Operation, _ domain.TradeContext) error {
	a.calls = append(a.calls, op)
	for _, g := range a.grants[userID] {
		if g == op {
			return nil
		}
	}
	return domain.Unauthorized(userID, op)
}

type testEnv struct {
	svc     *TradeService
	repo    domain.TradeRepository
	db      *gorm.DB
	clock   *testClock
	auth    *fakeAuthorizer
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, cache domain.TradeReadRepository) *testEnv {
	t.Helper()
	d, err := db.Init(context.Background(), db.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, mysql.AutoMigrate(d.DB))
	require.NoError(t, messaging.AutoMigrate(d.DB))
	t.Cleanup(func() { _ = d.Close() })

	clock := &testClock{t: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)}
	auth := &fakeAuthorizer{grants: map[string][]domain.Operation{
		"alice": {domain.OpBookTrade, domain.OpAmendTrade, domain.OpTerminateTrade, domain.OpCancelTrade},
		"bob":   {domain.OpBookTrade},
	}}
	m := metrics.New("test")
	repo := mysql.NewTradeRepository(d.DB)

	svc := NewTradeService(Dependencies{
		Repo:       repo,
		Resolver:   newFakeResolver(),
		Authorizer: auth,
		Publisher:  messaging.NewOutboxEventPublisher(d.DB, clock.Now),
		Cache:      cache,
		Metrics:    m,
	}, Settings{Now: clock.Now})

	return &testEnv{svc: svc, repo: repo, db: d.DB, clock: clock, auth: auth, metrics: m}
}

func (e *testEnv) outboxTypes(t *testing.T) []string {
	t.Helper()
	var msgs []messaging.OutboxMessage
	require.NoError(t, e.db.Order("created_at, id").Find(&msgs).Error)
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.EventType)
	}
	return types
}

func (e *testEnv) rowCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.repo.CountTrades(context.Background())
	require.NoError(t, err)
	return n
}

func asUser(userID string) context.Context {
	return contextx.WithUserID(context.Background(), userID)
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func swapCommand() TradeCommand {
	return TradeCommand{
		TradeDate:     day("2026-10-12"),
		StartDate:     day("2026-10-12"),
		MaturityDate:  day("2027-10-12"),
		ExecutionDate: day("2026-10-12"),
		UTICode:       "UTI-0001",
		Book:          domain.ByName("FX-BOOK-1"),
		Counterparty:  domain.ByName("BigBank"),
		Trader:        domain.ByName("alice"),
		TradeType:     domain.ByName("Swap"),
		Legs: []LegCommand{
			{
				Notional:    decimal.NewFromInt(10000000),
				Rate:        decimal.NewNullDecimal(decimal.RequireFromString("3.5")),
				Currency:    domain.ByName("USD"),
				LegRateType: domain.ByName(domain.LegRateFixed),
				Schedule:    domain.ByName("Quarterly"),
				PaymentBDC:  domain.ByName("Following"),
				PayReceive:  domain.ByName("Pay"),
			},
			{
				Notional:    decimal.NewFromInt(10000000),
				Currency:    domain.ByName("USD"),
				LegRateType: domain.ByName(domain.LegRateFloating),
				Index:       domain.ByName("SOFR"),
				Schedule:    domain.ByID(1),
				PayReceive:  domain.ByID(2),
			},
		},
	}
}

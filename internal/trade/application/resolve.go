package application

import (
	"context"

	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// refCache 单次调用内的参考数据解析缓存，不跨请求共享
type refCache struct {
	resolver domain.ReferenceDataResolver
	byKey    map[string]domain.RefEntity
}

func newRefCache(resolver domain.ReferenceDataResolver) *refCache {
	return &refCache{resolver: resolver, byKey: make(map[string]domain.RefEntity)}
}

func (c *refCache) resolve(ctx context.Context, kind domain.ReferenceKind, ref domain.Reference) (domain.RefEntity, error) {
	key := string(kind) + "|" + ref.Field(kind) + "|" + ref.String()
	if e, ok := c.byKey[key]; ok {
		return e, nil
	}
	e, err := c.resolver.Resolve(ctx, kind, ref)
	if err != nil {
		return domain.RefEntity{}, err
	}
	c.byKey[key] = e
	return e, nil
}

// active 解析并要求实体处于启用状态
func (c *refCache) active(ctx context.Context, kind domain.ReferenceKind, ref domain.Reference) (domain.RefEntity, error) {
	e, err := c.resolve(ctx, kind, ref)
	if err != nil {
		return e, err
	}
	if !e.Active {
		return domain.RefEntity{}, domain.InactiveReference(string(kind), ref.String())
	}
	return e, nil
}

// optional 未提供引用时返回零值
func (c *refCache) optional(ctx context.Context, kind domain.ReferenceKind, ref domain.Reference) (domain.RefEntity, error) {
	if ref.IsZero() {
		return domain.RefEntity{}, nil
	}
	return c.resolve(ctx, kind, ref)
}

// fill 按 ID 补全仓储中只保存了 ID 的实体
func (c *refCache) fill(ctx context.Context, kind domain.ReferenceKind, e *domain.RefEntity) error {
	if e.ID == 0 {
		return nil
	}
	got, err := c.resolve(ctx, kind, domain.ByID(e.ID))
	if err != nil {
		return err
	}
	*e = got
	return nil
}

// resolveLeg 解析腿的全部参考数据
func (c *refCache) resolveLeg(ctx context.Context, lc LegCommand) (domain.TradeLeg, error) {
	leg := domain.TradeLeg{Notional: lc.Notional, Rate: lc.Rate}

	required := []struct {
		kind domain.ReferenceKind
		ref  domain.Reference
		dst  *domain.RefEntity
	}{
		{domain.RefCurrency, lc.Currency, &leg.Currency},
		{domain.RefLegRateType, lc.LegRateType, &leg.LegRateType},
		{domain.RefPayReceive, lc.PayReceive, &leg.PayReceive},
	}
	for _, r := range required {
		e, err := c.resolve(ctx, r.kind, r.ref)
		if err != nil {
			return leg, err
		}
		*r.dst = e
	}

	optional := []struct {
		kind domain.ReferenceKind
		ref  domain.Reference
		dst  *domain.RefEntity
	}{
		{domain.RefIndex, lc.Index, &leg.Index},
		{domain.RefHolidayCalendar, lc.HolidayCalendar, &leg.HolidayCalendar},
		{domain.RefSchedule, lc.Schedule, &leg.CalculationSchedule},
		{domain.RefBusinessDayConvention, lc.PaymentBDC, &leg.PaymentBDC},
		{domain.RefBusinessDayConvention, lc.FixingBDC, &leg.FixingBDC},
	}
	for _, r := range optional {
		e, err := c.optional(ctx, r.kind, r.ref)
		if err != nil {
			return leg, err
		}
		*r.dst = e
	}
	return leg, nil
}

// hydrate 补全交易树上的参考数据名称
func (c *refCache) hydrate(ctx context.Context, t *domain.Trade) error {
	fields := []struct {
		kind domain.ReferenceKind
		dst  *domain.RefEntity
	}{
		{domain.RefTradeStatus, &t.Status},
		{domain.RefBook, &t.Book},
		{domain.RefCounterparty, &t.Counterparty},
		{domain.RefUser, &t.Trader},
		{domain.RefUser, &t.Inputter},
		{domain.RefTradeType, &t.TradeType},
		{domain.RefTradeSubType, &t.TradeSubType},
	}
	for _, f := range fields {
		if err := c.fill(ctx, f.kind, f.dst); err != nil {
			return err
		}
	}

	for i := range t.Legs {
		leg := &t.Legs[i]
		legFields := []struct {
			kind domain.ReferenceKind
			dst  *domain.RefEntity
		}{
			{domain.RefCurrency, &leg.Currency},
			{domain.RefLegRateType, &leg.LegRateType},
			{domain.RefIndex, &leg.Index},
			{domain.RefHolidayCalendar, &leg.HolidayCalendar},
			{domain.RefSchedule, &leg.CalculationSchedule},
			{domain.RefBusinessDayConvention, &leg.PaymentBDC},
			{domain.RefBusinessDayConvention, &leg.FixingBDC},
			{domain.RefPayReceive, &leg.PayReceive},
		}
		for _, f := range legFields {
			if err := c.fill(ctx, f.kind, f.dst); err != nil {
				return err
			}
		}
		for j := range leg.Cashflows {
			cf := &leg.Cashflows[j]
			if err := c.fill(ctx, domain.RefPayReceive, &cf.PayReceive); err != nil {
				return err
			}
			if err := c.fill(ctx, domain.RefBusinessDayConvention, &cf.PaymentBDC); err != nil {
				return err
			}
		}
	}
	return nil
}

package http

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradelifecycle/internal/trade/application"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

const dateLayout = "2006-01-02"

// RefRequest 参考数据引用，id 大于 0 时优先按 id 解析
type RefRequest struct {
	ID   int64  `json:"id" binding:"gte=0"`
	Name string `json:"name" binding:"max=128"`
}

func (r *RefRequest) ref() domain.Reference {
	if r == nil {
		return domain.Reference{}
	}
	return domain.RefOf(r.ID, r.Name)
}

// LegRequest 交易腿请求
type LegRequest struct {
	Notional        decimal.Decimal     `json:"notional"`
	Rate            decimal.NullDecimal `json:"rate"`
	Currency        *RefRequest         `json:"currency"`
	LegRateType     *RefRequest         `json:"legRateType"`
	Index           *RefRequest         `json:"index"`
	HolidayCalendar *RefRequest         `json:"holidayCalendar"`
	Schedule        *RefRequest         `json:"calculationSchedule"`
	PaymentBDC      *RefRequest         `json:"paymentBusinessDayConvention"`
	FixingBDC       *RefRequest         `json:"fixingBusinessDayConvention"`
	PayReceive      *RefRequest         `json:"payReceive"`
}

func (l LegRequest) command() application.LegCommand {
	return application.LegCommand{
		Notional:        l.Notional,
		Rate:            l.Rate,
		Currency:        l.Currency.ref(),
		LegRateType:     l.LegRateType.ref(),
		Index:           l.Index.ref(),
		HolidayCalendar: l.HolidayCalendar.ref(),
		Schedule:        l.Schedule.ref(),
		PaymentBDC:      l.PaymentBDC.ref(),
		FixingBDC:       l.FixingBDC.ref(),
		PayReceive:      l.PayReceive.ref(),
	}
}

// TradeRequest 新建与修订交易的请求体，日期格式 yyyy-MM-dd
type TradeRequest struct {
	TradeID       int64        `json:"tradeId" binding:"gte=0"`
	TradeDate     string       `json:"tradeDate" binding:"omitempty,datetime=2006-01-02"`
	StartDate     string       `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	MaturityDate  string       `json:"maturityDate" binding:"omitempty,datetime=2006-01-02"`
	ExecutionDate string       `json:"executionDate" binding:"omitempty,datetime=2006-01-02"`
	UTICode       string       `json:"utiCode"`
	Book          *RefRequest  `json:"book"`
	Counterparty  *RefRequest  `json:"counterparty"`
	Trader        *RefRequest  `json:"trader"`
	Inputter      *RefRequest  `json:"inputter"`
	TradeType     *RefRequest  `json:"tradeType"`
	TradeSubType  *RefRequest  `json:"tradeSubType"`
	Status        *RefRequest  `json:"status"`
	Legs          []LegRequest `json:"legs" binding:"dive"`
}

func (r TradeRequest) command() application.TradeCommand {
	legs := make([]application.LegCommand, len(r.Legs))
	for i, l := range r.Legs {
		legs[i] = l.command()
	}
	return application.TradeCommand{
		TradeID:       r.TradeID,
		TradeDate:     parseDate(r.TradeDate),
		StartDate:     parseDate(r.StartDate),
		MaturityDate:  parseDate(r.MaturityDate),
		ExecutionDate: parseDate(r.ExecutionDate),
		UTICode:       r.UTICode,
		Book:          r.Book.ref(),
		Counterparty:  r.Counterparty.ref(),
		Trader:        r.Trader.ref(),
		Inputter:      r.Inputter.ref(),
		TradeType:     r.TradeType.ref(),
		TradeSubType:  r.TradeSubType.ref(),
		Status:        r.Status.ref(),
		Legs:          legs,
	}
}

// CashflowRequest 现金流试算请求
type CashflowRequest struct {
	Leg          LegRequest `json:"leg"`
	StartDate    string     `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	MaturityDate string     `json:"maturityDate" binding:"omitempty,datetime=2006-01-02"`
}

// parseDate 空串返回零值，格式已由 binding 校验
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

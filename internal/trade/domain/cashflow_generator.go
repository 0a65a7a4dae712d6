package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashflowGenerator 根据腿的计息频率与利率生成付款计划，无共享可变状态，可并发使用
type CashflowGenerator struct {
	now func() time.Time
}

// NewCashflowGenerator 创建生成器，now 用于现金流创建时间
func NewCashflowGenerator(now func() time.Time) *CashflowGenerator {
	if now == nil {
		now = time.Now
	}
	return &CashflowGenerator{now: now}
}

// Generate 生成 start 到 maturity 之间的现金流，按付款日升序
// 固定腿按 ProRatedAmount 计息，浮动腿每期金额为 0
func (g *CashflowGenerator) Generate(leg TradeLeg, start, maturity time.Time) ([]Cashflow, error) {
	var v Violations
	if start.IsZero() {
		v.Add("start date is required to generate cashflows")
	}
	if maturity.IsZero() {
		v.Add("maturity date is required to generate cashflows")
	}
	if !leg.IsFixed() && !leg.IsFloating() {
		v.Add("unsupported leg rate type: %q", leg.LegRateType.Name)
	}
	if leg.IsFixed() && (!leg.Rate.Valid || !leg.Rate.Decimal.IsPositive()) {
		v.Add("fixed leg requires a positive rate")
	}
	months, err := IntervalMonths(leg.CalculationSchedule.Name)
	if err != nil {
		v.Add("invalid schedule format: %q", leg.CalculationSchedule.Name)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if leg.IsFixed() {
		amount = ProRatedAmount(leg.Notional, leg.Rate.Decimal, months)
	}

	createdAt := g.now()
	dates := PaymentDates(start, maturity, months)
	cashflows := make([]Cashflow, 0, len(dates))
	for _, d := range dates {
		cashflows = append(cashflows, Cashflow{
			ValueDate:    d,
			PaymentValue: amount,
			Rate:         leg.Rate,
			PayReceive:   leg.PayReceive,
			PaymentType:  leg.LegRateType.Name,
			PaymentBDC:   leg.PaymentBDC,
			CreatedAt:    createdAt,
			Active:       true,
		})
	}
	return cashflows, nil
}

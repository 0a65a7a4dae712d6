package domain

import (
	"fmt"
	"time"
)

// DefaultTradeDateWindowDays 交易日期允许回溯的默认天数
const DefaultTradeDateWindowDays = 30

// Violations 单次校验的违规信息累加器
type Violations struct {
	messages []string
}

// Add 追加一条违规信息
func (v *Violations) Add(format string, args ...any) {
	v.messages = append(v.messages, fmt.Sprintf(format, args...))
}

// Merge 合并另一组违规信息
func (v *Violations) Merge(other Violations) {
	v.messages = append(v.messages, other.messages...)
}

// Messages 返回全部违规信息
func (v Violations) Messages() []string {
	return append([]string(nil), v.messages...)
}

// Empty 没有违规
func (v Violations) Empty() bool {
	return len(v.messages) == 0
}

// Err 有违规时返回 ValidationFailed，否则返回 nil
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return ValidationFailed(v.Messages()...)
}

// TradeDates 交易的四个业务日期
type TradeDates struct {
	TradeDate     time.Time
	StartDate     time.Time
	MaturityDate  time.Time
	ExecutionDate time.Time
}

// ValidateTradeDates 校验交易日期规则，收集全部违规
func ValidateTradeDates(d TradeDates, today time.Time, windowDays int) Violations {
	var v Violations
	if d.TradeDate.IsZero() {
		v.Add("trade date is required")
	}
	if d.StartDate.IsZero() {
		v.Add("start date is required")
	}
	if d.MaturityDate.IsZero() {
		v.Add("maturity date is required")
	}
	if d.ExecutionDate.IsZero() {
		v.Add("execution date is required")
	}
	if !v.Empty() {
		return v
	}
	if windowDays <= 0 {
		windowDays = DefaultTradeDateWindowDays
	}

	trade := DateOf(d.TradeDate)
	start := DateOf(d.StartDate)
	maturity := DateOf(d.MaturityDate)
	execution := DateOf(d.ExecutionDate)

	if maturity.Before(start) {
		v.Add("maturity date cannot be before start date")
	}
	if maturity.Before(trade) {
		v.Add("maturity date cannot be before trade date")
	}
	if start.Before(trade) {
		v.Add("start date cannot be before trade date")
	}
	if trade.Before(DateOf(today).AddDate(0, 0, -windowDays)) {
		v.Add("trade date cannot be more than %d days in the past", windowDays)
	}
	if !execution.Equal(trade) {
		v.Add("execution date must equal trade date")
	}
	return v
}

// ValidateLegs 校验两条腿的结构与业务规则，收集全部违规
// 收付方向以解析后的 pay_receive 实体 ID 为准
func ValidateLegs(legs []TradeLeg) Violations {
	var v Violations
	if len(legs) != 2 {
		v.Add("trade must have exactly 2 legs, got %d", len(legs))
	}
	if len(legs) == 2 && legs[0].PayReceive.ID == legs[1].PayReceive.ID {
		v.Add("legs must have opposite pay/receive flags")
	}

	for i, leg := range legs {
		n := i + 1
		if !leg.Notional.IsPositive() {
			v.Add("leg %d: notional must be positive", n)
		}
		switch {
		case leg.IsFloating():
			if leg.Index.IsZero() {
				v.Add("leg %d: floating leg requires an index", n)
			}
		case leg.IsFixed():
			if !leg.Rate.Valid || !leg.Rate.Decimal.IsPositive() {
				v.Add("leg %d: fixed leg requires a positive rate", n)
			}
		default:
			v.Add("leg %d: unsupported leg rate type %q", n, leg.LegRateType.Name)
		}
	}
	return v
}

package domain

import "github.com/shopspring/decimal"

const (
	// RateScale 利率百分比转小数时保留的位数
	RateScale int32 = 10
	// AmountScale 金额保留的位数
	AmountScale int32 = 2
)

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// RateToDecimal 百分比利率转小数，3.5 -> 0.035，保留 10 位，四舍五入
func RateToDecimal(rate decimal.Decimal) decimal.Decimal {
	return rate.DivRound(hundred, RateScale)
}

// ProRatedAmount 按月数折算的利息：notional × rate/100 × months/12，结果保留 2 位，四舍五入
func ProRatedAmount(notional, rate decimal.Decimal, months int) decimal.Decimal {
	return notional.
		Mul(RateToDecimal(rate)).
		Mul(decimal.NewFromInt(int64(months))).
		DivRound(monthsPerYear, AmountScale)
}


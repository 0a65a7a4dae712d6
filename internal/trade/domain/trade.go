// Package domain 包含交易生命周期服务的领域模型、校验规则与现金流计算
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 交易状态名称，对应 trade_status 参考数据
const (
	StatusNew        = "NEW"
	StatusAmended    = "AMENDED"
	StatusTerminated = "TERMINATED"
	StatusCancelled  = "CANCELLED"
)

// 腿利率类型名称，对应 leg_rate_type 参考数据
const (
	LegRateFixed    = "Fixed"
	LegRateFloating = "Floating"
)

// Trade 交易的一个版本
// TradeID 在各版本间保持不变，同一 TradeID 至多一个版本 Active
type Trade struct {
	// 行 ID，每个版本唯一
	ID                 int64      `json:"id"`
	TradeID            int64      `json:"tradeId"`
	Version            int        `json:"version"`
	TradeDate          time.Time  `json:"tradeDate"`
	StartDate          time.Time  `json:"startDate"`
	MaturityDate       time.Time  `json:"maturityDate"`
	ExecutionDate      time.Time  `json:"executionDate"`
	UTICode            string     `json:"utiCode,omitempty"`
	Status             RefEntity  `json:"status"`
	Book               RefEntity  `json:"book"`
	Counterparty       RefEntity  `json:"counterparty"`
	Trader             RefEntity  `json:"trader"`
	Inputter           RefEntity  `json:"inputter"`
	TradeType          RefEntity  `json:"tradeType"`
	TradeSubType       RefEntity  `json:"tradeSubType"`
	Active             bool       `json:"active"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastTouchTimestamp time.Time  `json:"lastTouchTimestamp"`
	DeactivatedAt      *time.Time `json:"deactivatedAt,omitempty"`
	Legs               []TradeLeg `json:"legs"`
}

// TradeLeg 交易腿，归属于某个交易版本
type TradeLeg struct {
	ID                  int64               `json:"id"`
	Notional            decimal.Decimal     `json:"notional"`
	Rate                decimal.NullDecimal `json:"rate"`
	Currency            RefEntity           `json:"currency"`
	LegRateType         RefEntity           `json:"legRateType"`
	Index               RefEntity           `json:"index"`
	HolidayCalendar     RefEntity           `json:"holidayCalendar"`
	CalculationSchedule RefEntity           `json:"calculationSchedule"`
	PaymentBDC          RefEntity           `json:"paymentBusinessDayConvention"`
	FixingBDC           RefEntity           `json:"fixingBusinessDayConvention"`
	PayReceive          RefEntity           `json:"payReceive"`
	Cashflows           []Cashflow          `json:"cashflows"`
}

// Cashflow 单期付款，生成后不再修改
type Cashflow struct {
	ID           int64               `json:"id"`
	ValueDate    time.Time           `json:"valueDate"`
	PaymentValue decimal.Decimal     `json:"paymentValue"`
	Rate         decimal.NullDecimal `json:"rate"`
	PayReceive   RefEntity           `json:"payReceive"`
	PaymentType  string              `json:"paymentType"`
	PaymentBDC   RefEntity           `json:"paymentBusinessDayConvention"`
	CreatedAt    time.Time           `json:"createdAt"`
	Active       bool                `json:"active"`
}

// IsFixed 固定利率腿
func (l TradeLeg) IsFixed() bool {
	return strings.EqualFold(l.LegRateType.Name, LegRateFixed)
}

// IsFloating 浮动利率腿
func (l TradeLeg) IsFloating() bool {
	return strings.EqualFold(l.LegRateType.Name, LegRateFloating)
}

// Deactivate 停用当前版本
func (t *Trade) Deactivate(now time.Time) {
	t.Active = false
	t.DeactivatedAt = &now
	t.LastTouchTimestamp = now
}

// ChangeStatus 原地修改状态，不产生新版本
func (t *Trade) ChangeStatus(status RefEntity, now time.Time) {
	t.Status = status
	t.LastTouchTimestamp = now
}

// IsClosed 已终止或已取消的交易不再接受生命周期操作
func (t *Trade) IsClosed() bool {
	return strings.EqualFold(t.Status.Name, StatusTerminated) || strings.EqualFold(t.Status.Name, StatusCancelled)
}

// CashflowCount 全部腿的现金流条数
func (t *Trade) CashflowCount() int {
	n := 0
	for _, leg := range t.Legs {
		n += len(leg.Cashflows)
	}
	return n
}

package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// LegCommand 腿的输入，参考数据字段按 ID 或名称引用
type LegCommand struct {
	Notional        decimal.Decimal
	Rate            decimal.NullDecimal
	Currency        domain.Reference
	LegRateType     domain.Reference
	Index           domain.Reference
	HolidayCalendar domain.Reference
	Schedule        domain.Reference
	PaymentBDC      domain.Reference
	FixingBDC       domain.Reference
	PayReceive      domain.Reference
}

// TradeCommand 新建或修订交易的输入
// TradeID 为 0 时由系统生成；Inputter 缺省为调用者；Status 缺省为 NEW（仅新建时生效）
type TradeCommand struct {
	TradeID       int64 `json:"tradeId" validate:"gte=0"`
	TradeDate     time.Time
	StartDate     time.Time
	MaturityDate  time.Time
	ExecutionDate time.Time
	UTICode       string `json:"utiCode" validate:"omitempty,max=64"`
	Book          domain.Reference
	Counterparty  domain.Reference
	Trader        domain.Reference
	Inputter      domain.Reference
	TradeType     domain.Reference
	TradeSubType  domain.Reference
	Status        domain.Reference
	Legs          []LegCommand
}

func (c TradeCommand) dates() domain.TradeDates {
	return domain.TradeDates{
		TradeDate:     c.TradeDate,
		StartDate:     c.StartDate,
		MaturityDate:  c.MaturityDate,
		ExecutionDate: c.ExecutionDate,
	}
}

// requiredViolations 必填的参考数据
func (c TradeCommand) requiredViolations() domain.Violations {
	var v domain.Violations
	if c.Book.IsZero() {
		v.Add("book is required")
	}
	if c.Counterparty.IsZero() {
		v.Add("counterparty is required")
	}
	if c.Trader.IsZero() {
		v.Add("trader is required")
	}
	for i, leg := range c.Legs {
		v.Merge(leg.requiredViolations(i + 1))
	}
	return v
}

func (l LegCommand) requiredViolations(n int) domain.Violations {
	var v domain.Violations
	if l.Currency.IsZero() {
		v.Add("leg %d: currency is required", n)
	}
	if l.LegRateType.IsZero() {
		v.Add("leg %d: leg rate type is required", n)
	}
	if l.PayReceive.IsZero() {
		v.Add("leg %d: pay/receive is required", n)
	}
	return v
}

// structViolations 将 validator 的字段错误转换为违规信息
func structViolations(validate *validator.Validate, s any) domain.Violations {
	var v domain.Violations
	err := validate.Struct(s)
	if err == nil {
		return v
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("invalid request: %v", err)
		return v
	}
	for _, fe := range fieldErrs {
		v.Add("%s", fieldMessage(fe))
	}
	return v
}

// newValidator 字段名取 json 标签，与 HTTP 请求字段一致
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

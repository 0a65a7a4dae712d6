package domain

import (
	"fmt"
	"strconv"
)

// ReferenceKind 参考数据类别
type ReferenceKind string

const (
	RefBook                  ReferenceKind = "book"
	RefCounterparty          ReferenceKind = "counterparty"
	RefUser                  ReferenceKind = "user"
	RefTradeType             ReferenceKind = "trade_type"
	RefTradeSubType          ReferenceKind = "trade_sub_type"
	RefTradeStatus           ReferenceKind = "trade_status"
	RefCurrency              ReferenceKind = "currency"
	RefLegRateType           ReferenceKind = "leg_rate_type"
	RefIndex                 ReferenceKind = "index"
	RefHolidayCalendar       ReferenceKind = "holiday_calendar"
	RefSchedule              ReferenceKind = "schedule"
	RefBusinessDayConvention ReferenceKind = "business_day_convention"
	RefPayReceive            ReferenceKind = "pay_receive"
)

// ReferenceKinds 全部参考数据类别
var ReferenceKinds = []ReferenceKind{
	RefBook, RefCounterparty, RefUser, RefTradeType, RefTradeSubType, RefTradeStatus,
	RefCurrency, RefLegRateType, RefIndex, RefHolidayCalendar, RefSchedule,
	RefBusinessDayConvention, RefPayReceive,
}

// Reference 按 ID 或名称引用一条参考数据，二者只取其一
type Reference struct {
	id   int64
	name string
}

// ByID 按 ID 引用
func ByID(id int64) Reference {
	return Reference{id: id}
}

// ByName 按名称引用
func ByName(name string) Reference {
	return Reference{name: name}
}

// RefOf 由请求中的 id/name 对构造引用，id 大于 0 时优先使用 id
func RefOf(id int64, name string) Reference {
	if id > 0 {
		return ByID(id)
	}
	return ByName(name)
}

// IsZero 未提供任何标识
func (r Reference) IsZero() bool {
	return r.id <= 0 && r.name == ""
}

// ID 返回 ID 以及是否为 ID 引用
func (r Reference) ID() (int64, bool) {
	return r.id, r.id > 0
}

// Name 返回名称以及是否为名称引用
func (r Reference) Name() (string, bool) {
	return r.name, r.id <= 0 && r.name != ""
}

func (r Reference) String() string {
	if r.id > 0 {
		return strconv.FormatInt(r.id, 10)
	}
	return r.name
}

// Field 返回用于错误信息的字段描述
func (r Reference) Field(kind ReferenceKind) string {
	if r.id > 0 {
		return fmt.Sprintf("%s.id", kind)
	}
	return fmt.Sprintf("%s.name", kind)
}

// RefEntity 解析后的参考数据快照
type RefEntity struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// IsZero 未设置
func (e RefEntity) IsZero() bool {
	return e.ID == 0 && e.Name == ""
}

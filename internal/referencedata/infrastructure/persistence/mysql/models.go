package mysql

import (
	"time"

	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"gorm.io/gorm"
)

// record 各参考数据表模型的公共行为
type record interface {
	entity(kind tradedomain.ReferenceKind) *domain.Entity
	apply(e *domain.Entity)
	key() int64
}

type recordPtr[T any] interface {
	*T
	record
}

// BaseModel 名称唯一的参考数据表公共列，需导出才会被 GORM 展开
type BaseModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:varchar(100);uniqueIndex;not null"`
	Description string    `gorm:"column:description;type:varchar(255)"`
	Active      bool      `gorm:"column:active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (m *BaseModel) entity(kind tradedomain.ReferenceKind) *domain.Entity {
	return &domain.Entity{Kind: kind, ID: m.ID, Name: m.Name, Description: m.Description, Active: m.Active}
}

func (m *BaseModel) apply(e *domain.Entity) {
	m.Name = e.Name
	m.Description = e.Description
	m.Active = e.Active
}

func (m *BaseModel) key() int64 { return m.ID }

// BookModel 账簿
type BookModel struct{ BaseModel }

func (BookModel) TableName() string { return "books" }

// CounterpartyModel 交易对手
type CounterpartyModel struct{ BaseModel }

func (CounterpartyModel) TableName() string { return "counterparties" }

// TradeTypeModel 交易类型
type TradeTypeModel struct{ BaseModel }

func (TradeTypeModel) TableName() string { return "trade_types" }

// TradeSubTypeModel 交易子类型
type TradeSubTypeModel struct{ BaseModel }

func (TradeSubTypeModel) TableName() string { return "trade_sub_types" }

// TradeStatusModel 交易状态
type TradeStatusModel struct{ BaseModel }

func (TradeStatusModel) TableName() string { return "trade_statuses" }

// CurrencyModel 币种
type CurrencyModel struct{ BaseModel }

func (CurrencyModel) TableName() string { return "currencies" }

// LegRateTypeModel 腿利率类型
type LegRateTypeModel struct{ BaseModel }

func (LegRateTypeModel) TableName() string { return "leg_rate_types" }

// IndexModel 浮动利率指数
type IndexModel struct{ BaseModel }

func (IndexModel) TableName() string { return "rate_indices" }

// HolidayCalendarModel 假日日历
type HolidayCalendarModel struct{ BaseModel }

func (HolidayCalendarModel) TableName() string { return "holiday_calendars" }

// ScheduleModel 计息频率
type ScheduleModel struct{ BaseModel }

func (ScheduleModel) TableName() string { return "schedules" }

// BusinessDayConventionModel 营业日调整规则
type BusinessDayConventionModel struct{ BaseModel }

func (BusinessDayConventionModel) TableName() string { return "business_day_conventions" }

// PayReceiveModel 收付方向
type PayReceiveModel struct{ BaseModel }

func (PayReceiveModel) TableName() string { return "pay_receive_flags" }

// UserModel 应用用户，按 login_id 解析
type UserModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	LoginID   string    `gorm:"column:login_id;type:varchar(64);uniqueIndex;not null"`
	FirstName string    `gorm:"column:first_name;type:varchar(100)"`
	LastName  string    `gorm:"column:last_name;type:varchar(100)"`
	Role      string    `gorm:"column:role;type:varchar(32);not null;index"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (UserModel) TableName() string { return "application_users" }

func (m *UserModel) entity(kind tradedomain.ReferenceKind) *domain.Entity {
	return &domain.Entity{Kind: kind, ID: m.ID, Name: m.LoginID, Description: m.displayName(), Active: m.Active}
}

func (m *UserModel) apply(e *domain.Entity) {
	m.LoginID = e.Name
	m.Active = e.Active
}

func (m *UserModel) key() int64 { return m.ID }

func (m *UserModel) displayName() string {
	switch {
	case m.FirstName == "":
		return m.LastName
	case m.LastName == "":
		return m.FirstName
	default:
		return m.FirstName + " " + m.LastName
	}
}

func (m *UserModel) toUser() *domain.User {
	return &domain.User{
		ID:        m.ID,
		LoginID:   m.LoginID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Role:      m.Role,
		Active:    m.Active,
	}
}

// table 一个参考数据类别对应的表
type table struct {
	model      any
	nameColumn string
	newRecord  func() record
	list       func(db *gorm.DB) ([]record, error)
}

func tableOf[T any, P recordPtr[T]](nameColumn string) table {
	return table{
		model:      P(new(T)),
		nameColumn: nameColumn,
		newRecord:  func() record { return P(new(T)) },
		list: func(db *gorm.DB) ([]record, error) {
			var rows []T
			if err := db.Order("id").Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]record, len(rows))
			for i := range rows {
				out[i] = P(&rows[i])
			}
			return out, nil
		},
	}
}

var tables = map[tradedomain.ReferenceKind]table{
	tradedomain.RefBook:                  tableOf[BookModel]("name"),
	tradedomain.RefCounterparty:          tableOf[CounterpartyModel]("name"),
	tradedomain.RefUser:                  tableOf[UserModel]("login_id"),
	tradedomain.RefTradeType:             tableOf[TradeTypeModel]("name"),
	tradedomain.RefTradeSubType:          tableOf[TradeSubTypeModel]("name"),
	tradedomain.RefTradeStatus:           tableOf[TradeStatusModel]("name"),
	tradedomain.RefCurrency:              tableOf[CurrencyModel]("name"),
	tradedomain.RefLegRateType:           tableOf[LegRateTypeModel]("name"),
	tradedomain.RefIndex:                 tableOf[IndexModel]("name"),
	tradedomain.RefHolidayCalendar:       tableOf[HolidayCalendarModel]("name"),
	tradedomain.RefSchedule:              tableOf[ScheduleModel]("name"),
	tradedomain.RefBusinessDayConvention: tableOf[BusinessDayConventionModel]("name"),
	tradedomain.RefPayReceive:            tableOf[PayReceiveModel]("name"),
}

// AutoMigrate 迁移全部参考数据表
func AutoMigrate(db *gorm.DB) error {
	models := make([]any, 0, len(tables))
	for _, kind := range tradedomain.ReferenceKinds {
		models = append(models, tables[kind].model)
	}
	return db.AutoMigrate(models...)
}

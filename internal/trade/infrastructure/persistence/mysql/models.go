package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// TradeModel 交易版本表，(trade_id, version) 唯一
type TradeModel struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement"`
	TradeID            int64           `gorm:"column:trade_id;not null;uniqueIndex:uk_trade_version,priority:1;index:idx_trade_active,priority:1;comment:交易号(跨版本不变)"`
	Version            int             `gorm:"column:version;not null;uniqueIndex:uk_trade_version,priority:2;comment:版本号"`
	TradeDate          time.Time       `gorm:"column:trade_date;not null"`
	StartDate          time.Time       `gorm:"column:start_date;not null"`
	MaturityDate       time.Time       `gorm:"column:maturity_date;not null"`
	ExecutionDate      time.Time       `gorm:"column:execution_date;not null"`
	UTICode            string          `gorm:"column:uti_code;type:varchar(64)"`
	StatusID           int64           `gorm:"column:status_id;not null;index:idx_status_active,priority:1"`
	BookID             int64           `gorm:"column:book_id;not null;index"`
	CounterpartyID     int64           `gorm:"column:counterparty_id;not null;index"`
	TraderID           int64           `gorm:"column:trader_id;not null"`
	InputterID         int64           `gorm:"column:inputter_id;not null"`
	TradeTypeID        *int64          `gorm:"column:trade_type_id"`
	TradeSubTypeID     *int64          `gorm:"column:trade_sub_type_id"`
	Active             bool            `gorm:"column:active;not null;index:idx_trade_active,priority:2;index:idx_status_active,priority:2"`
	CreatedAt          time.Time       `gorm:"column:created_at;not null"`
	LastTouchTimestamp time.Time       `gorm:"column:last_touch_timestamp;not null"`
	DeactivatedAt      *time.Time      `gorm:"column:deactivated_at"`
	Legs               []TradeLegModel `gorm:"foreignKey:TradeRowID"`
}

// TableName 指定表名
func (TradeModel) TableName() string { return "trades" }

// TradeLegModel 交易腿表
type TradeLegModel struct {
	ID                int64               `gorm:"primaryKey;autoIncrement"`
	TradeRowID        int64               `gorm:"column:trade_row_id;not null;index"`
	LegNo             int                 `gorm:"column:leg_no;not null"`
	Notional          decimal.Decimal     `gorm:"column:notional;type:decimal(28,8);not null"`
	Rate              decimal.NullDecimal `gorm:"column:rate;type:decimal(18,10)"`
	CurrencyID        int64               `gorm:"column:currency_id;not null"`
	LegRateTypeID     int64               `gorm:"column:leg_rate_type_id;not null"`
	IndexID           *int64              `gorm:"column:index_id"`
	HolidayCalendarID *int64              `gorm:"column:holiday_calendar_id"`
	ScheduleID        *int64              `gorm:"column:schedule_id"`
	PaymentBDCID      *int64              `gorm:"column:payment_bdc_id"`
	FixingBDCID       *int64              `gorm:"column:fixing_bdc_id"`
	PayReceiveID      int64               `gorm:"column:pay_receive_id;not null"`
	Cashflows         []CashflowModel     `gorm:"foreignKey:LegID"`
}

// TableName 指定表名
func (TradeLegModel) TableName() string { return "trade_legs" }

// CashflowModel 现金流表
type CashflowModel struct {
	ID           int64               `gorm:"primaryKey;autoIncrement"`
	LegID        int64               `gorm:"column:leg_id;not null;index"`
	ValueDate    time.Time           `gorm:"column:value_date;not null"`
	PaymentValue decimal.Decimal     `gorm:"column:payment_value;type:decimal(28,2);not null"`
	Rate         decimal.NullDecimal `gorm:"column:rate;type:decimal(18,10)"`
	PayReceiveID int64               `gorm:"column:pay_receive_id;not null"`
	PaymentType  string              `gorm:"column:payment_type;type:varchar(20);not null"`
	PaymentBDCID *int64              `gorm:"column:payment_bdc_id"`
	CreatedAt    time.Time           `gorm:"column:created_at;not null"`
	Active       bool                `gorm:"column:active;not null"`
}

// TableName 指定表名
func (CashflowModel) TableName() string { return "cashflows" }

// mapping helpers

func optionalID(e domain.RefEntity) *int64 {
	if e.ID == 0 {
		return nil
	}
	id := e.ID
	return &id
}

func refFrom(id *int64) domain.RefEntity {
	if id == nil {
		return domain.RefEntity{}
	}
	return domain.RefEntity{ID: *id}
}

func toTradeModel(t *domain.Trade) *TradeModel {
	m := &TradeModel{
		ID:                 t.ID,
		TradeID:            t.TradeID,
		Version:            t.Version,
		TradeDate:          t.TradeDate,
		StartDate:          t.StartDate,
		MaturityDate:       t.MaturityDate,
		ExecutionDate:      t.ExecutionDate,
		UTICode:            t.UTICode,
		StatusID:           t.Status.ID,
		BookID:             t.Book.ID,
		CounterpartyID:     t.Counterparty.ID,
		TraderID:           t.Trader.ID,
		InputterID:         t.Inputter.ID,
		TradeTypeID:        optionalID(t.TradeType),
		TradeSubTypeID:     optionalID(t.TradeSubType),
		Active:             t.Active,
		CreatedAt:          t.CreatedAt,
		LastTouchTimestamp: t.LastTouchTimestamp,
		DeactivatedAt:      t.DeactivatedAt,
		Legs:               make([]TradeLegModel, 0, len(t.Legs)),
	}
	for i, leg := range t.Legs {
		lm := TradeLegModel{
			ID:                leg.ID,
			LegNo:             i + 1,
			Notional:          leg.Notional,
			Rate:              leg.Rate,
			CurrencyID:        leg.Currency.ID,
			LegRateTypeID:     leg.LegRateType.ID,
			IndexID:           optionalID(leg.Index),
			HolidayCalendarID: optionalID(leg.HolidayCalendar),
			ScheduleID:        optionalID(leg.CalculationSchedule),
			PaymentBDCID:      optionalID(leg.PaymentBDC),
			FixingBDCID:       optionalID(leg.FixingBDC),
			PayReceiveID:      leg.PayReceive.ID,
			Cashflows:         make([]CashflowModel, 0, len(leg.Cashflows)),
		}
		for _, cf := range leg.Cashflows {
			lm.Cashflows = append(lm.Cashflows, CashflowModel{
				ID:           cf.ID,
				ValueDate:    cf.ValueDate,
				PaymentValue: cf.PaymentValue,
				Rate:         cf.Rate,
				PayReceiveID: cf.PayReceive.ID,
				PaymentType:  cf.PaymentType,
				PaymentBDCID: optionalID(cf.PaymentBDC),
				CreatedAt:    cf.CreatedAt,
				Active:       cf.Active,
			})
		}
		m.Legs = append(m.Legs, lm)
	}
	return m
}

// assignIDs 将插入后生成的各级 ID 回填到领域对象
func assignIDs(t *domain.Trade, m *TradeModel) {
	t.ID = m.ID
	for i := range t.Legs {
		t.Legs[i].ID = m.Legs[i].ID
		for j := range t.Legs[i].Cashflows {
			t.Legs[i].Cashflows[j].ID = m.Legs[i].Cashflows[j].ID
		}
	}
}

// toDomain 只还原参考数据 ID，名称由查询服务按需补全
func toDomain(m *TradeModel) *domain.Trade {
	t := &domain.Trade{
		ID:                 m.ID,
		TradeID:            m.TradeID,
		Version:            m.Version,
		TradeDate:          m.TradeDate.UTC(),
		StartDate:          m.StartDate.UTC(),
		MaturityDate:       m.MaturityDate.UTC(),
		ExecutionDate:      m.ExecutionDate.UTC(),
		UTICode:            m.UTICode,
		Status:             domain.RefEntity{ID: m.StatusID},
		Book:               domain.RefEntity{ID: m.BookID},
		Counterparty:       domain.RefEntity{ID: m.CounterpartyID},
		Trader:             domain.RefEntity{ID: m.TraderID},
		Inputter:           domain.RefEntity{ID: m.InputterID},
		TradeType:          refFrom(m.TradeTypeID),
		TradeSubType:       refFrom(m.TradeSubTypeID),
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		LastTouchTimestamp: m.LastTouchTimestamp,
		DeactivatedAt:      m.DeactivatedAt,
		Legs:               make([]domain.TradeLeg, 0, len(m.Legs)),
	}
	for _, lm := range m.Legs {
		leg := domain.TradeLeg{
			ID:                  lm.ID,
			Notional:            lm.Notional,
			Rate:                lm.Rate,
			Currency:            domain.RefEntity{ID: lm.CurrencyID},
			LegRateType:         domain.RefEntity{ID: lm.LegRateTypeID},
			Index:               refFrom(lm.IndexID),
			HolidayCalendar:     refFrom(lm.HolidayCalendarID),
			CalculationSchedule: refFrom(lm.ScheduleID),
			PaymentBDC:          refFrom(lm.PaymentBDCID),
			FixingBDC:           refFrom(lm.FixingBDCID),
			PayReceive:          domain.RefEntity{ID: lm.PayReceiveID},
			Cashflows:           make([]domain.Cashflow, 0, len(lm.Cashflows)),
		}
		for _, cm := range lm.Cashflows {
			leg.Cashflows = append(leg.Cashflows, domain.Cashflow{
				ID:           cm.ID,
				ValueDate:    cm.ValueDate.UTC(),
				PaymentValue: cm.PaymentValue,
				Rate:         cm.Rate,
				PayReceive:   domain.RefEntity{ID: cm.PayReceiveID},
				PaymentType:  cm.PaymentType,
				PaymentBDC:   refFrom(cm.PaymentBDCID),
				CreatedAt:    cm.CreatedAt,
				Active:       cm.Active,
			})
		}
		t.Legs = append(t.Legs, leg)
	}
	return t
}

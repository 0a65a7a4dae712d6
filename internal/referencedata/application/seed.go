package application

import (
	"context"

	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// SeedData 初始化数据
type SeedData struct {
	Entities map[tradedomain.ReferenceKind][]string
	Users    []domain.User
}

// DefaultSeed 生命周期服务运行所需的基础数据与演示账簿、对手、用户
func DefaultSeed() SeedData {
	return SeedData{
		Entities: map[tradedomain.ReferenceKind][]string{
			tradedomain.RefTradeStatus: {
				tradedomain.StatusNew, tradedomain.StatusAmended, tradedomain.StatusTerminated, tradedomain.StatusCancelled,
			},
			tradedomain.RefLegRateType:           {tradedomain.LegRateFixed, tradedomain.LegRateFloating},
			tradedomain.RefPayReceive:            {"Pay", "Receive"},
			tradedomain.RefSchedule:              {"Monthly", "Quarterly", "Semi-annually", "Annually"},
			tradedomain.RefBusinessDayConvention: {"Following", "ModifiedFollowing", "Preceding", "ModifiedPreceding", "Unadjusted"},
			tradedomain.RefCurrency:              {"USD", "EUR", "GBP", "JPY", "CNY"},
			tradedomain.RefIndex:                 {"SOFR", "ESTR", "SONIA", "EURIBOR-3M"},
			tradedomain.RefHolidayCalendar:       {"NYC", "LON", "TGT", "TYO"},
			tradedomain.RefTradeType:             {"Swap"},
			tradedomain.RefTradeSubType:          {"IRS", "OIS", "Basis"},
			tradedomain.RefBook:                  {"RATES-BOOK-1"},
			tradedomain.RefCounterparty:          {"BigBank"},
		},
		Users: []domain.User{
			{LoginID: "admin", FirstName: "System", LastName: "Admin", Role: "ADMIN", Active: true},
			{LoginID: "trader1", FirstName: "Demo", LastName: "Trader", Role: "TRADER", Active: true},
			{LoginID: "ops1", FirstName: "Demo", LastName: "Ops", Role: "MIDDLE_OFFICE", Active: true},
		},
	}
}

// Seed 在一个事务中写入初始化数据，重复执行结果不变
func (s *ReferenceService) Seed(ctx context.Context, data SeedData) error {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, kind := range tradedomain.ReferenceKinds {
			for _, name := range data.Entities[kind] {
				if err := s.repo.Save(txCtx, &domain.Entity{Kind: kind, Name: name, Active: true}); err != nil {
					return err
				}
			}
		}
		for i := range data.Users {
			if err := s.repo.SaveUser(txCtx, &data.Users[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "reference data seeded", "users", len(data.Users))
	return nil
}

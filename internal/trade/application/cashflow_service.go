package application

import (
	"context"
	"time"

	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// CashflowService 现金流试算，不写库
type CashflowService struct {
	resolver  domain.ReferenceDataResolver
	generator *domain.CashflowGenerator
}

// NewCashflowService 创建现金流服务
func NewCashflowService(deps Dependencies, settings Settings) *CashflowService {
	settings = settings.withDefaults()
	return &CashflowService{
		resolver:  deps.Resolver,
		generator: domain.NewCashflowGenerator(settings.Now),
	}
}

// GenerateCashflows 解析腿的参考数据后生成 start 到 maturity 的现金流
func (s *CashflowService) GenerateCashflows(ctx context.Context, lc LegCommand, start, maturity time.Time) ([]domain.Cashflow, error) {
	if err := lc.requiredViolations(1).Err(); err != nil {
		return nil, err
	}
	leg, err := newRefCache(s.resolver).resolveLeg(ctx, lc)
	if err != nil {
		return nil, err
	}
	if !start.IsZero() {
		start = domain.DateOf(start)
	}
	if !maturity.IsZero() {
		maturity = domain.DateOf(maturity)
	}
	if !start.IsZero() && !maturity.IsZero() && maturity.Before(start) {
		return nil, domain.ValidationFailed("maturity date cannot be before start date")
	}
	return s.generator.Generate(leg, start, maturity)
}

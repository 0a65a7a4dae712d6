// Package application 编排交易生命周期用例：授权、校验、参考数据解析、持久化与事件发布
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
)

// Dependencies 应用层依赖的端口，Cache 与 Metrics 可为空
type Dependencies struct {
	Repo       domain.TradeRepository
	Resolver   domain.ReferenceDataResolver
	Authorizer domain.Authorizer
	Publisher  domain.EventPublisher
	Cache      domain.TradeReadRepository
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

func (d Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Settings 生命周期参数
type Settings struct {
	// 交易日期允许回溯的天数
	TradeDateWindowDays int
	// 自动生成 tradeId 的起始值
	TradeIDBase int64
	Now         func() time.Time
}

// DefaultTradeIDBase 自动生成 tradeId 的默认起始值
const DefaultTradeIDBase = 10000

func (s Settings) withDefaults() Settings {
	if s.TradeDateWindowDays <= 0 {
		s.TradeDateWindowDays = domain.DefaultTradeDateWindowDays
	}
	if s.TradeIDBase <= 0 {
		s.TradeIDBase = DefaultTradeIDBase
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// TradeService 交易服务门面，整合命令、查询与现金流试算
type TradeService struct {
	Command   *TradeCommandService
	Query     *TradeQueryService
	Cashflows *CashflowService
}

// NewTradeService 构造函数
func NewTradeService(deps Dependencies, settings Settings) *TradeService {
	return &TradeService{
		Command:   NewTradeCommandService(deps, settings),
		Query:     NewTradeQueryService(deps),
		Cashflows: NewCashflowService(deps, settings),
	}
}

// --- Command (Writes) ---

// CreateTrade 新建交易
func (s *TradeService) CreateTrade(ctx context.Context, cmd TradeCommand) (*domain.Trade, error) {
	return s.Command.CreateTrade(ctx, cmd)
}

// AmendTrade 修订交易
func (s *TradeService) AmendTrade(ctx context.Context, tradeID int64, cmd TradeCommand) (*domain.Trade, error) {
	return s.Command.AmendTrade(ctx, tradeID, cmd)
}

// TerminateTrade 终止交易
func (s *TradeService) TerminateTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	return s.Command.TerminateTrade(ctx, tradeID)
}

// CancelTrade 取消交易
func (s *TradeService) CancelTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	return s.Command.CancelTrade(ctx, tradeID)
}

// --- Query (Reads) ---

// GetTradeByID 获取活跃版本
func (s *TradeService) GetTradeByID(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	return s.Query.GetTradeByID(ctx, tradeID)
}

// ListTradesByStatus 按状态列出活跃版本
func (s *TradeService) ListTradesByStatus(ctx context.Context, status domain.Reference) ([]*domain.Trade, error) {
	return s.Query.ListTradesByStatus(ctx, status)
}

// GenerateCashflows 现金流试算
func (s *TradeService) GenerateCashflows(ctx context.Context, leg LegCommand, start, maturity time.Time) ([]domain.Cashflow, error) {
	return s.Cashflows.GenerateCashflows(ctx, leg, start, maturity)
}

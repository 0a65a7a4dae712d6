package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
)

// TradeCommandService 处理交易的写操作：新建、修订、终止、取消
// 每个操作依次执行：授权、校验、解析参考数据、在单个事务内写入交易与 outbox 事件
type TradeCommandService struct {
	repo       domain.TradeRepository
	resolver   domain.ReferenceDataResolver
	authorizer domain.Authorizer
	publisher  domain.EventPublisher
	cache      domain.TradeReadRepository
	generator  *domain.CashflowGenerator
	validate   *validator.Validate
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
	windowDays int
	idBase     int64
}

// NewTradeCommandService 创建命令服务
func NewTradeCommandService(deps Dependencies, settings Settings) *TradeCommandService {
	settings = settings.withDefaults()
	return &TradeCommandService{
		repo:       deps.Repo,
		resolver:   deps.Resolver,
		authorizer: deps.Authorizer,
		publisher:  deps.Publisher,
		cache:      deps.Cache,
		generator:  domain.NewCashflowGenerator(settings.Now),
		validate:   newValidator(),
		metrics:    deps.Metrics,
		logger:     deps.logger(),
		now:        settings.Now,
		windowDays: settings.TradeDateWindowDays,
		idBase:     settings.TradeIDBase,
	}
}

// CreateTrade 新建交易，返回版本 1
func (c *TradeCommandService) CreateTrade(ctx context.Context, cmd TradeCommand) (*domain.Trade, error) {
	start := time.Now()
	trade, err := c.createTrade(ctx, cmd)
	c.observe(ctx, domain.OpBookTrade, trade, err, start)
	return trade, err
}

func (c *TradeCommandService) createTrade(ctx context.Context, cmd TradeCommand) (*domain.Trade, error) {
	userID := contextx.GetUserID(ctx)
	if err := c.authorizer.Authorize(ctx, userID, domain.OpBookTrade, domain.TradeContext{TradeID: cmd.TradeID}); err != nil {
		return nil, err
	}

	status := cmd.Status
	if status.IsZero() {
		status = domain.ByName(domain.StatusNew)
	}
	now := c.now()
	trade, err := c.buildVersion(ctx, cmd, userID, status, now)
	if err != nil {
		return nil, err
	}

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		tradeID, err := c.assignTradeID(txCtx, cmd.TradeID)
		if err != nil {
			return err
		}
		trade.TradeID = tradeID
		trade.Version = 1

		if err := c.repo.Save(txCtx, trade); err != nil {
			return err
		}
		return c.publisher.PublishTradeCreated(txCtx, domain.TradeCreatedEvent{
			TradeEvent:     domain.NewTradeEvent(trade, userID, now),
			BookID:         trade.Book.ID,
			CounterpartyID: trade.Counterparty.ID,
			CashflowCount:  trade.CashflowCount(),
		})
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "trade created", "trade_id", trade.TradeID, "user_id", userID, "cashflows", trade.CashflowCount())
	return trade, nil
}

// assignTradeID 显式指定的 tradeId 不能已有活跃版本；未指定时取 base+行数，跳过已占用的号
func (c *TradeCommandService) assignTradeID(ctx context.Context, requested int64) (int64, error) {
	if requested > 0 {
		_, err := c.repo.FindActiveByTradeID(ctx, requested, false)
		switch {
		case err == nil:
			return 0, domain.ValidationFailed(fmt.Sprintf("trade already exists: %d", requested))
		case domain.IsNotFound(err):
			return requested, nil
		default:
			return 0, err
		}
	}

	count, err := c.repo.CountTrades(ctx)
	if err != nil {
		return 0, err
	}
	for id := c.idBase + count; ; id++ {
		_, err := c.repo.FindActiveByTradeID(ctx, id, false)
		if domain.IsNotFound(err) {
			return id, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// AmendTrade 修订交易：停用当前活跃版本并写入 version+1，状态为 AMENDED
func (c *TradeCommandService) AmendTrade(ctx context.Context, tradeID int64, cmd TradeCommand) (*domain.Trade, error) {
	start := time.Now()
	trade, err := c.amendTrade(ctx, tradeID, cmd)
	c.observe(ctx, domain.OpAmendTrade, trade, err, start)
	return trade, err
}

func (c *TradeCommandService) amendTrade(ctx context.Context, tradeID int64, cmd TradeCommand) (*domain.Trade, error) {
	userID := contextx.GetUserID(ctx)
	if err := c.authorizer.Authorize(ctx, userID, domain.OpAmendTrade, domain.TradeContext{TradeID: tradeID}); err != nil {
		return nil, err
	}
	if _, err := c.repo.FindActiveByTradeID(ctx, tradeID, false); err != nil {
		return nil, err
	}

	now := c.now()
	next, err := c.buildVersion(ctx, cmd, userID, domain.ByName(domain.StatusAmended), now)
	if err != nil {
		return nil, err
	}

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		current, err := c.lockOpen(txCtx, tradeID)
		if err != nil {
			return err
		}

		current.Deactivate(now)
		if err := c.repo.Deactivate(txCtx, current); err != nil {
			return err
		}

		next.TradeID = tradeID
		next.Version = current.Version + 1
		if err := c.repo.Save(txCtx, next); err != nil {
			return err
		}
		return c.publisher.PublishTradeAmended(txCtx, domain.TradeAmendedEvent{
			TradeEvent:      domain.NewTradeEvent(next, userID, now),
			PreviousVersion: current.Version,
			CashflowCount:   next.CashflowCount(),
		})
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, tradeID)
	c.logger.InfoContext(ctx, "trade amended", "trade_id", tradeID, "version", next.Version, "user_id", userID)
	return next, nil
}

// TerminateTrade 终止交易，原地修改状态，不产生新版本
func (c *TradeCommandService) TerminateTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	start := time.Now()
	trade, err := c.changeStatus(ctx, tradeID, domain.OpTerminateTrade, domain.StatusTerminated)
	c.observe(ctx, domain.OpTerminateTrade, trade, err, start)
	return trade, err
}

// CancelTrade 取消交易，原地修改状态，不产生新版本
func (c *TradeCommandService) CancelTrade(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	start := time.Now()
	trade, err := c.changeStatus(ctx, tradeID, domain.OpCancelTrade, domain.StatusCancelled)
	c.observe(ctx, domain.OpCancelTrade, trade, err, start)
	return trade, err
}

func (c *TradeCommandService) changeStatus(ctx context.Context, tradeID int64, op domain.Operation, statusName string) (*domain.Trade, error) {
	userID := contextx.GetUserID(ctx)
	if err := c.authorizer.Authorize(ctx, userID, op, domain.TradeContext{TradeID: tradeID}); err != nil {
		return nil, err
	}

	refs := newRefCache(c.resolver)
	status, err := refs.resolve(ctx, domain.RefTradeStatus, domain.ByName(statusName))
	if err != nil {
		return nil, err
	}

	now := c.now()
	var trade *domain.Trade
	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		current, err := c.lockOpen(txCtx, tradeID)
		if err != nil {
			return err
		}

		current.ChangeStatus(status, now)
		if err := c.repo.UpdateStatus(txCtx, current); err != nil {
			return err
		}

		event := domain.NewTradeEvent(current, userID, now)
		if op == domain.OpCancelTrade {
			err = c.publisher.PublishTradeCancelled(txCtx, domain.TradeCancelledEvent{TradeEvent: event})
		} else {
			err = c.publisher.PublishTradeTerminated(txCtx, domain.TradeTerminatedEvent{TradeEvent: event})
		}
		if err != nil {
			return err
		}
		trade = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, tradeID)
	if err := refs.hydrate(ctx, trade); err != nil {
		c.logger.WarnContext(ctx, "failed to hydrate trade", "trade_id", tradeID, "error", err)
	}
	c.logger.InfoContext(ctx, "trade status changed", "trade_id", tradeID, "status", statusName, "user_id", userID)
	return trade, nil
}

// lockOpen 锁定活跃版本，已终止或已取消的交易拒绝后续操作
func (c *TradeCommandService) lockOpen(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	current, err := c.repo.FindActiveByTradeID(ctx, tradeID, true)
	if err != nil {
		return nil, err
	}
	status, err := c.resolver.Resolve(ctx, domain.RefTradeStatus, domain.ByID(current.Status.ID))
	if err != nil {
		return nil, err
	}
	current.Status = status
	if current.IsClosed() {
		return nil, domain.ValidationFailed(fmt.Sprintf("trade %d is %s", tradeID, strings.ToLower(status.Name)))
	}
	return current, nil
}

// buildVersion 校验请求并构造一个待写入的交易版本（含腿与现金流），不访问交易仓储
func (c *TradeCommandService) buildVersion(ctx context.Context, cmd TradeCommand, userID string, status domain.Reference, now time.Time) (*domain.Trade, error) {
	var v domain.Violations
	v.Merge(structViolations(c.validate, cmd))
	v.Merge(domain.ValidateTradeDates(cmd.dates(), now, c.windowDays))
	v.Merge(cmd.requiredViolations())
	if err := v.Err(); err != nil {
		return nil, err
	}

	refs := newRefCache(c.resolver)
	trade := &domain.Trade{
		TradeDate:          domain.DateOf(cmd.TradeDate),
		StartDate:          domain.DateOf(cmd.StartDate),
		MaturityDate:       domain.DateOf(cmd.MaturityDate),
		ExecutionDate:      domain.DateOf(cmd.ExecutionDate),
		UTICode:            cmd.UTICode,
		Active:             true,
		CreatedAt:          now,
		LastTouchTimestamp: now,
	}

	inputter := cmd.Inputter
	if inputter.IsZero() {
		inputter = domain.ByName(userID)
	}
	activeRefs := []struct {
		kind domain.ReferenceKind
		ref  domain.Reference
		dst  *domain.RefEntity
	}{
		{domain.RefBook, cmd.Book, &trade.Book},
		{domain.RefCounterparty, cmd.Counterparty, &trade.Counterparty},
		{domain.RefUser, cmd.Trader, &trade.Trader},
		{domain.RefUser, inputter, &trade.Inputter},
	}
	for _, r := range activeRefs {
		e, err := refs.active(ctx, r.kind, r.ref)
		if err != nil {
			return nil, err
		}
		*r.dst = e
	}

	var err error
	if trade.TradeType, err = refs.optional(ctx, domain.RefTradeType, cmd.TradeType); err != nil {
		return nil, err
	}
	if trade.TradeSubType, err = refs.optional(ctx, domain.RefTradeSubType, cmd.TradeSubType); err != nil {
		return nil, err
	}
	if trade.Status, err = refs.resolve(ctx, domain.RefTradeStatus, status); err != nil {
		return nil, err
	}

	trade.Legs = make([]domain.TradeLeg, 0, len(cmd.Legs))
	for _, lc := range cmd.Legs {
		leg, err := refs.resolveLeg(ctx, lc)
		if err != nil {
			return nil, err
		}
		trade.Legs = append(trade.Legs, leg)
	}
	if err := domain.ValidateLegs(trade.Legs).Err(); err != nil {
		return nil, err
	}

	for i := range trade.Legs {
		cashflows, err := c.generator.Generate(trade.Legs[i], trade.StartDate, trade.MaturityDate)
		if err != nil {
			return nil, err
		}
		trade.Legs[i].Cashflows = cashflows
	}
	return trade, nil
}

// invalidate 删除读模型缓存；删除失败时残留的快照会在读取时因行 ID 或状态不符被丢弃
func (c *TradeCommandService) invalidate(ctx context.Context, tradeID int64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, tradeID); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate trade cache", "trade_id", tradeID, "error", err)
	}
}

func (c *TradeCommandService) observe(ctx context.Context, op domain.Operation, trade *domain.Trade, err error, start time.Time) {
	c.metrics.RecordLifecycleOp(string(op), outcome(err), time.Since(start))
	if err != nil {
		c.logger.WarnContext(ctx, "trade lifecycle operation failed", "operation", op, "error", err)
		return
	}
	if op == domain.OpBookTrade || op == domain.OpAmendTrade {
		c.metrics.RecordCashflows(trade.CashflowCount())
	}
}

// outcome 指标标签：success 或错误类别
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := domain.KindOf(err); ok {
		return strings.ToLower(string(kind))
	}
	return "error"
}

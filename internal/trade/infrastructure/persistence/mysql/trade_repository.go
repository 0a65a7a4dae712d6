// Package mysql 提供交易仓储接口的 GORM 实现，兼容 MySQL、Postgres 与 SQLite
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tradeRepositoryImpl 是 domain.TradeRepository 接口的 GORM 实现
type tradeRepositoryImpl struct {
	db *gorm.DB
}

// NewTradeRepository 创建交易仓储实例
func NewTradeRepository(db *gorm.DB) domain.TradeRepository {
	return &tradeRepositoryImpl{db: db}
}

// AutoMigrate 迁移交易相关表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&TradeModel{}, &TradeLegModel{}, &CashflowModel{})
}

func (r *tradeRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// WithTx 开启事务，ctx 中已有事务时直接加入
func (r *tradeRepositoryImpl) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return db.Transaction(ctx, r.db, fn)
}

// Save 实现 domain.TradeRepository.Save
func (r *tradeRepositoryImpl) Save(ctx context.Context, trade *domain.Trade) error {
	model := toTradeModel(trade)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ConcurrencyConflict(trade.TradeID, fmt.Sprintf("version %d already exists", trade.Version))
		}
		logger.Error(ctx, "trade_repository.save failed", "trade_id", trade.TradeID, "version", trade.Version, "error", err)
		return fmt.Errorf("failed to save trade: %w", err)
	}
	assignIDs(trade, model)
	return nil
}

// Deactivate 实现 domain.TradeRepository.Deactivate
func (r *tradeRepositoryImpl) Deactivate(ctx context.Context, trade *domain.Trade) error {
	res := r.getDB(ctx).Model(&TradeModel{}).
		Where("id = ? AND active = ?", trade.ID, true).
		Updates(map[string]any{
			"active":               false,
			"deactivated_at":       trade.DeactivatedAt,
			"last_touch_timestamp": trade.LastTouchTimestamp,
		})
	if res.Error != nil {
		logger.Error(ctx, "trade_repository.deactivate failed", "trade_id", trade.TradeID, "error", res.Error)
		return fmt.Errorf("failed to deactivate trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ConcurrencyConflict(trade.TradeID, fmt.Sprintf("version %d is no longer active", trade.Version))
	}
	return nil
}

// UpdateStatus 实现 domain.TradeRepository.UpdateStatus
func (r *tradeRepositoryImpl) UpdateStatus(ctx context.Context, trade *domain.Trade) error {
	res := r.getDB(ctx).Model(&TradeModel{}).
		Where("id = ? AND active = ?", trade.ID, true).
		Updates(map[string]any{
			"status_id":            trade.Status.ID,
			"last_touch_timestamp": trade.LastTouchTimestamp,
		})
	if res.Error != nil {
		logger.Error(ctx, "trade_repository.update_status failed", "trade_id", trade.TradeID, "error", res.Error)
		return fmt.Errorf("failed to update trade status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ConcurrencyConflict(trade.TradeID, fmt.Sprintf("version %d is no longer active", trade.Version))
	}
	return nil
}

// FindActiveByTradeID 实现 domain.TradeRepository.FindActiveByTradeID
func (r *tradeRepositoryImpl) FindActiveByTradeID(ctx context.Context, tradeID int64, forUpdate bool) (*domain.Trade, error) {
	q := r.getDB(ctx).Where("trade_id = ? AND active = ?", tradeID, true)
	if forUpdate {
		// SQLite 方言忽略行锁，写事务本身串行
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model TradeModel
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.TradeNotFound(tradeID)
		}
		logger.Error(ctx, "trade_repository.find_active failed", "trade_id", tradeID, "error", err)
		return nil, fmt.Errorf("failed to find trade: %w", err)
	}

	models := []*TradeModel{&model}
	if err := r.loadLegs(ctx, models); err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

// FindActiveStamp 实现 domain.TradeRepository.FindActiveStamp
func (r *tradeRepositoryImpl) FindActiveStamp(ctx context.Context, tradeID int64) (domain.TradeStamp, error) {
	var row struct {
		ID       int64 `gorm:"column:id"`
		StatusID int64 `gorm:"column:status_id"`
	}
	err := r.getDB(ctx).Model(&TradeModel{}).
		Select("id", "status_id").
		Where("trade_id = ? AND active = ?", tradeID, true).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TradeStamp{}, domain.TradeNotFound(tradeID)
		}
		return domain.TradeStamp{}, fmt.Errorf("failed to find trade stamp: %w", err)
	}
	return domain.TradeStamp{RowID: row.ID, StatusID: row.StatusID}, nil
}

// FindActiveByStatus 实现 domain.TradeRepository.FindActiveByStatus
func (r *tradeRepositoryImpl) FindActiveByStatus(ctx context.Context, statusID int64) ([]*domain.Trade, error) {
	var models []*TradeModel
	err := r.getDB(ctx).
		Where("status_id = ? AND active = ?", statusID, true).
		Order("trade_id").
		Find(&models).Error
	if err != nil {
		logger.Error(ctx, "trade_repository.find_by_status failed", "status_id", statusID, "error", err)
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	if err := r.loadLegs(ctx, models); err != nil {
		return nil, err
	}

	trades := make([]*domain.Trade, len(models))
	for i, m := range models {
		trades[i] = toDomain(m)
	}
	return trades, nil
}

// CountTrades 实现 domain.TradeRepository.CountTrades
func (r *tradeRepositoryImpl) CountTrades(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&TradeModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// loadLegs 分两次查询加载腿与现金流，按腿序号与付款日排序
func (r *tradeRepositoryImpl) loadLegs(ctx context.Context, trades []*TradeModel) error {
	if len(trades) == 0 {
		return nil
	}

	byRow := make(map[int64]*TradeModel, len(trades))
	rowIDs := make([]int64, 0, len(trades))
	for _, t := range trades {
		byRow[t.ID] = t
		rowIDs = append(rowIDs, t.ID)
	}

	var legs []TradeLegModel
	if err := r.getDB(ctx).Where("trade_row_id IN ?", rowIDs).Order("trade_row_id, leg_no").Find(&legs).Error; err != nil {
		return fmt.Errorf("failed to load trade legs: %w", err)
	}
	if len(legs) == 0 {
		return nil
	}

	legIDs := make([]int64, 0, len(legs))
	for _, l := range legs {
		legIDs = append(legIDs, l.ID)
	}
	var cashflows []CashflowModel
	if err := r.getDB(ctx).Where("leg_id IN ?", legIDs).Order("leg_id, value_date, id").Find(&cashflows).Error; err != nil {
		return fmt.Errorf("failed to load cashflows: %w", err)
	}

	cfByLeg := make(map[int64][]CashflowModel, len(legs))
	for _, cf := range cashflows {
		cfByLeg[cf.LegID] = append(cfByLeg[cf.LegID], cf)
	}
	for _, l := range legs {
		l.Cashflows = cfByLeg[l.ID]
		owner := byRow[l.TradeRowID]
		owner.Legs = append(owner.Legs, l)
	}
	return nil
}

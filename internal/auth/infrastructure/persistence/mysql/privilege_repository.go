// Package mysql 角色权限的 GORM 实现
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type privilegeRepository struct {
	db *gorm.DB
}

// NewPrivilegeRepository 创建角色权限仓储
func NewPrivilegeRepository(db *gorm.DB) domain.PrivilegeRepository {
	return &privilegeRepository{db: db}
}

func (r *privilegeRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *privilegeRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.Transaction(ctx, r.db, fn)
}

func (r *privilegeRepository) Grant(ctx context.Context, role domain.Role, op tradedomain.Operation) error {
	m := &RolePrivilegeModel{Role: string(role), Privilege: string(op)}
	if err := r.getDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
		return fmt.Errorf("failed to grant %s to %s: %w", op, role, err)
	}
	return nil
}

func (r *privilegeRepository) Revoke(ctx context.Context, role domain.Role, op tradedomain.Operation) error {
	err := r.getDB(ctx).
		Where("role = ? AND privilege = ?", string(role), string(op)).
		Delete(&RolePrivilegeModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke %s from %s: %w", op, role, err)
	}
	return nil
}

func (r *privilegeRepository) ListByRole(ctx context.Context, role domain.Role) ([]tradedomain.Operation, error) {
	var rows []RolePrivilegeModel
	if err := r.getDB(ctx).Where("role = ?", string(role)).Order("privilege").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list privileges of %s: %w", role, err)
	}
	out := make([]tradedomain.Operation, len(rows))
	for i, row := range rows {
		out[i] = tradedomain.Operation(row.Privilege)
	}
	return out, nil
}

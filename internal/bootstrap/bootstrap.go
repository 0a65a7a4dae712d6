// Package bootstrap 汇总各上下文的表结构迁移与初始化数据，供服务与命令行共用
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	authapp "github.com/wyfcoding/tradelifecycle/internal/auth/application"
	authdomain "github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	"github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/directory"
	authmysql "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/mysql"
	refapp "github.com/wyfcoding/tradelifecycle/internal/referencedata/application"
	refmysql "github.com/wyfcoding/tradelifecycle/internal/referencedata/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/messaging"
	trademysql "github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"gorm.io/gorm"
)

// Migrate 迁移全部表结构
func Migrate(db *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"referencedata", refmysql.AutoMigrate},
		{"auth", authmysql.AutoMigrate},
		{"trade", trademysql.AutoMigrate},
		{"outbox", messaging.AutoMigrate},
	}
	for _, s := range steps {
		if err := s.fn(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", s.name, err)
		}
	}
	return nil
}

// Seed 在一个事务内写入默认参考数据与角色授权，可重复执行
func Seed(ctx context.Context, database *db.DB, logger *slog.Logger) error {
	refs := refapp.NewReferenceService(refmysql.NewReferenceRepository(database.DB), nil, nil, logger)
	authz := authapp.NewAuthorizationService(directory.NewReferenceUserDirectory(refs), authmysql.NewPrivilegeRepository(database.DB), nil, nil, logger)

	return database.WithTx(ctx, func(txCtx context.Context) error {
		if err := refs.Seed(txCtx, refapp.DefaultSeed()); err != nil {
			return fmt.Errorf("failed to seed reference data: %w", err)
		}
		if err := authz.SeedPrivileges(txCtx, authdomain.DefaultGrants()); err != nil {
			return fmt.Errorf("failed to seed privileges: %w", err)
		}
		return nil
	})
}

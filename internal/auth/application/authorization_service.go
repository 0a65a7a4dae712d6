// Package application 授权应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
)

// AuthorizationService 实现 tradedomain.Authorizer
// 调用者必须存在、处于启用状态，且其角色持有操作对应的权限点
type AuthorizationService struct {
	directory domain.UserDirectory
	repo      domain.PrivilegeRepository
	cache     domain.PrivilegeCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAuthorizationService 创建授权服务，cache 可为 nil
func NewAuthorizationService(directory domain.UserDirectory, repo domain.PrivilegeRepository, cache domain.PrivilegeCache, m *metrics.Metrics, logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{directory: directory, repo: repo, cache: cache, metrics: m, logger: logger}
}

// Authorize 校验调用者权限，拒绝时返回 Unauthorized
func (s *AuthorizationService) Authorize(ctx context.Context, userID string, op tradedomain.Operation, tc tradedomain.TradeContext) error {
	if userID == "" {
		return tradedomain.Unauthorized(userID, op)
	}
	p, err := s.directory.FindPrincipal(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if p == nil || !p.Active {
		s.logger.WarnContext(ctx, "authorization denied", "user_id", userID, "operation", op, "reason", "unknown or inactive user")
		return tradedomain.Unauthorized(userID, op)
	}

	ops, err := s.privileges(ctx, p.Role)
	if err != nil {
		return err
	}
	if !slices.Contains(ops, op) {
		s.logger.WarnContext(ctx, "authorization denied", "user_id", userID, "role", p.Role, "operation", op, "trade_id", tc.TradeID)
		return tradedomain.Unauthorized(userID, op)
	}
	return nil
}

func (s *AuthorizationService) privileges(ctx context.Context, role domain.Role) ([]tradedomain.Operation, error) {
	if s.cache != nil {
		ops, ok, err := s.cache.Get(ctx, role)
		if err != nil {
			s.logger.WarnContext(ctx, "privilege cache read failed", "role", role, "error", err)
		}
		s.metrics.RecordCacheLookup("privileges", ok)
		if ok {
			return ops, nil
		}
	}

	ops, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Save(ctx, role, ops); err != nil {
			s.logger.WarnContext(ctx, "privilege cache write failed", "role", role, "error", err)
		}
	}
	return ops, nil
}

// Privileges 查询角色当前权限
func (s *AuthorizationService) Privileges(ctx context.Context, role string) ([]tradedomain.Operation, error) {
	return s.privileges(ctx, domain.NormalizeRole(role))
}

// Grant 授予权限并失效缓存
func (s *AuthorizationService) Grant(ctx context.Context, role string, op tradedomain.Operation) error {
	if !domain.IsKnownPrivilege(op) {
		return tradedomain.ValidationFailed(fmt.Sprintf("unknown privilege: %s", op))
	}
	r := domain.NormalizeRole(role)
	if err := s.repo.Grant(ctx, r, op); err != nil {
		return err
	}
	s.evict(ctx, r)
	return nil
}

// Revoke 收回权限并失效缓存
func (s *AuthorizationService) Revoke(ctx context.Context, role string, op tradedomain.Operation) error {
	r := domain.NormalizeRole(role)
	if err := s.repo.Revoke(ctx, r, op); err != nil {
		return err
	}
	s.evict(ctx, r)
	return nil
}

// SeedPrivileges 在一个事务中写入角色授权，重复执行结果不变
func (s *AuthorizationService) SeedPrivileges(ctx context.Context, grants map[domain.Role][]tradedomain.Operation) error {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for role, ops := range grants {
			for _, op := range ops {
				if err := s.repo.Grant(txCtx, role, op); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for role := range grants {
		s.evict(ctx, role)
	}
	s.logger.InfoContext(ctx, "role privileges seeded", "roles", len(grants))
	return nil
}

func (s *AuthorizationService) evict(ctx context.Context, role domain.Role) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, role); err != nil {
		s.logger.WarnContext(ctx, "privilege cache evict failed", "role", role, "error", err)
	}
}

// Package domain 授权领域：角色、权限点与调用者身份
package domain

import (
	"context"
	"strings"

	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// Role 用户角色
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleTrader       Role = "TRADER"
	RoleMiddleOffice Role = "MIDDLE_OFFICE"
	RoleSupport      Role = "SUPPORT"
)

// NormalizeRole 去除空白并转为大写
func NormalizeRole(r string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(r)))
}

// Principal 调用者身份
type Principal struct {
	LoginID string
	Role    Role
	Active  bool
}

// AllPrivileges 生命周期服务定义的全部权限点
var AllPrivileges = []tradedomain.Operation{
	tradedomain.OpBookTrade,
	tradedomain.OpAmendTrade,
	tradedomain.OpTerminateTrade,
	tradedomain.OpCancelTrade,
	tradedomain.OpMaintainReferenceData,
}

// DefaultGrants 默认角色授权，参考数据维护只授予 ADMIN，SUPPORT 只读
func DefaultGrants() map[Role][]tradedomain.Operation {
	return map[Role][]tradedomain.Operation{
		RoleAdmin:        AllPrivileges,
		RoleTrader:       {tradedomain.OpBookTrade, tradedomain.OpAmendTrade},
		RoleMiddleOffice: {tradedomain.OpAmendTrade, tradedomain.OpTerminateTrade, tradedomain.OpCancelTrade},
		RoleSupport:      {},
	}
}

// IsKnownPrivilege 是否为已定义的权限点
func IsKnownPrivilege(op tradedomain.Operation) bool {
	for _, p := range AllPrivileges {
		if p == op {
			return true
		}
	}
	return false
}

// UserDirectory 按登录 ID 查询调用者，不存在返回 nil, nil
type UserDirectory interface {
	FindPrincipal(ctx context.Context, loginID string) (*Principal, error)
}

// PrivilegeRepository 角色权限仓储
type PrivilegeRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Grant 重复授予不报错
	Grant(ctx context.Context, role Role, op tradedomain.Operation) error
	// Revoke 未授予时不报错
	Revoke(ctx context.Context, role Role, op tradedomain.Operation) error
	ListByRole(ctx context.Context, role Role) ([]tradedomain.Operation, error)
}

// PrivilegeCache 角色权限缓存，未命中返回 ok=false
type PrivilegeCache interface {
	Get(ctx context.Context, role Role) (ops []tradedomain.Operation, ok bool, err error)
	Save(ctx context.Context, role Role, ops []tradedomain.Operation) error
	Delete(ctx context.Context, role Role) error
}

// Package directory 通过参考数据服务查询调用者身份
package directory

import (
	"context"

	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	refdomain "github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
)

// UserFinder 由参考数据应用服务实现
type UserFinder interface {
	FindUserByLoginID(ctx context.Context, loginID string) (*refdomain.User, error)
}

type referenceUserDirectory struct {
	users UserFinder
}

// NewReferenceUserDirectory 以参考数据中的用户表作为身份来源
func NewReferenceUserDirectory(users UserFinder) domain.UserDirectory {
	return &referenceUserDirectory{users: users}
}

func (d *referenceUserDirectory) FindPrincipal(ctx context.Context, loginID string) (*domain.Principal, error) {
	u, err := d.users.FindUserByLoginID(ctx, loginID)
	if err != nil || u == nil {
		return nil, err
	}
	return &domain.Principal{
		LoginID: u.LoginID,
		Role:    domain.NormalizeRole(u.Role),
		Active:  u.Active,
	}, nil
}

package domain

import (
	"context"

	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

// ReferenceRepository 参考数据仓储（写模型），查不到时返回 nil, nil
type ReferenceRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	FindByID(ctx context.Context, kind tradedomain.ReferenceKind, id int64) (*Entity, error)
	FindByName(ctx context.Context, kind tradedomain.ReferenceKind, name string) (*Entity, error)
	List(ctx context.Context, kind tradedomain.ReferenceKind) ([]*Entity, error)
	// Save 按名称 upsert，回填 ID
	Save(ctx context.Context, e *Entity) error
	// SetActive 不存在时返回 ErrNotFound
	SetActive(ctx context.Context, kind tradedomain.ReferenceKind, id int64, active bool) error

	SaveUser(ctx context.Context, u *User) error
	FindUserByLoginID(ctx context.Context, loginID string) (*User, error)
}

// ReferenceReadRepository 参考数据读模型缓存，未命中返回 nil, nil
type ReferenceReadRepository interface {
	Get(ctx context.Context, kind tradedomain.ReferenceKind, id int64) (*Entity, error)
	GetByName(ctx context.Context, kind tradedomain.ReferenceKind, name string) (*Entity, error)
	Save(ctx context.Context, e *Entity) error
	Delete(ctx context.Context, e *Entity) error
}

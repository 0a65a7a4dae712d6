// Package domain 参考数据领域模型：账簿、交易对手、用户、币种、利率指数、计息频率等
package domain

import (
	"errors"

	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
)

var (
	// ErrUnknownKind 未注册的参考数据类别
	ErrUnknownKind = errors.New("unknown reference kind")
	// ErrNotFound 参考数据不存在
	ErrNotFound = errors.New("reference data not found")
)

// Entity 一条参考数据。用户类别的 Name 为登录 ID
type Entity struct {
	Kind        tradedomain.ReferenceKind `json:"kind"`
	ID          int64                     `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	Active      bool                      `json:"active"`
}

// Ref 转换为交易侧使用的快照
func (e *Entity) Ref() tradedomain.RefEntity {
	return tradedomain.RefEntity{ID: e.ID, Name: e.Name, Active: e.Active}
}

// User 应用用户，Role 决定可执行的生命周期操作
type User struct {
	ID        int64  `json:"id"`
	LoginID   string `json:"loginId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
}

// IsKnownKind 是否为已知类别
func IsKnownKind(kind tradedomain.ReferenceKind) bool {
	for _, k := range tradedomain.ReferenceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

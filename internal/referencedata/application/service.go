// Package application 参考数据应用服务：解析、维护与初始化
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
)

// ReferenceService 实现 tradedomain.ReferenceDataResolver
// 读路径先查缓存，缓存失败降级为直接查库
type ReferenceService struct {
	repo    domain.ReferenceRepository
	cache   domain.ReferenceReadRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewReferenceService 创建参考数据服务，cache 与 m 可为 nil
func NewReferenceService(repo domain.ReferenceRepository, cache domain.ReferenceReadRepository, m *metrics.Metrics, logger *slog.Logger) *ReferenceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceService{repo: repo, cache: cache, metrics: m, logger: logger}
}

// Resolve 按 ID 或名称解析，不存在返回 NotFound
func (s *ReferenceService) Resolve(ctx context.Context, kind tradedomain.ReferenceKind, ref tradedomain.Reference) (tradedomain.RefEntity, error) {
	e, err := s.lookup(ctx, kind, ref)
	if err != nil {
		return tradedomain.RefEntity{}, err
	}
	return e.Ref(), nil
}

// Get 按 "id 或名称" 字符串获取，纯数字视为 ID
func (s *ReferenceService) Get(ctx context.Context, kind tradedomain.ReferenceKind, idOrName string) (*domain.Entity, error) {
	return s.lookup(ctx, kind, ParseReference(idOrName))
}

// ParseReference 纯数字解析为 ID 引用，否则为名称引用
func ParseReference(s string) tradedomain.Reference {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return tradedomain.ByID(id)
	}
	return tradedomain.ByName(s)
}

func (s *ReferenceService) lookup(ctx context.Context, kind tradedomain.ReferenceKind, ref tradedomain.Reference) (*domain.Entity, error) {
	if !domain.IsKnownKind(kind) {
		return nil, tradedomain.ValidationFailed(fmt.Sprintf("unknown reference kind: %s", kind))
	}
	if ref.IsZero() {
		return nil, tradedomain.ValidationFailed(fmt.Sprintf("%s reference is empty", kind))
	}

	id, byID := ref.ID()
	name, _ := ref.Name()

	if s.cache != nil {
		var cached *domain.Entity
		var err error
		if byID {
			cached, err = s.cache.Get(ctx, kind, id)
		} else {
			cached, err = s.cache.GetByName(ctx, kind, name)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "reference cache read failed", "kind", kind, "ref", ref.String(), "error", err)
		}
		s.metrics.RecordCacheLookup("referencedata", cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	var e *domain.Entity
	var err error
	if byID {
		e, err = s.repo.FindByID(ctx, kind, id)
	} else {
		e, err = s.repo.FindByName(ctx, kind, name)
	}
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, tradedomain.NotFound(ref.Field(kind), ref.String())
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "reference cache write failed", "kind", kind, "id", e.ID, "error", err)
		}
	}
	return e, nil
}

// List 列出某一类别的全部参考数据
func (s *ReferenceService) List(ctx context.Context, kind tradedomain.ReferenceKind) ([]*domain.Entity, error) {
	if !domain.IsKnownKind(kind) {
		return nil, tradedomain.ValidationFailed(fmt.Sprintf("unknown reference kind: %s", kind))
	}
	return s.repo.List(ctx, kind)
}

// Upsert 按名称新增或更新
func (s *ReferenceService) Upsert(ctx context.Context, e *domain.Entity) error {
	if err := s.repo.Save(ctx, e); err != nil {
		return err
	}
	s.evict(ctx, e)
	return nil
}

// SetActive 启用或停用一条参考数据
func (s *ReferenceService) SetActive(ctx context.Context, kind tradedomain.ReferenceKind, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, kind, id, active); err != nil {
		return err
	}
	e, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		return err
	}
	s.evict(ctx, e)
	return nil
}

// SaveUser 新增或更新用户
func (s *ReferenceService) SaveUser(ctx context.Context, u *domain.User) error {
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return err
	}
	s.evict(ctx, &domain.Entity{Kind: tradedomain.RefUser, ID: u.ID, Name: u.LoginID})
	return nil
}

// FindUserByLoginID 查询用户及其角色，不存在返回 nil, nil
func (s *ReferenceService) FindUserByLoginID(ctx context.Context, loginID string) (*domain.User, error) {
	return s.repo.FindUserByLoginID(ctx, loginID)
}

func (s *ReferenceService) evict(ctx context.Context, e *domain.Entity) {
	if s.cache == nil || e == nil {
		return
	}
	if err := s.cache.Delete(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "reference cache evict failed", "kind", e.Kind, "id", e.ID, "error", err)
	}
}

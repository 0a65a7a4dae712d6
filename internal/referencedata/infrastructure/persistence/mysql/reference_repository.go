// Package mysql 参考数据仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"gorm.io/gorm"
)

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository 创建参考数据仓储实例
func NewReferenceRepository(db *gorm.DB) domain.ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *referenceRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.Transaction(ctx, r.db, fn)
}

func tableFor(kind tradedomain.ReferenceKind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	return t, nil
}

func (r *referenceRepository) find(ctx context.Context, kind tradedomain.ReferenceKind, column string, value any) (*domain.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if column == "" {
		column = t.nameColumn
	}
	rec := t.newRecord()
	err = r.getDB(ctx).Where(column+" = ?", value).First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", kind, err)
	}
	return rec.entity(kind), nil
}

func (r *referenceRepository) FindByID(ctx context.Context, kind tradedomain.ReferenceKind, id int64) (*domain.Entity, error) {
	return r.find(ctx, kind, "id", id)
}

func (r *referenceRepository) FindByName(ctx context.Context, kind tradedomain.ReferenceKind, name string) (*domain.Entity, error) {
	return r.find(ctx, kind, "", name)
}

func (r *referenceRepository) List(ctx context.Context, kind tradedomain.ReferenceKind) ([]*domain.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	recs, err := t.list(r.getDB(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	out := make([]*domain.Entity, len(recs))
	for i, rec := range recs {
		out[i] = rec.entity(kind)
	}
	return out, nil
}

func (r *referenceRepository) Save(ctx context.Context, e *domain.Entity) error {
	t, err := tableFor(e.Kind)
	if err != nil {
		return err
	}
	db := r.getDB(ctx)

	rec := t.newRecord()
	err = db.Where(t.nameColumn+" = ?", e.Name).First(rec).Error
	switch {
	case err == nil:
		rec.apply(e)
		err = db.Save(rec).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec.apply(e)
		err = db.Create(rec).Error
	}
	if err != nil {
		return fmt.Errorf("failed to save %s %q: %w", e.Kind, e.Name, err)
	}
	e.ID = rec.key()
	return nil
}

func (r *referenceRepository) SetActive(ctx context.Context, kind tradedomain.ReferenceKind, id int64, active bool) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res := r.getDB(ctx).Model(t.newRecord()).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, kind, id)
	}
	return nil
}

func (r *referenceRepository) SaveUser(ctx context.Context, u *domain.User) error {
	db := r.getDB(ctx)

	var m UserModel
	err := db.Where("login_id = ?", u.LoginID).First(&m).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load user %q: %w", u.LoginID, err)
	}
	m.LoginID = u.LoginID
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Role = u.Role
	m.Active = u.Active
	if err := db.Save(&m).Error; err != nil {
		return fmt.Errorf("failed to save user %q: %w", u.LoginID, err)
	}
	u.ID = m.ID
	return nil
}

func (r *referenceRepository) FindUserByLoginID(ctx context.Context, loginID string) (*domain.User, error) {
	var m UserModel
	err := r.getDB(ctx).Where("login_id = ?", loginID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", loginID, err)
	}
	return m.toUser(), nil
}

package mysql

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
)

func newRepo(t *testing.T) domain.ReferenceRepository {
	t.Helper()
	d, err := db.Init(context.Background(), db.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(d.DB))
	t.Cleanup(func() { _ = d.Close() })
	return NewReferenceRepository(d.DB)
}

func TestReferenceRepository_SaveAndFind(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	book := &domain.Entity{Kind: tradedomain.RefBook, Name: "FX-BOOK-1", Active: true}
	require.NoError(t, repo.Save(ctx, book))
	require.NotZero(t, book.ID)

	byID, err := repo.FindByID(ctx, tradedomain.RefBook, book.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "FX-BOOK-1", byID.Name)
	assert.True(t, byID.Active)

	byName, err := repo.FindByName(ctx, tradedomain.RefBook, "FX-BOOK-1")
	require.NoError(t, err)
	assert.Equal(t, book.ID, byName.ID)

	// 各类别独立建表
	missing, err := repo.FindByID(ctx, tradedomain.RefCounterparty, book.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReferenceRepository_SaveUpsertsByName(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := &domain.Entity{Kind: tradedomain.RefCurrency, Name: "USD", Active: true}
	require.NoError(t, repo.Save(ctx, first))

	again := &domain.Entity{Kind: tradedomain.RefCurrency, Name: "USD", Description: "US Dollar", Active: false}
	require.NoError(t, repo.Save(ctx, again))
	assert.Equal(t, first.ID, again.ID)

	got, err := repo.FindByName(ctx, tradedomain.RefCurrency, "USD")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "US Dollar", got.Description)

	all, err := repo.List(ctx, tradedomain.RefCurrency)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReferenceRepository_SetActive(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	cp := &domain.Entity{Kind: tradedomain.RefCounterparty, Name: "BigBank", Active: true}
	require.NoError(t, repo.Save(ctx, cp))
	require.NoError(t, repo.SetActive(ctx, tradedomain.RefCounterparty, cp.ID, false))

	got, err := repo.FindByID(ctx, tradedomain.RefCounterparty, cp.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	err = repo.SetActive(ctx, tradedomain.RefCounterparty, 999, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReferenceRepository_Users(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := &domain.User{LoginID: "alice", FirstName: "Alice", LastName: "Smith", Role: "TRADER", Active: true}
	require.NoError(t, repo.SaveUser(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.FindUserByLoginID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "TRADER", got.Role)

	// 用户类别按 login_id 解析
	ent, err := repo.FindByName(ctx, tradedomain.RefUser, "alice")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, u.ID, ent.ID)
	assert.Equal(t, "Alice Smith", ent.Description)

	u.Role = "ADMIN"
	require.NoError(t, repo.SaveUser(ctx, u))
	got, err = repo.FindUserByLoginID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", got.Role)

	none, err := repo.FindUserByLoginID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestReferenceRepository_UnknownKind(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.FindByID(context.Background(), tradedomain.ReferenceKind("planet"), 1)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

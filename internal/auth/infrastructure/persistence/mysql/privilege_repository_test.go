package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
)

func newRepo(t *testing.T) domain.PrivilegeRepository {
	t.Helper()
	d, err := db.Init(context.Background(), db.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(d.DB))
	t.Cleanup(func() { _ = d.Close() })
	return NewPrivilegeRepository(d.DB)
}

func TestGrantIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Grant(ctx, domain.RoleTrader, tradedomain.OpBookTrade))
	require.NoError(t, repo.Grant(ctx, domain.RoleTrader, tradedomain.OpBookTrade))
	require.NoError(t, repo.Grant(ctx, domain.RoleTrader, tradedomain.OpAmendTrade))

	ops, err := repo.ListByRole(ctx, domain.RoleTrader)
	require.NoError(t, err)
	assert.Equal(t, []tradedomain.Operation{tradedomain.OpAmendTrade, tradedomain.OpBookTrade}, ops)

	ops, err = repo.ListByRole(ctx, domain.RoleSupport)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestRevoke(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Grant(ctx, domain.RoleMiddleOffice, tradedomain.OpCancelTrade))
	require.NoError(t, repo.Revoke(ctx, domain.RoleMiddleOffice, tradedomain.OpCancelTrade))
	require.NoError(t, repo.Revoke(ctx, domain.RoleMiddleOffice, tradedomain.OpCancelTrade))

	ops, err := repo.ListByRole(ctx, domain.RoleMiddleOffice)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestWithTx_Rollback(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.Grant(txCtx, domain.RoleAdmin, tradedomain.OpCancelTrade))
		return boom
	})
	require.ErrorIs(t, err, boom)

	ops, err := repo.ListByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

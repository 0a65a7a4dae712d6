package application

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	"github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/directory"
	authmysql "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/mysql"
	authredis "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/redis"
	refapp "github.com/wyfcoding/tradelifecycle/internal/referencedata/application"
	refdomain "github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	refmysql "github.com/wyfcoding/tradelifecycle/internal/referencedata/infrastructure/persistence/mysql"
	tradedomain "github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/metrics"
)

type authEnv struct {
	svc     *AuthorizationService
	refs    *refapp.ReferenceService
	mr      *miniredis.Miniredis
	metrics *metrics.Metrics
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	ctx := context.Background()
	d, err := db.Init(ctx, db.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, refmysql.AutoMigrate(d.DB))
	require.NoError(t, authmysql.AutoMigrate(d.DB))
	t.Cleanup(func() { _ = d.Close() })

	refs := refapp.NewReferenceService(refmysql.NewReferenceRepository(d.DB), nil, nil, nil)
	require.NoError(t, refs.Seed(ctx, refapp.DefaultSeed()))
	require.NoError(t, refs.SaveUser(ctx, &refdomain.User{LoginID: "ghost", Role: "TRADER", Active: false}))
	require.NoError(t, refs.SaveUser(ctx, &refdomain.User{LoginID: "helpdesk", Role: "support", Active: true}))

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New("test")
	svc := NewAuthorizationService(
		directory.NewReferenceUserDirectory(refs),
		authmysql.NewPrivilegeRepository(d.DB),
		authredis.NewPrivilegeRedisCache(client, 0),
		m, nil,
	)
	require.NoError(t, svc.SeedPrivileges(ctx, domain.DefaultGrants()))
	return &authEnv{svc: svc, refs: refs, mr: mr, metrics: m}
}

func TestAuthorize_DefaultGrants(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	tests := []struct {
		user    string
		op      tradedomain.Operation
		allowed bool
	}{
		{"admin", tradedomain.OpBookTrade, true},
		{"admin", tradedomain.OpCancelTrade, true},
		{"trader1", tradedomain.OpBookTrade, true},
		{"trader1", tradedomain.OpAmendTrade, true},
		{"trader1", tradedomain.OpTerminateTrade, false},
		{"trader1", tradedomain.OpCancelTrade, false},
		{"ops1", tradedomain.OpBookTrade, false},
		{"ops1", tradedomain.OpTerminateTrade, true},
		{"ops1", tradedomain.OpCancelTrade, true},
		{"helpdesk", tradedomain.OpAmendTrade, false},
		{"ghost", tradedomain.OpBookTrade, false},
		{"nobody", tradedomain.OpBookTrade, false},
		{"", tradedomain.OpBookTrade, false},
	}
	for _, tt := range tests {
		t.Run(tt.user+"/"+string(tt.op), func(t *testing.T) {
			err := env.svc.Authorize(ctx, tt.user, tt.op, tradedomain.TradeContext{TradeID: 10001})
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, tradedomain.IsUnauthorized(err))
		})
	}
}

func TestAuthorize_UsesPrivilegeCache(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.Authorize(ctx, "trader1", tradedomain.OpBookTrade, tradedomain.TradeContext{}))
	assert.True(t, env.mr.Exists("auth:role:TRADER:privileges"))
	require.NoError(t, env.svc.Authorize(ctx, "trader1", tradedomain.OpAmendTrade, tradedomain.TradeContext{}))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("privileges", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("privileges", "hit")))
}

func TestGrantAndRevoke_InvalidateCache(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	err := env.svc.Authorize(ctx, "trader1", tradedomain.OpTerminateTrade, tradedomain.TradeContext{})
	require.True(t, tradedomain.IsUnauthorized(err))

	require.NoError(t, env.svc.Grant(ctx, "trader", tradedomain.OpTerminateTrade))
	assert.NoError(t, env.svc.Authorize(ctx, "trader1", tradedomain.OpTerminateTrade, tradedomain.TradeContext{}))

	require.NoError(t, env.svc.Revoke(ctx, "TRADER", tradedomain.OpTerminateTrade))
	err = env.svc.Authorize(ctx, "trader1", tradedomain.OpTerminateTrade, tradedomain.TradeContext{})
	assert.True(t, tradedomain.IsUnauthorized(err))

	err = env.svc.Grant(ctx, "TRADER", tradedomain.Operation("DELETE_EVERYTHING"))
	assert.True(t, tradedomain.IsValidation(err))
}

func TestAuthorize_DeactivatedUser(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	require.NoError(t, env.refs.SaveUser(ctx, &refdomain.User{LoginID: "trader1", Role: "TRADER", Active: false}))
	err := env.svc.Authorize(ctx, "trader1", tradedomain.OpBookTrade, tradedomain.TradeContext{})
	assert.True(t, tradedomain.IsUnauthorized(err))
}

func TestAuthorize_CacheDownFallsBackToDB(t *testing.T) {
	env := newAuthEnv(t)
	env.mr.Close()

	assert.NoError(t, env.svc.Authorize(context.Background(), "ops1", tradedomain.OpCancelTrade, tradedomain.TradeContext{}))
}
